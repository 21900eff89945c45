package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-research/descry/internal/export"
	"github.com/agentic-research/descry/internal/filter"
	"github.com/agentic-research/descry/internal/snapshot"
	"github.com/spf13/cobra"
)

var exportWhere []string

var exportCmd = &cobra.Command{
	Use:   "export [snapshot.db] [out.csv|out.md|out.jsonld]",
	Short: "Export a model snapshot as a CSV, Markdown, or JSON-LD report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := absPath(args[0])
		if err != nil {
			return err
		}
		outPath, err := absPath(args[1])
		if err != nil {
			return err
		}

		m, err := snapshot.Load(dbPath)
		if err != nil {
			return err
		}

		if len(exportWhere) > 0 {
			f := filter.New()
			for _, arg := range exportWhere {
				fieldOp, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("bad --where %q, want field__op=value", arg)
				}
				p, err := filter.ParseArg(fieldOp, value)
				if err != nil {
					return err
				}
				f = f.And(p)
			}
			m = f.Apply(m)
		}

		fs := workFS()
		switch filepath.Ext(outPath) {
		case ".csv":
			err = export.WriteCSV(fs, outPath, m)
		case ".md":
			err = export.WriteMarkdown(fs, outPath, m)
		case ".jsonld", ".json":
			err = export.WriteJSONLD(fs, outPath, m)
		default:
			return fmt.Errorf("unsupported export format %q", filepath.Ext(outPath))
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d descriptors to %s.\n", m.Len(), outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringArrayVar(&exportWhere, "where", nil, "filter predicate field__op=value (repeatable, AND)")
	rootCmd.AddCommand(exportCmd)
}
