package cmd

import (
	"fmt"

	"github.com/agentic-research/descry/internal/export"
	"github.com/agentic-research/descry/internal/snapshot"
	"github.com/agentic-research/descry/internal/source"
	"github.com/spf13/cobra"
)

var applyOut string

var applyCmd = &cobra.Command{
	Use:   "apply [snapshot.db] [doc.json]",
	Short: "Enrich a document with a model and report type mismatches",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := absPath(args[0])
		if err != nil {
			return err
		}
		docPath, err := absPath(args[1])
		if err != nil {
			return err
		}

		m, err := snapshot.Load(dbPath)
		if err != nil {
			return err
		}
		t, err := source.LoadJSON(workFS(), docPath)
		if err != nil {
			return err
		}

		report := m.Apply(t)
		fmt.Printf("Enriched %d nodes (%d without a descriptor).\n", report.Enriched, report.Unmatched)
		for _, mm := range report.Mismatches {
			expected := ""
			for i, k := range mm.Expected {
				if i > 0 {
					expected += ","
				}
				expected += k.String()
			}
			fmt.Printf("type mismatch at %s: found %s, observed %s\n", mm.Address, mm.Found, expected)
		}

		if applyOut != "" {
			outPath, err := absPath(applyOut)
			if err != nil {
				return err
			}
			if err := export.WriteTreeJSONLD(workFS(), outPath, t); err != nil {
				return err
			}
			fmt.Printf("Wrote enriched tree to %s.\n", outPath)
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyOut, "out", "", "write the enriched tree as JSON-LD")
	rootCmd.AddCommand(applyCmd)
}
