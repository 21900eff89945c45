package cmd

import (
	"fmt"
	"os"

	"github.com/agentic-research/descry/internal/curate"
	"github.com/agentic-research/descry/internal/snapshot"
	"github.com/spf13/cobra"
)

var curateCmd = &cobra.Command{
	Use:   "curate [snapshot.db] [curation.hcl]",
	Short: "Apply an HCL curation file to a model snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := absPath(args[0])
		if err != nil {
			return err
		}
		hclPath, err := absPath(args[1])
		if err != nil {
			return err
		}

		m, err := snapshot.Load(dbPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(hclPath)
		if err != nil {
			return fmt.Errorf("read curation: %w", err)
		}
		f, err := curate.ParseFile(hclPath, data)
		if err != nil {
			return err
		}
		if err := curate.Apply(m, f); err != nil {
			return err
		}

		_ = os.Remove(dbPath) // rewrite in place
		if err := snapshot.Export(m, dbPath); err != nil {
			return err
		}
		fmt.Printf("Curated %d blocks into %s.\n", len(f.Attributes), dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(curateCmd)
}
