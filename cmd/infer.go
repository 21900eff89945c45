package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentic-research/descry/internal/model"
	"github.com/agentic-research/descry/internal/snapshot"
	"github.com/agentic-research/descry/internal/source"
	"github.com/agentic-research/descry/internal/tree"
	"github.com/spf13/cobra"
)

var inferName string

var inferCmd = &cobra.Command{
	Use:   "infer [output.db] [doc.json|records.db]...",
	Short: "Infer a model from one or more documents and snapshot it",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := absPath(args[0])
		if err != nil {
			return err
		}

		m := model.New(inferName)
		start := time.Now()
		for _, input := range args[1:] {
			path, err := absPath(input)
			if err != nil {
				return err
			}
			switch filepath.Ext(path) {
			case ".db":
				if err := source.StreamTrees(path, func(t *tree.Tree) error {
					m.AddTree(t)
					return nil
				}); err != nil {
					return err
				}
			default:
				t, err := source.LoadJSON(workFS(), path)
				if err != nil {
					return err
				}
				m.AddTree(t)
			}
		}

		_ = os.Remove(output) // overwrite
		if err := snapshot.Export(m, output); err != nil {
			return err
		}
		fmt.Printf("Inferred %d descriptors from %d sources in %v.\n", m.Len(), len(m.Sources()), time.Since(start))
		return nil
	},
}

func init() {
	inferCmd.Flags().StringVar(&inferName, "name", "descry model", "model name stored in the snapshot")
	rootCmd.AddCommand(inferCmd)
}
