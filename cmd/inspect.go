package cmd

import (
	"fmt"

	"github.com/agentic-research/descry/internal/source"
	"github.com/spf13/cobra"
)

var inspectNormalized bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [doc.json]",
	Short: "Print the addressable shape of a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docPath, err := absPath(args[0])
		if err != nil {
			return err
		}
		t, err := source.LoadJSON(workFS(), docPath)
		if err != nil {
			return err
		}

		if !inspectNormalized {
			for _, p := range t.Paths() {
				fmt.Println(p.String())
			}
			return nil
		}

		seen := map[string]bool{}
		for _, p := range t.Paths() {
			n := p.Normalize().String()
			if seen[n] {
				continue
			}
			seen[n] = true
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVarP(&inspectNormalized, "normalized", "n", false, "collapse list indices to [*]")
	rootCmd.AddCommand(inspectCmd)
}
