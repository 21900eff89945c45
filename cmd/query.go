package cmd

import (
	"fmt"

	"github.com/agentic-research/descry/internal/source"
	"github.com/ohler55/ojg/pretty"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [doc.json] [jsonpath]",
	Short: "Run a raw JSONPath probe against a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docPath, err := absPath(args[0])
		if err != nil {
			return err
		}
		doc, err := source.ReadDocument(workFS(), docPath)
		if err != nil {
			return err
		}
		results, err := source.Probe(doc, args[1])
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Println(pretty.JSON(r))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
