package main

import (
	"github.com/aretw0/procflow/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the call graph visualization",
	Long:  `Parses the document and outputs a Mermaid diagram (graph TD) of its stages and data references.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Graph(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
