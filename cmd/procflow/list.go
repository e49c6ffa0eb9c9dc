package main

import (
	"github.com/aretw0/procflow/internal/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered procedures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, procedures := persistentFlags(cmd)
		long, _ := cmd.Flags().GetBool("long")
		return cli.List(cmd.OutOrStdout(), cli.ListOptions{ProceduresFile: procedures, Long: long})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolP("long", "l", false, "Render full Markdown descriptions")
}
