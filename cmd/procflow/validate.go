package main

import (
	"fmt"

	"github.com/aretw0/procflow/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check the call graph for consistency",
	Long:  `Walks the document in execution order and reports duplicate names, dangling references and unknown procedures.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, procedures := persistentFlags(cmd)
		if err := cli.Validate(args[0], procedures); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
