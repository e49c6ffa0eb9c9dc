package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/procflow"
	"github.com/aretw0/procflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of procflow",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsTerminal(cmd.OutOrStdout()) {
			tui.PrintBanner(cmd.OutOrStdout(), procflow.Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "procflow version %s\n", strings.TrimSpace(procflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
