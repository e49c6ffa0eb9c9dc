package main

import (
	"github.com/aretw0/procflow/internal/cli"
	"github.com/aretw0/procflow/pkg/runner"
	"github.com/spf13/cobra"
)

var runFormat = runner.FormatJSON

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Execute a call graph document",
	Long:  `Parses the JSON or YAML document, executes its root procedure reference and prints the resolved value.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, procedures := persistentFlags(cmd)
		quiet, _ := cmd.Flags().GetBool("quiet")
		trace, _ := cmd.Flags().GetBool("trace")

		return cli.Execute(cli.RunOptions{
			File:           args[0],
			ProceduresFile: procedures,
			Format:         runFormat,
			Quiet:          quiet,
			Debug:          debug,
			Trace:          trace,
			Stdout:         cmd.OutOrStdout(),
			Stderr:         cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().VarP(&runFormat, "format", "f", "Output format: json or text")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the result")
	runCmd.Flags().Bool("trace", false, "Print a Mermaid diagram of the executed stages to stderr")
}
