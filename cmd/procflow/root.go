package main

import (
	"fmt"
	"os"

	"github.com/aretw0/procflow/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "procflow",
	Short: "procflow runs call graphs of registered procedures",
	Long: `procflow executes procedure references described in JSON or YAML.
Stages are named with $name, their outputs referenced with $ref, and nested
references are deferred to the enclosing procedure with $when.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("procedures", cli.DefaultProceduresFile, "File declaring script procedures")
}

func persistentFlags(cmd *cobra.Command) (debug bool, procedures string) {
	debug, _ = cmd.Flags().GetBool("debug")
	procedures, _ = cmd.Flags().GetString("procedures")
	return debug, procedures
}
