package main

import (
	"github.com/aretw0/procflow/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes the registry over HTTP: POST /run, GET /procedures, GET /events (SSE) and GET /metrics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, procedures := persistentFlags(cmd)
		port, _ := cmd.Flags().GetString("port")
		return cli.Serve(cli.ServeOptions{
			Port:           port,
			ProceduresFile: procedures,
			Debug:          debug,
			Stdout:         cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
