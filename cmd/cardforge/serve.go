package main

import (
	"github.com/spf13/cobra"

	"github.com/deckfoundry/cardforge/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the flashcard HTTP API",
	Long: `Serve exposes the pipeline over HTTP: anonymous sessions, document
uploads, card review endpoints and CSV download. Sessions expire after
the configured idle TTL. The server shuts down gracefully on SIGINT and
SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := web.New(cmd.Context(), appLogger, cfg, modelFlag)
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
