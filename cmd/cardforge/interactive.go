package main

import (
	"github.com/spf13/cobra"

	"github.com/deckfoundry/cardforge/internal/cli"
	"github.com/deckfoundry/cardforge/internal/pipeline"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"repl"},
	Short:   "Start an interactive flashcard session",
	Long: `Interactive opens a REPL over one in-memory collection: load
documents, review and edit the generated cards, and export them as CSV
when you are happy. Type "help" inside the session for the command
list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cmd.Context(), appLogger, cfg, modelFlag)
		if err != nil {
			return err
		}
		cli.NewApp(appLogger, p).Run(cmd.Context())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
