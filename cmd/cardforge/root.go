package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/deckfoundry/cardforge/internal/config"
	"github.com/deckfoundry/cardforge/internal/platform/logger"
)

var (
	cfg       *config.Config
	appLogger *slog.Logger
	modelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "cardforge",
	Short: "Turn documents into study flashcards",
	Long: `cardforge extracts text from documents (plain text, Markdown, PDF,
DOCX, HTML, folders and ZIP archives), asks a language model to write
question/answer and cloze flashcards for it, and exports the result as
Anki-importable CSV.

Run "cardforge generate" for one-shot batch conversion, "cardforge
interactive" for a REPL session, or "cardforge serve" for the HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is a development convenience; its absence is normal.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLogger, err = logger.Setup(cfg.Server)
		if err != nil {
			return fmt.Errorf("failed to set up logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "",
		`model to generate with (see "cardforge models")`)
}

// Execute runs the root command with the given context and reports the
// failure on stderr.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
