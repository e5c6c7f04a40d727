// Package cli implements the interactive flashcard session: a small
// REPL over the pipeline that loads documents, reviews and edits the
// generated cards, and exports them to CSV.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/deckfoundry/cardforge/internal/pipeline"
)

var _ execIface = (*App)(nil)

// App drives one interactive flashcard session.
type App struct {
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	language string // session override; empty uses the configured default
	content  string // session override; empty uses the configured default
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp creates an App reading from stdin and writing prompts to
// stdout.
func NewApp(logger *slog.Logger, p *pipeline.Pipeline) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:   logger,
		pipeline: p,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	runREPL(ctx, a, a.status, a.reader)
}

// status renders the prompt suffix: card count and session language.
func (a *App) status() string {
	n := a.pipeline.Collection().Len()
	lang := a.language
	if lang == "" {
		lang = "default language"
	}
	return fmt.Sprintf("%d cards, %s", n, lang)
}
