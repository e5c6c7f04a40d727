// Package export serializes flashcards to CSV for import into study
// tools. Rows carry question, answer, card type, and source file, in
// that order, with no header row.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/samber/lo"

	"github.com/deckfoundry/cardforge/internal/domain"
)

// Common errors returned by the export package
var (
	// ErrNoCards is returned when exporting an empty collection and the
	// exporter is not configured to allow it
	ErrNoCards = errors.New("no flashcards to export")

	// ErrExportFailed is returned when the destination cannot be written
	ErrExportFailed = errors.New("failed to write export")
)

// Options configures an Exporter.
type Options struct {
	// AllowEmpty permits exporting zero cards, producing an empty file.
	// When false, exporting an empty collection fails without touching
	// the destination.
	AllowEmpty bool
}

// Summary reports what an export produced.
type Summary struct {
	Rows        int                     `json:"rows"`
	Bytes       int64                   `json:"bytes"`
	ByType      map[domain.CardType]int `json:"by_type"`
	Destination string                  `json:"destination,omitempty"`
}

// Exporter writes flashcards as CSV.
type Exporter struct {
	logger *slog.Logger
	opts   Options
}

// New creates an Exporter. The logger may be nil, in which case the
// default logger is used.
func New(logger *slog.Logger, opts Options) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		logger: logger.With(slog.String("component", "export")),
		opts:   opts,
	}
}

// Write streams the cards to w as CSV rows and returns a summary of
// what was written.
func (e *Exporter) Write(w io.Writer, cards []domain.Flashcard) (*Summary, error) {
	if len(cards) == 0 && !e.opts.AllowEmpty {
		return nil, ErrNoCards
	}

	counter := &countingWriter{w: w}
	cw := csv.NewWriter(counter)

	for _, card := range cards {
		row := []string{card.Question, card.Answer, string(card.Type), card.SourceFile}
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	return &Summary{
		Rows:  len(cards),
		Bytes: counter.n,
		ByType: lo.CountValuesBy(cards, func(card domain.Flashcard) domain.CardType {
			return card.Type
		}),
	}, nil
}

// ExportFile writes the cards to a new file at path. The empty-export
// policy is checked before the file is created, so a refused export
// never leaves a file behind. A partially written file is removed on
// error.
func (e *Exporter) ExportFile(path string, cards []domain.Flashcard) (*Summary, error) {
	if len(cards) == 0 && !e.opts.AllowEmpty {
		return nil, ErrNoCards
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	summary, err := e.Write(f, cards)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	summary.Destination = path
	e.logger.Info("Exported flashcards",
		slog.String("path", path),
		slog.Int("rows", summary.Rows),
		slog.Int64("bytes", summary.Bytes))
	return summary, nil
}

// countingWriter tracks how many bytes pass through to the underlying
// writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
