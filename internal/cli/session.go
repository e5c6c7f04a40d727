package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/deckfoundry/cardforge/internal/domain"
	"github.com/deckfoundry/cardforge/internal/export"
	"github.com/deckfoundry/cardforge/internal/generation"
)

// Stats prints collection statistics.
func (a *App) Stats(_ context.Context) error {
	stats := a.pipeline.Collection().Statistics()

	printlnFn(fmt.Sprintf("Cards: %d (%d qa, %d cloze)",
		stats.Total, stats.ByType[domain.CardTypeQA], stats.ByType[domain.CardTypeCloze]))

	if len(stats.BySource) > 0 {
		sources := make([]string, 0, len(stats.BySource))
		for s := range stats.BySource {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		for _, s := range sources {
			printlnFn(fmt.Sprintf("  %s: %d", s, stats.BySource[s]))
		}
	}
	if stats.Invalid > 0 {
		printlnFn(fmt.Sprintf("Invalid cards: %d", stats.Invalid))
	}
	return nil
}

// Export writes the collection to a CSV file. The path defaults to
// flashcards.csv in the working directory.
func (a *App) Export(_ context.Context, args []string) error {
	path := strings.Join(args, " ")
	if path == "" {
		path = "flashcards.csv"
	}

	summary, err := a.pipeline.ExportFile(path)
	if err != nil {
		if errors.Is(err, export.ErrNoCards) {
			printlnFn("Nothing to export: the collection is empty.")
		} else {
			printlnFn("Error:", err.Error())
		}
		return err
	}

	printlnFn(fmt.Sprintf("Exported %d cards to %s (%d bytes).", summary.Rows, summary.Destination, summary.Bytes))
	return nil
}

// Language shows or sets the session's target language.
func (a *App) Language(_ context.Context, args []string) error {
	if len(args) == 0 {
		current := a.language
		if current == "" {
			current = "configured default"
		}
		printlnFn("Language:", current)
		printlnFn("Supported:", strings.Join(generation.SupportedLanguages(), ", "))
		return nil
	}

	lang, err := generation.NormalizeLanguage(args[0])
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	a.language = lang
	printlnFn("Cards will be generated in " + lang + ".")
	return nil
}

// Content shows or sets the content-type hint for generation.
func (a *App) Content(_ context.Context, args []string) error {
	if len(args) == 0 {
		current := a.content
		if current == "" {
			current = "configured default"
		}
		printlnFn("Content type:", current)
		printlnFn("Supported:", strings.Join(generation.SupportedContentTypes(), ", "))
		return nil
	}

	ct, err := generation.NormalizeContentType(args[0])
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	a.content = ct
	printlnFn("Content type set to " + ct + ".")
	return nil
}

// Clear drops every card after confirmation.
func (a *App) Clear(_ context.Context) error {
	n := a.pipeline.Collection().Len()
	if n == 0 {
		printlnFn("The collection is already empty.")
		return nil
	}
	if !Confirm(a.reader, fmt.Sprintf("Drop all %d cards?", n), a.out) {
		printlnFn("Kept.")
		return nil
	}
	printlnFn(fmt.Sprintf("Dropped %d cards.", a.pipeline.Collection().Clear()))
	return nil
}
