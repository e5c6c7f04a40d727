package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/deckfoundry/cardforge/internal/pipeline"
)

// Load runs the full pipeline for one path: extract, generate, merge
// into the collection. Warnings from both stages are echoed so the
// user sees which pages or files were skipped.
func (a *App) Load(ctx context.Context, args []string) error {
	path := strings.Join(args, " ")
	if path == "" {
		var err error
		path, err = GetSimpleText(a.reader, "Path to a file, folder, or ZIP archive", a.out)
		if err != nil {
			return err
		}
	}
	if path == "" {
		printlnFn("Nothing to load.")
		return nil
	}

	printlnFn(fmt.Sprintf("Processing %s ...", path))

	report, err := a.pipeline.ProcessPath(ctx, path, pipeline.ProcessOptions{
		Language:    a.language,
		ContentType: a.content,
	})
	printReportWarnings(report)
	if err != nil {
		printlnFn(fmt.Sprintf("Error: %v", err))
		return err
	}

	printlnFn(fmt.Sprintf("Added %d cards from %d files (%d in collection).",
		report.Added, report.Extraction.FileCount, a.pipeline.Collection().Len()))
	return nil
}

func printReportWarnings(report *pipeline.Report) {
	if report == nil {
		return
	}
	if report.Extraction != nil {
		for _, w := range report.Extraction.Warnings {
			printlnFn("Warning:", w)
		}
	}
	if report.Generation != nil {
		for _, w := range report.Generation.Warnings {
			printlnFn("Warning:", w)
		}
	}
}
