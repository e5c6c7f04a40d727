package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deckfoundry/cardforge/internal/export"
	"github.com/deckfoundry/cardforge/internal/generation"
	"github.com/deckfoundry/cardforge/internal/pipeline"
)

var (
	generateLanguage   string
	generateContent    string
	generateOutput     string
	generateAllowEmpty bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <path>",
	Short: "Generate flashcards from a file, folder, or ZIP archive",
	Long: `Generate runs the whole pipeline once: extract text from the given
path, generate flashcards for it, and write them as CSV. Per-file
problems inside folders and archives are reported as warnings; the run
only fails when nothing could be processed at all.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if generateLanguage != "" {
			if _, err := generation.NormalizeLanguage(generateLanguage); err != nil {
				return err
			}
		}
		if generateContent != "" {
			if _, err := generation.NormalizeContentType(generateContent); err != nil {
				return err
			}
		}
		if generateAllowEmpty {
			cfg.Export.AllowEmpty = true
		}

		p, err := pipeline.New(ctx, appLogger, cfg, modelFlag)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Processing %s ...\n", args[0])
		report, err := p.ProcessPath(ctx, args[0], pipeline.ProcessOptions{
			Language:    generateLanguage,
			ContentType: generateContent,
		})
		printWarnings(report)
		if err != nil {
			return err
		}

		if generateOutput == "-" {
			summary, err := p.ExportTo(os.Stdout)
			if err != nil {
				return exportError(err)
			}
			fmt.Fprintf(os.Stderr, "Generated %d cards from %d files (%d rows of CSV).\n",
				report.Added, report.Extraction.FileCount, summary.Rows)
			return nil
		}

		summary, err := p.ExportFile(generateOutput)
		if err != nil {
			return exportError(err)
		}
		fmt.Printf("Generated %d cards from %d files; wrote %s (%d bytes).\n",
			report.Added, report.Extraction.FileCount, summary.Destination, summary.Bytes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateLanguage, "language", "l", "",
		"target language for the cards (english, german, spanish, french)")
	generateCmd.Flags().StringVar(&generateContent, "content-type", "",
		"content-type hint for prompting (general, academic, technical)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "flashcards.csv",
		`CSV output path, or "-" for stdout`)
	generateCmd.Flags().BoolVar(&generateAllowEmpty, "allow-empty", false,
		"write an empty CSV instead of failing when no cards were generated")
}

// printWarnings echoes per-unit extraction and generation warnings on
// stderr so they survive CSV-to-stdout runs.
func printWarnings(report *pipeline.Report) {
	if report == nil {
		return
	}
	if report.Extraction != nil {
		for _, w := range report.Extraction.Warnings {
			fmt.Fprintln(os.Stderr, "Warning:", w)
		}
	}
	if report.Generation != nil {
		for _, w := range report.Generation.Warnings {
			fmt.Fprintln(os.Stderr, "Warning:", w)
		}
	}
}

func exportError(err error) error {
	if errors.Is(err, export.ErrNoCards) {
		return fmt.Errorf("no cards to export (re-run with --allow-empty to write an empty file): %w", err)
	}
	return err
}
