// Package pipeline wires the document-to-flashcards flow together:
// extract text from an upload, chunk and generate cards for it, merge
// them into the session collection, and export the collection as CSV.
// Both the CLI and the web server drive this package rather than the
// stages directly.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/deckfoundry/cardforge/internal/chunk"
	"github.com/deckfoundry/cardforge/internal/collection"
	"github.com/deckfoundry/cardforge/internal/config"
	"github.com/deckfoundry/cardforge/internal/domain"
	"github.com/deckfoundry/cardforge/internal/export"
	"github.com/deckfoundry/cardforge/internal/extract"
	"github.com/deckfoundry/cardforge/internal/generation"
)

// Pipeline owns one session's end-to-end flow and its collection.
type Pipeline struct {
	logger    *slog.Logger
	extractor *extract.Extractor
	generator generation.Generator
	cards     *collection.Collection
	exporter  *export.Exporter
}

// New builds a Pipeline from configuration, constructing the provider
// client for the configured model. An explicit model name overrides
// the configured one.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, explicitModel string) (*Pipeline, error) {
	factory, err := NewSessionFactory(ctx, logger, cfg, explicitModel)
	if err != nil {
		return nil, err
	}
	return factory(), nil
}

// NewSessionFactory constructs the shared pipeline stages once and
// returns a factory that mints one Pipeline per session. Sessions share
// the provider client, splitter, extractor and exporter; each gets its
// own empty collection.
func NewSessionFactory(ctx context.Context, logger *slog.Logger, cfg *config.Config, explicitModel string) (func() *Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	client, err := NewModelClient(ctx, logger, explicitModel, cfg)
	if err != nil {
		return nil, err
	}

	splitter, err := chunk.NewSplitter(chunk.Options{
		MaxTokens:     cfg.Chunking.MaxTokens,
		OverlapTokens: cfg.Chunking.OverlapTokens,
	})
	if err != nil {
		return nil, err
	}

	gateway, err := generation.NewGateway(logger, client, splitter, generation.Config{
		Language:        cfg.Generation.Language,
		ContentType:     cfg.Generation.ContentType,
		MaxRetries:      cfg.Generation.MaxRetries,
		RetryBaseDelay:  cfg.Generation.RetryBaseDelay,
		Concurrency:     cfg.Generation.Concurrency,
		ChunkTimeout:    cfg.Generation.ChunkTimeout,
		Temperature:     float32(cfg.Generation.Temperature),
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	extractor := extract.New(logger, extract.Options{
		MaxFileBytes:    int64(cfg.Extraction.MaxFileMB) << 20,
		MaxArchiveBytes: int64(cfg.Extraction.MaxArchiveMB) << 20,
		MaxArchiveFiles: cfg.Extraction.MaxArchiveFiles,
	})
	exporter := export.New(logger, export.Options{AllowEmpty: cfg.Export.AllowEmpty})

	return func() *Pipeline {
		return NewWithParts(logger, extractor, gateway, collection.New(), exporter)
	}, nil
}

// NewWithParts builds a Pipeline from already-constructed stages. Tests
// and the web session layer use this to substitute fakes or share a
// collection.
func NewWithParts(logger *slog.Logger, extractor *extract.Extractor, generator generation.Generator, cards *collection.Collection, exporter *export.Exporter) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cards == nil {
		cards = collection.New()
	}
	return &Pipeline{
		logger:    logger,
		extractor: extractor,
		generator: generator,
		cards:     cards,
		exporter:  exporter,
	}
}

// Report bundles the stage results of one ProcessPath run.
type Report struct {
	Extraction *domain.ExtractionResult
	Generation *domain.GenerationResult
	Added      int
}

// ProcessOptions carries per-run overrides for ProcessPath.
type ProcessOptions struct {
	Language    string // target language; empty uses the configured default
	ContentType string // content-type hint; empty uses the configured default
}

// ProcessPath runs the full flow for one upload: extract the text at
// path, generate flashcards from it, and merge them into the session
// collection. The report carries both stage results so callers can
// surface warnings; the error reflects the first stage that failed
// outright.
func (p *Pipeline) ProcessPath(ctx context.Context, path string, opts ProcessOptions) (*Report, error) {
	report := &Report{}

	extraction, err := p.extractor.Extract(ctx, path)
	report.Extraction = extraction
	if err != nil {
		return report, fmt.Errorf("extraction failed: %w", err)
	}

	result, err := p.generator.Generate(ctx, generation.Request{
		Segments:    []string{extraction.TextContent},
		SourceFiles: extraction.SourceFiles,
		Language:    opts.Language,
		ContentType: opts.ContentType,
	})
	report.Generation = result
	if err != nil {
		return report, fmt.Errorf("generation failed: %w", err)
	}

	added, err := p.cards.AddAll(result.Flashcards)
	report.Added = added
	if err != nil {
		return report, fmt.Errorf("failed to store generated cards: %w", err)
	}

	p.logger.InfoContext(ctx, "Processed upload",
		slog.String("path", path),
		slog.Int("files", extraction.FileCount),
		slog.Int("cards", added))
	return report, nil
}

// Extract runs only the extraction stage.
func (p *Pipeline) Extract(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	return p.extractor.Extract(ctx, path)
}

// Generate runs only the generation stage, without touching the
// collection.
func (p *Pipeline) Generate(ctx context.Context, req generation.Request) (*domain.GenerationResult, error) {
	return p.generator.Generate(ctx, req)
}

// Collection returns the session's card collection.
func (p *Pipeline) Collection() *collection.Collection {
	return p.cards
}

// ExportFile writes the whole collection to a CSV file at path.
func (p *Pipeline) ExportFile(path string) (*export.Summary, error) {
	return p.exporter.ExportFile(path, p.cards.List())
}

// ExportTo streams the whole collection as CSV to w.
func (p *Pipeline) ExportTo(w io.Writer) (*export.Summary, error) {
	return p.exporter.Write(w, p.cards.List())
}
