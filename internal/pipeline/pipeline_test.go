package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckfoundry/cardforge/internal/collection"
	"github.com/deckfoundry/cardforge/internal/config"
	"github.com/deckfoundry/cardforge/internal/domain"
	"github.com/deckfoundry/cardforge/internal/export"
	"github.com/deckfoundry/cardforge/internal/extract"
	"github.com/deckfoundry/cardforge/internal/generation"
	"github.com/deckfoundry/cardforge/internal/llm"
)

// testConfig returns a config equivalent to the loader defaults,
// without touching the environment.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "info", SessionTTL: 30 * time.Minute},
		Extraction: config.ExtractionConfig{
			MaxFileMB:       20,
			MaxArchiveMB:    100,
			MaxArchiveFiles: 256,
		},
		Chunking: config.ChunkingConfig{MaxTokens: 2000, OverlapTokens: 50},
		Generation: config.GenerationConfig{
			Model:           "gemini-2.0-flash",
			Language:        "english",
			ContentType:     "general",
			Temperature:     0.7,
			MaxOutputTokens: 8192,
			MaxRetries:      3,
			RetryBaseDelay:  2 * time.Second,
			Concurrency:     2,
			ChunkTimeout:    120 * time.Second,
		},
	}
}

// fakeGenerator records the request it received and returns a canned
// result.
type fakeGenerator struct {
	lastReq generation.Request
	result  *domain.GenerationResult
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, req generation.Request) (*domain.GenerationResult, error) {
	f.lastReq = req
	if f.result == nil {
		f.result = &domain.GenerationResult{}
	}
	return f.result, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testPipeline(t *testing.T, gen generation.Generator) *Pipeline {
	t.Helper()
	return NewWithParts(
		discardLogger(),
		extract.New(discardLogger(), extract.Options{}),
		gen,
		collection.New(),
		export.New(discardLogger(), export.Options{}),
	)
}

func writeTextFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func generatedCards(t *testing.T, n int) []*domain.Flashcard {
	t.Helper()
	cards := make([]*domain.Flashcard, 0, n)
	for i := 0; i < n; i++ {
		card, err := domain.NewFlashcard("Question", "Answer", domain.CardTypeQA, "notes.txt")
		require.NoError(t, err)
		cards = append(cards, card)
	}
	return cards
}

func TestProcessPath(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{result: &domain.GenerationResult{
		Flashcards: generatedCards(t, 2),
		ChunkCount: 1,
	}}
	p := testPipeline(t, gen)

	path := writeTextFile(t, t.TempDir(), "notes.txt",
		"Photosynthesis converts light energy into chemical energy stored in glucose.")

	report, err := p.ProcessPath(context.Background(), path, ProcessOptions{Language: "german"})
	require.NoError(t, err)

	require.NotNil(t, report.Extraction)
	assert.Contains(t, report.Extraction.TextContent, "Photosynthesis")
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 2, p.Collection().Len())

	require.Len(t, gen.lastReq.Segments, 1)
	assert.Contains(t, gen.lastReq.Segments[0], "Photosynthesis")
	assert.Equal(t, []string{"notes.txt"}, gen.lastReq.SourceFiles)
	assert.Equal(t, "german", gen.lastReq.Language)
}

func TestProcessPathExtractionFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	p := testPipeline(t, gen)

	path := writeTextFile(t, t.TempDir(), "image.png", "not really an image")

	report, err := p.ProcessPath(context.Background(), path, ProcessOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction failed")

	require.NotNil(t, report.Extraction)
	assert.False(t, report.Extraction.Success())
	assert.Nil(t, report.Generation, "generation must not run when extraction fails")
	assert.Equal(t, 0, p.Collection().Len())
}

func TestProcessPathGenerationFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		result: &domain.GenerationResult{Errors: []string{"no cards generated"}},
		err:    generation.ErrGenerationFailed,
	}
	p := testPipeline(t, gen)

	path := writeTextFile(t, t.TempDir(), "notes.txt", "Some study material.")

	report, err := p.ProcessPath(context.Background(), path, ProcessOptions{})
	require.ErrorIs(t, err, generation.ErrGenerationFailed)

	require.NotNil(t, report.Generation)
	assert.Equal(t, 0, p.Collection().Len())
}

func TestExportFileRoundTrip(t *testing.T) {
	t.Parallel()

	p := testPipeline(t, &fakeGenerator{})
	card, err := domain.NewFlashcard("Q", "A", domain.CardTypeQA, "notes.txt")
	require.NoError(t, err)
	require.NoError(t, p.Collection().Add(card))

	path := filepath.Join(t.TempDir(), "cards.csv")
	summary, err := p.ExportFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Rows)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Q,A,qa,notes.txt")
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Providers.GeminiAPIKey = "gm-test"

	p, err := New(context.Background(), discardLogger(), cfg, "")
	require.NoError(t, err)
	assert.NotNil(t, p.Collection())
	assert.Equal(t, 0, p.Collection().Len())
}

func TestNewRejectsNilConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), discardLogger(), nil, "")
	assert.Error(t, err)
}

func TestNewModelClient(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Providers.GeminiAPIKey = "gm-test"
	cfg.Providers.OpenAIAPIKey = "sk-test"

	for _, spec := range llm.Registry() {
		client, err := NewModelClient(context.Background(), discardLogger(), spec.Name, cfg)
		require.NoError(t, err, "model %s should construct", spec.Name)
		assert.Equal(t, spec.Name, client.Name())
	}
}

func TestNewModelClientMissingCredential(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Providers.OpenAIAPIKey = "sk-test"

	_, err := NewModelClient(context.Background(), discardLogger(), "gemini-2.0-flash", cfg)
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
}

func TestNewModelClientUnknownModel(t *testing.T) {
	t.Parallel()

	_, err := NewModelClient(context.Background(), discardLogger(), "gpt-99-ultra", testConfig())
	assert.ErrorIs(t, err, llm.ErrUnknownModel)
}
