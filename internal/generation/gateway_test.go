package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckfoundry/cardforge/internal/chunk"
	"github.com/deckfoundry/cardforge/internal/llm"
)

// scriptedClient replays canned responses in call order and records
// every prompt it receives. When the script runs out, the last step
// repeats.
type scriptedClient struct {
	mu      sync.Mutex
	script  []scriptStep
	prompts []string
}

type scriptStep struct {
	response string
	err      error
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string, _ llm.CallConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrTransient, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)

	i := len(c.prompts) - 1
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	step := c.script[i]
	return step.response, step.err
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func (c *scriptedClient) prompt(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompts[i]
}

// blockingClient waits for the context to end, simulating a provider
// call that never returns in time.
type blockingClient struct{}

func (blockingClient) Complete(ctx context.Context, _ string, _ llm.CallConfig) (string, error) {
	<-ctx.Done()
	return "", fmt.Errorf("%w: %v", llm.ErrTransient, ctx.Err())
}

func (blockingClient) Name() string { return "blocking" }

func testGateway(t *testing.T, client llm.Client, cfg Config) *Gateway {
	t.Helper()

	splitter, err := chunk.NewSplitter(chunk.Options{MaxTokens: 2000, OverlapTokens: 50})
	require.NoError(t, err)

	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Millisecond
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}

	gw, err := NewGateway(slog.New(slog.DiscardHandler), client, splitter, cfg)
	require.NoError(t, err)
	return gw
}

const englishPayload = `{"cards":[{"question":"What is the capital of France?","answer":"The capital is Paris and it is the largest city of the country.","type":"qa"}]}`

const germanPayload = `{"cards":[{"question":"Was ist die Hauptstadt von Frankreich?","answer":"Die Hauptstadt ist Paris und sie ist die größte Stadt des Landes.","type":"qa"}]}`

const mixedPayload = `{"cards":[` +
	`{"question":"Was ist die Hauptstadt von Frankreich?","answer":"Die Hauptstadt ist Paris und sie ist die größte Stadt des Landes.","type":"qa"},` +
	`{"question":"What is the capital of France?","answer":"The capital is Paris and it is the largest city of the country.","type":"qa"}]}`

func TestNewGatewayValidation(t *testing.T) {
	t.Parallel()

	splitter, err := chunk.NewSplitter(chunk.Options{MaxTokens: 100})
	require.NoError(t, err)
	logger := slog.New(slog.DiscardHandler)

	_, err = NewGateway(logger, nil, splitter, Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewGateway(logger, &scriptedClient{}, nil, Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewGateway(logger, &scriptedClient{}, splitter, Config{Language: "klingon"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewGateway(logger, &scriptedClient{}, splitter, Config{ContentType: "poetry"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGenerateSingleChunk(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{{response: englishPayload}}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"France is a country in Western Europe. Its capital city is Paris."},
		SourceFiles: []string{"notes.txt"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success())
	require.Len(t, result.Flashcards, 1)
	assert.Equal(t, "notes.txt", result.Flashcards[0].SourceFile)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, 1, client.calls())
	assert.Positive(t, result.ProcessingTime)
}

func TestGenerateRetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{err: fmt.Errorf("%w: request timed out", llm.ErrTransient)},
		{err: fmt.Errorf("%w: request timed out", llm.ErrTransient)},
		{response: englishPayload},
	}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish, MaxRetries: 3})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Paris is the capital of France."},
		SourceFiles: []string{"notes.txt"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Len(t, result.Flashcards, 1)
	assert.Equal(t, 3, client.calls(), "two failures then success should mean exactly three calls")
}

func TestGenerateRetriesExhausted(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{err: fmt.Errorf("%w: server overloaded", llm.ErrTransient)},
	}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish, MaxRetries: 2})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Some study text."},
		SourceFiles: []string{"notes.txt"},
	})
	require.ErrorIs(t, err, ErrGenerationFailed)

	assert.False(t, result.Success())
	assert.Empty(t, result.Flashcards)
	assert.Equal(t, 3, client.calls(), "initial call plus two retries")
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "retries exhausted")
}

func TestGenerateFatalProviderError(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{err: fmt.Errorf("%w: model rejected the request", llm.ErrBadRequest)},
	}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Some study text."},
		SourceFiles: []string{"notes.txt"},
	})
	require.ErrorIs(t, err, ErrGenerationFailed)

	assert.Empty(t, result.Flashcards)
	assert.Equal(t, 1, client.calls(), "permanent errors should not be retried")
}

func TestGenerateAuthFailureIsRunLevel(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{err: fmt.Errorf("%w: status 401", llm.ErrAuth)},
	}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Some study text."},
		SourceFiles: []string{"notes.txt"},
	})
	require.ErrorIs(t, err, ErrGenerationFailed)

	assert.False(t, result.Success())
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "401")
	assert.Equal(t, 1, client.calls())
}

func TestGenerateReinforcedRetryAfterUnparseableResponse(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{response: "Sure! Here are your flashcards: question one..."},
		{response: englishPayload},
	}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Paris is the capital of France."},
		SourceFiles: []string{"notes.txt"},
	})
	require.NoError(t, err)

	assert.Len(t, result.Flashcards, 1)
	assert.Equal(t, 2, client.calls())
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "reinforced prompt")
	assert.NotContains(t, client.prompt(0), "no markdown fences")
	assert.Contains(t, client.prompt(1), "no markdown fences",
		"second attempt should carry the reinforced JSON-only wording")
}

func TestGenerateUnparseableTwiceIsFatal(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{response: "still not json"},
	}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Some study text."},
		SourceFiles: []string{"notes.txt"},
	})
	require.ErrorIs(t, err, ErrGenerationFailed)

	assert.Empty(t, result.Flashcards)
	assert.Equal(t, 2, client.calls(), "exactly one reinforced retry for unparseable responses")
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "invalid response")
}

func TestGenerateRegeneratesOnLanguageMismatch(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{response: englishPayload},
		{response: germanPayload},
	}}
	gw := testGateway(t, client, Config{Language: LanguageGerman, LanguageRetries: 2})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Paris ist die Hauptstadt von Frankreich."},
		SourceFiles: []string{"notizen.txt"},
	})
	require.NoError(t, err)

	require.Len(t, result.Flashcards, 1)
	assert.Contains(t, result.Flashcards[0].Question, "Hauptstadt")
	assert.Equal(t, 2, client.calls())
	assert.Contains(t, client.prompt(1), "IMPORTANT:",
		"regeneration should escalate the language emphasis")
}

func TestGenerateLanguagePartialAccept(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{response: mixedPayload},
	}}
	gw := testGateway(t, client, Config{Language: LanguageGerman, LanguageRetries: 2})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Paris ist die Hauptstadt von Frankreich."},
		SourceFiles: []string{"notizen.txt"},
	})
	require.NoError(t, err)

	require.Len(t, result.Flashcards, 1, "only the German card should survive")
	assert.Contains(t, result.Flashcards[0].Question, "Hauptstadt")
	assert.Equal(t, 3, client.calls(), "initial call plus two regeneration rounds")
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "dropped 1 cards not in German")
}

func TestGenerateLanguageAllRejected(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{
		{response: englishPayload},
	}}
	gw := testGateway(t, client, Config{Language: LanguageGerman, LanguageRetries: 1})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Paris ist die Hauptstadt von Frankreich."},
		SourceFiles: []string{"notizen.txt"},
	})
	require.NoError(t, err, "an empty chunk result is degraded, not failed")

	assert.True(t, result.Success())
	assert.Empty(t, result.Flashcards)
	assert.Equal(t, 2, client.calls())
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "no cards in German")
}

func TestGenerateEmptyRequest(t *testing.T) {
	t.Parallel()

	gw := testGateway(t, &scriptedClient{}, Config{})

	for _, segments := range [][]string{nil, {}, {"   ", "\n"}} {
		result, err := gw.Generate(context.Background(), Request{Segments: segments})
		require.ErrorIs(t, err, ErrEmptyInput)
		assert.False(t, result.Success())
		assert.Zero(t, result.ChunkCount)
	}
}

func TestGenerateRejectsUnknownRequestLanguage(t *testing.T) {
	t.Parallel()

	gw := testGateway(t, &scriptedClient{}, Config{})

	result, err := gw.Generate(context.Background(), Request{
		Segments: []string{"Some text."},
		Language: "klingon",
	})
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.False(t, result.Success())
}

func TestGenerateCancelledContext(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{{response: englishPayload}}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := gw.Generate(ctx, Request{
		Segments:    []string{"Some study text."},
		SourceFiles: []string{"notes.txt"},
	})
	require.NoError(t, err, "cancellation degrades the run instead of failing it")

	assert.Empty(t, result.Flashcards)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "cancelled")
}

func TestGenerateChunkTimeout(t *testing.T) {
	t.Parallel()

	gw := testGateway(t, blockingClient{}, Config{
		Language:     LanguageEnglish,
		ChunkTimeout: 20 * time.Millisecond,
	})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"Some study text."},
		SourceFiles: []string{"notes.txt"},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Flashcards)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "timed out")
}

func TestGenerateMultipleSegmentsKeepOwnSources(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{script: []scriptStep{{response: englishPayload}}}
	gw := testGateway(t, client, Config{Language: LanguageEnglish, Concurrency: 2})

	result, err := gw.Generate(context.Background(), Request{
		Segments:    []string{"First document text.", "Second document text."},
		SourceFiles: []string{"a.txt", "b.txt"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ChunkCount)
	require.Len(t, result.Flashcards, 2)
	assert.Equal(t, "a.txt", result.Flashcards[0].SourceFile)
	assert.Equal(t, "b.txt", result.Flashcards[1].SourceFile)
}

func TestSourceLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    []string
		segIndex int
		segCount int
		want     string
	}{
		{name: "one file per segment", files: []string{"a.txt", "b.txt"}, segIndex: 1, segCount: 2, want: "b.txt"},
		{name: "single file many segments", files: []string{"a.txt"}, segIndex: 2, segCount: 3, want: "a.txt"},
		{name: "no files", files: nil, segIndex: 0, segCount: 1, want: ""},
		{name: "mismatched counts", files: []string{"a.txt", "b.txt"}, segIndex: 0, segCount: 3, want: "a.txt; b.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, sourceLabel(tt.files, tt.segIndex, tt.segCount))
		})
	}
}
