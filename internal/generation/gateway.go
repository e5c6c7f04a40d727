package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/deckfoundry/cardforge/internal/chunk"
	"github.com/deckfoundry/cardforge/internal/domain"
	"github.com/deckfoundry/cardforge/internal/llm"
)

// Defaults applied by NewGateway for zero-valued Config fields.
const (
	defaultMaxRetries      = 3
	defaultRetryBaseDelay  = 2 * time.Second
	defaultLanguageRetries = 2
	defaultConcurrency     = 2
	defaultChunkTimeout    = 120 * time.Second
	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 8192
)

// Config carries the tunables for a Gateway. Zero values select the
// package defaults, so a zero Config is usable.
type Config struct {
	Language        string        // default target language for generated cards
	ContentType     string        // default content-type hint for prompts
	MaxRetries      int           // transient-failure retries per chunk
	RetryBaseDelay  time.Duration // base delay for exponential backoff
	LanguageRetries int           // regeneration rounds after a failed language check
	Concurrency     int           // chunks processed in parallel
	ChunkTimeout    time.Duration // wall-clock limit per chunk
	Temperature     float32       // sampling temperature passed to the provider
	MaxOutputTokens int           // response size cap passed to the provider
}

// Request describes one generation run over already-extracted text.
type Request struct {
	Segments    []string // extracted text, one entry per source unit
	SourceFiles []string // display names used for card attribution
	Language    string   // target language; empty uses the gateway default
	ContentType string   // content-type hint; empty uses the gateway default
}

// Gateway coordinates chunked flashcard generation against one
// provider client.
type Gateway struct {
	logger   *slog.Logger
	client   llm.Client
	splitter *chunk.Splitter
	cfg      Config
}

// NewGateway creates a Gateway. The logger may be nil, in which case
// the default logger is used. Client and splitter are required, and the
// configured language and content type must be supported.
func NewGateway(logger *slog.Logger, client llm.Client, splitter *chunk.Splitter, cfg Config) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		return nil, fmt.Errorf("%w: client cannot be nil", ErrInvalidConfig)
	}
	if splitter == nil {
		return nil, fmt.Errorf("%w: splitter cannot be nil", ErrInvalidConfig)
	}

	language, err := NormalizeLanguage(defaultString(cfg.Language, LanguageEnglish))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Language = language

	contentType, err := NormalizeContentType(cfg.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ContentType = contentType

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	if cfg.LanguageRetries <= 0 {
		cfg.LanguageRetries = defaultLanguageRetries
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = defaultChunkTimeout
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}

	return &Gateway{
		logger:   logger.With(slog.String("component", "generation"), slog.String("model", client.Name())),
		client:   client,
		splitter: splitter,
		cfg:      cfg,
	}, nil
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Generate splits the request's segments into chunks, generates cards
// for every chunk, and returns the merged result. The returned result
// is non-nil even on error. Failed chunks surface as warnings; the
// error return is reserved for invalid requests and runs that produce
// no cards at all.
func (g *Gateway) Generate(ctx context.Context, req Request) (*domain.GenerationResult, error) {
	start := time.Now()
	result := &domain.GenerationResult{SourceFiles: slices.Clone(req.SourceFiles)}

	language := g.cfg.Language
	if strings.TrimSpace(req.Language) != "" {
		lang, err := NormalizeLanguage(req.Language)
		if err != nil {
			return failResult(result, start, err)
		}
		language = lang
	}

	contentType := g.cfg.ContentType
	if strings.TrimSpace(req.ContentType) != "" {
		ct, err := NormalizeContentType(req.ContentType)
		if err != nil {
			return failResult(result, start, err)
		}
		contentType = ct
	}

	jobs := g.splitJobs(req)
	if len(jobs) == 0 {
		return failResult(result, start, fmt.Errorf("%w: all segments are empty", ErrEmptyInput))
	}
	result.ChunkCount = len(jobs)

	g.logger.InfoContext(ctx, "Generating flashcards",
		slog.Int("segments", len(req.Segments)),
		slog.Int("chunks", len(jobs)),
		slog.String("language", language),
		slog.String("content_type", contentType))

	outcomes := g.processAll(ctx, jobs, language, contentType)

	var authErr error
	failed := 0
	for _, out := range outcomes {
		result.Flashcards = append(result.Flashcards, out.cards...)
		result.Warnings = append(result.Warnings, out.warnings...)
		if out.err != nil {
			failed++
			result.Warnings = append(result.Warnings, out.err.Error())
			if authErr == nil && errors.Is(out.err, llm.ErrAuth) {
				authErr = out.err
			}
		}
	}
	result.ProcessingTime = time.Since(start)

	g.logger.InfoContext(ctx, "Generation run finished",
		slog.Int("chunks", len(jobs)),
		slog.Int("failed_chunks", failed),
		slog.Int("cards", len(result.Flashcards)),
		slog.Duration("elapsed", result.ProcessingTime))

	if authErr != nil {
		// Credentials are shared by every chunk, so an auth failure is a
		// run-level failure even when earlier chunks completed.
		result.Errors = append(result.Errors, authErr.Error())
		return result, fmt.Errorf("%w: %v", ErrGenerationFailed, authErr)
	}
	if len(result.Flashcards) == 0 && failed > 0 {
		err := fmt.Errorf("%w: no cards generated (%d of %d chunks failed)",
			ErrGenerationFailed, failed, len(jobs))
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}
	return result, nil
}

func failResult(result *domain.GenerationResult, start time.Time, err error) (*domain.GenerationResult, error) {
	result.Errors = append(result.Errors, err.Error())
	result.ProcessingTime = time.Since(start)
	return result, err
}

// job is one chunk of text queued for generation.
type job struct {
	index      int
	text       string
	sourceFile string
}

func (g *Gateway) splitJobs(req Request) []job {
	var jobs []job
	for si, seg := range req.Segments {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		label := sourceLabel(req.SourceFiles, si, len(req.Segments))
		for c := range g.splitter.Split(seg) {
			jobs = append(jobs, job{index: len(jobs), text: c.Text, sourceFile: label})
		}
	}
	return jobs
}

// sourceLabel picks the attribution label for cards generated from the
// given segment. Segments and source files line up one-to-one when the
// caller extracted them together; otherwise the label degrades to the
// whole file list.
func sourceLabel(files []string, segIndex, segCount int) string {
	switch {
	case len(files) == segCount && segIndex < len(files):
		return files[segIndex]
	case len(files) == 1:
		return files[0]
	case len(files) == 0:
		return ""
	default:
		return strings.Join(files, "; ")
	}
}

// processAll fans the jobs out over a bounded worker pool and returns
// one outcome per job, in job order. An authentication failure cancels
// the remaining chunks since they would all fail the same way.
func (g *Gateway) processAll(ctx context.Context, jobs []job, language, contentType string) []chunkOutcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]chunkOutcome, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for range min(g.cfg.Concurrency, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				out := g.processChunk(ctx, jobs[i], language, contentType)
				if out.err != nil && errors.Is(out.err, llm.ErrAuth) {
					cancel()
				}
				outcomes[i] = out
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return outcomes
}

// chunkState names a position in the per-chunk processing state machine.
type chunkState int

const (
	statePending chunkState = iota
	stateCalling
	stateParsed
	stateLanguageCheck
	stateRegenerate
	stateTransientFailure
	stateAccepted
	statePartialAccept
	stateFatalFailure
)

// chunkOutcome is the terminal result of processing one chunk. A nil
// err with no cards is valid: the chunk completed but produced nothing
// usable, and warnings say why.
type chunkOutcome struct {
	cards    []*domain.Flashcard
	warnings []string
	err      error
}

// processChunk drives one chunk through the generation state machine:
//
//	PENDING -> CALLING -> PARSED -> LANGUAGE_CHECK -> ACCEPTED
//	CALLING -> TRANSIENT_FAILURE -> CALLING            (bounded retries)
//	CALLING -> FATAL_FAILURE                           (permanent errors)
//	LANGUAGE_CHECK -> REGENERATE -> CALLING            (bounded rounds)
//	LANGUAGE_CHECK -> PARTIAL_ACCEPT                   (rounds exhausted)
//
// An unparseable response earns exactly one extra call with reinforced
// JSON-only wording before it becomes fatal. Cancellation and the
// per-chunk timeout end the chunk with a warning, not an error.
func (g *Gateway) processChunk(parent context.Context, j job, language, contentType string) chunkOutcome {
	ctx, cancel := context.WithTimeout(parent, g.cfg.ChunkTimeout)
	defer cancel()

	logger := g.logger.With(slog.Int("chunk", j.index))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var (
		state     = statePending
		attempt   int // transient retries used
		langRound int // regeneration rounds used
		strict    bool
		emphasize bool
		records   []cardPayload
		out       chunkOutcome
	)

	for {
		switch state {
		case statePending:
			state = stateCalling

		case stateCalling:
			prompt, err := buildPrompt(j.text, promptOptions{
				language:          language,
				contentType:       contentType,
				emphasizeLanguage: emphasize,
				strictJSON:        strict,
			})
			if err != nil {
				out.err = fmt.Errorf("chunk %d: %w", j.index, err)
				state = stateFatalFailure
				continue
			}

			logger.DebugContext(ctx, "Calling model",
				slog.Int("attempt", attempt),
				slog.Bool("strict_json", strict),
				slog.Bool("emphasize_language", emphasize))

			raw, err := g.client.Complete(ctx, prompt, llm.CallConfig{
				Temperature:     g.cfg.Temperature,
				MaxOutputTokens: g.cfg.MaxOutputTokens,
				ForceJSON:       true,
			})
			if err != nil {
				if ctx.Err() != nil {
					return g.interrupted(parent, j.index, out)
				}
				if errors.Is(err, llm.ErrTransient) {
					state = stateTransientFailure
					continue
				}
				out.err = fmt.Errorf("chunk %d: %w", j.index, err)
				state = stateFatalFailure
				continue
			}

			parsed, err := parsePayload(raw)
			if err != nil {
				if !strict {
					strict = true
					logger.WarnContext(ctx, "Unparseable response, retrying with reinforced prompt")
					out.warnings = append(out.warnings,
						fmt.Sprintf("chunk %d: unparseable response, retried with reinforced prompt", j.index))
					state = stateCalling
					continue
				}
				out.err = fmt.Errorf("chunk %d: %w", j.index, err)
				state = stateFatalFailure
				continue
			}
			records = parsed
			state = stateParsed

		case stateParsed:
			state = stateLanguageCheck

		case stateLanguageCheck:
			keep, reject := lo.FilterReject(records, func(rec cardPayload, _ int) bool {
				return matchesLanguage(rec.Question+" "+rec.Answer, language)
			})
			if len(reject) == 0 {
				state = stateAccepted
				continue
			}
			if langRound < g.cfg.LanguageRetries {
				langRound++
				emphasize = true
				logger.WarnContext(ctx, "Language check failed, regenerating",
					slog.Int("rejected", len(reject)),
					slog.Int("round", langRound))
				state = stateRegenerate
				continue
			}
			if len(keep) > 0 {
				out.warnings = append(out.warnings,
					fmt.Sprintf("chunk %d: dropped %d cards not in %s after %d regeneration rounds",
						j.index, len(reject), languageNames[language], langRound))
				records = keep
			} else {
				out.warnings = append(out.warnings,
					fmt.Sprintf("chunk %d: no cards in %s after %d regeneration rounds",
						j.index, languageNames[language], langRound))
				records = nil
			}
			state = statePartialAccept

		case stateRegenerate:
			state = stateCalling

		case stateTransientFailure:
			if attempt >= g.cfg.MaxRetries {
				out.err = fmt.Errorf("chunk %d: %w: retries exhausted after %d attempts",
					j.index, ErrGenerationFailed, attempt)
				state = stateFatalFailure
				continue
			}
			if err := g.backoff(ctx, attempt, rng); err != nil {
				return g.interrupted(parent, j.index, out)
			}
			attempt++
			state = stateCalling

		case stateAccepted, statePartialAccept:
			cards, warns := assembleCards(records, j.sourceFile)
			out.cards = cards
			out.warnings = append(out.warnings, warns...)
			logger.DebugContext(ctx, "Chunk finished",
				slog.Int("cards", len(cards)),
				slog.Int("dropped", len(warns)))
			return out

		case stateFatalFailure:
			logger.WarnContext(ctx, "Chunk failed", slog.String("error", out.err.Error()))
			return out
		}
	}
}

// interrupted finalizes a chunk cut short by cancellation or by the
// per-chunk timeout. Either way the chunk yields a warning rather than
// an error so sibling chunks still count.
func (g *Gateway) interrupted(parent context.Context, index int, out chunkOutcome) chunkOutcome {
	out.cards = nil
	if parent.Err() != nil {
		out.warnings = append(out.warnings, fmt.Sprintf("chunk %d cancelled before completion", index))
	} else {
		out.warnings = append(out.warnings, fmt.Sprintf("chunk %d timed out after %s", index, g.cfg.ChunkTimeout))
	}
	return out
}

// backoff waits between transient-failure retries using exponential
// backoff with jitter, returning early if the context is done.
func (g *Gateway) backoff(ctx context.Context, attempt int, rng *rand.Rand) error {
	backoff := float64(g.cfg.RetryBaseDelay) * math.Pow(2, float64(attempt))
	jitter := 0.5 + rng.Float64()*0.5
	delay := time.Duration(backoff * jitter)

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
