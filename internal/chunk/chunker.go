// Package chunk splits extracted text into model-sized pieces. Budgets are
// expressed in estimated tokens, boundaries prefer natural breaks over hard
// cuts, and consecutive chunks share a configurable overlap so context is
// not lost at the seams.
package chunk

import (
	"errors"
	"iter"
	"strings"
	"unicode/utf8"
)

// bytesPerToken is the estimation ratio used throughout the package.
// Model tokenizers average out near four bytes of English text per token.
const bytesPerToken = 4

// lookbackPercent bounds how far back from the byte limit a natural
// boundary may be, as a percentage of the chunk budget.
const lookbackPercent = 15

// separators in descending order of preference. A cut lands just after
// the separator, so paragraph breaks beat line breaks beat sentence ends
// beat plain spaces.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Errors returned by NewSplitter.
var (
	// ErrInvalidBudget is returned when the token budget is not positive.
	ErrInvalidBudget = errors.New("chunk token budget must be positive")

	// ErrInvalidOverlap is returned when the overlap is negative or does
	// not fit inside the budget.
	ErrInvalidOverlap = errors.New("chunk overlap must be non-negative and smaller than the budget")
)

// EstimateTokens approximates the token count of text. The estimate is
// deliberately simple and errs high for dense scripts, which keeps chunks
// safely inside model context windows.
func EstimateTokens(text string) int {
	return (len(text) + bytesPerToken - 1) / bytesPerToken
}

// Options configures a Splitter.
type Options struct {
	// MaxTokens is the estimated-token budget per chunk.
	MaxTokens int

	// OverlapTokens is how much of a chunk's tail is repeated at the
	// start of the next chunk.
	OverlapTokens int
}

// Chunk is one piece of a split text.
type Chunk struct {
	// Index is the zero-based position of the chunk in the sequence.
	Index int

	// Text is the chunk content, including any overlap from the
	// previous chunk.
	Text string

	// Overlap is the number of leading bytes of Text that repeat the
	// tail of the previous chunk. It is zero for the first chunk, so the
	// original text is Text[Overlap:] of every chunk concatenated in order.
	Overlap int

	// Tokens is the estimated token count of Text.
	Tokens int
}

// Splitter slices text into token-budgeted chunks.
type Splitter struct {
	maxBytes     int
	overlapBytes int
	lookback     int
}

// NewSplitter validates the options and returns a ready Splitter.
func NewSplitter(opts Options) (*Splitter, error) {
	if opts.MaxTokens <= 0 {
		return nil, ErrInvalidBudget
	}
	if opts.OverlapTokens < 0 || opts.OverlapTokens >= opts.MaxTokens {
		return nil, ErrInvalidOverlap
	}

	maxBytes := opts.MaxTokens * bytesPerToken
	lookback := maxBytes * lookbackPercent / 100
	if lookback < 1 {
		lookback = maxBytes
	}

	return &Splitter{
		maxBytes:     maxBytes,
		overlapBytes: opts.OverlapTokens * bytesPerToken,
		lookback:     lookback,
	}, nil
}

// Split returns a lazy sequence over the chunks of text. The sequence can
// be ranged over more than once; each iteration restarts from the first
// chunk. Empty text yields no chunks.
func (s *Splitter) Split(text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if len(text) == 0 {
			return
		}

		start := 0
		overlap := 0
		index := 0
		for {
			if len(text)-start <= s.maxBytes {
				piece := text[start:]
				yield(Chunk{Index: index, Text: piece, Overlap: overlap, Tokens: EstimateTokens(piece)})
				return
			}

			end := s.cutPoint(text, start)
			piece := text[start:end]
			if !yield(Chunk{Index: index, Text: piece, Overlap: overlap, Tokens: EstimateTokens(piece)}) {
				return
			}

			next := end - s.overlapBytes
			if next <= start {
				// Overlap would swallow the whole chunk; continue
				// without one rather than stall.
				next = end
			}
			for next < len(text) && !utf8.RuneStart(text[next]) {
				next++
			}

			overlap = end - next
			start = next
			index++
		}
	}
}

// cutPoint finds where the chunk starting at start should end. It scans
// the tail of the budget window for the best separator and falls back to
// a hard cut on a rune boundary.
func (s *Splitter) cutPoint(text string, start int) int {
	limit := start + s.maxBytes

	windowStart := limit - s.lookback
	if windowStart < start {
		windowStart = start
	}
	window := text[windowStart:limit]

	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return windowStart + i + len(sep)
		}
	}

	end := limit
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
