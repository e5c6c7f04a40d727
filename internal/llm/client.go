package llm

import "context"

// CallConfig carries per-call generation settings.
type CallConfig struct {
	// Temperature controls sampling randomness; zero means provider default.
	Temperature float32

	// MaxOutputTokens caps the response length; zero means provider default.
	MaxOutputTokens int

	// ForceJSON asks the provider for a JSON-only response where supported.
	ForceJSON bool
}

// Client is the boundary between the application core and an external
// language model service. Implementations classify provider failures into
// this package's sentinel errors so callers can decide what to retry.
type Client interface {
	// Complete sends a single prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string, cfg CallConfig) (string, error)

	// Name identifies the concrete model, e.g. "gemini-2.0-flash".
	Name() string
}
