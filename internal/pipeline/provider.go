package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deckfoundry/cardforge/internal/config"
	"github.com/deckfoundry/cardforge/internal/llm"
	"github.com/deckfoundry/cardforge/internal/platform/gemini"
	"github.com/deckfoundry/cardforge/internal/platform/openai"
)

// NewModelClient resolves a model name against the catalog and
// constructs the provider client for it. An empty explicit model falls
// back to the configured model, then to the catalog default. The
// returned client is ready to use; no network call happens here.
func NewModelClient(ctx context.Context, logger *slog.Logger, explicit string, cfg *config.Config) (llm.Client, error) {
	creds := llm.Credentials{
		GeminiAPIKey: cfg.Providers.GeminiAPIKey,
		OpenAIAPIKey: cfg.Providers.OpenAIAPIKey,
	}

	spec, key, err := llm.Resolve(explicit, cfg.Generation.Model, creds)
	if err != nil {
		return nil, err
	}

	switch spec.Provider {
	case llm.ProviderGemini:
		return gemini.New(ctx, logger, key, spec.Name)
	case llm.ProviderOpenAI:
		return openai.New(logger, key, spec.Name)
	default:
		return nil, fmt.Errorf("%w: no client for provider %q", llm.ErrUnknownModel, spec.Provider)
	}
}
