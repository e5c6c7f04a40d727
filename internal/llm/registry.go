package llm

import (
	"fmt"
	"strings"
)

// Provider identifies a model vendor.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// DefaultModel is used when neither the invocation nor the configuration
// names a model.
const DefaultModel = "gemini-2.0-flash"

// ModelSpec describes one selectable model.
type ModelSpec struct {
	Name        string
	Provider    Provider
	Description string
}

// catalog lists the supported models in display order.
var catalog = []ModelSpec{
	{Name: "gemini-2.0-flash", Provider: ProviderGemini, Description: "fast Gemini model, the default"},
	{Name: "gemini-2.5-flash", Provider: ProviderGemini, Description: "newer Gemini model with stronger reasoning"},
	{Name: "gpt-4o", Provider: ProviderOpenAI, Description: "OpenAI flagship model"},
	{Name: "gpt-4o-mini", Provider: ProviderOpenAI, Description: "smaller, cheaper OpenAI model"},
}

// Registry returns the built-in model catalog in display order.
func Registry() []ModelSpec {
	out := make([]ModelSpec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup resolves a model name against the catalog. Matching is
// case-insensitive, ignores surrounding whitespace, and accepts the
// provider-qualified form, e.g. "gemini/gemini-2.0-flash". The error for
// an unknown name lists every supported model so the caller can show an
// actionable message.
func Lookup(name string) (ModelSpec, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, spec := range catalog {
		if needle == spec.Name || needle == string(spec.Provider)+"/"+spec.Name {
			return spec, nil
		}
	}

	names := make([]string, len(catalog))
	for i, spec := range catalog {
		names[i] = spec.Name
	}
	return ModelSpec{}, fmt.Errorf("%w: %q (supported models: %s)",
		ErrUnknownModel, name, strings.Join(names, ", "))
}

// Credentials holds the provider API keys known to the process.
type Credentials struct {
	GeminiAPIKey string
	OpenAIAPIKey string
}

// For returns the API key for the given provider, or ErrMissingCredential
// naming the environment variable that would supply it.
func (c Credentials) For(p Provider) (string, error) {
	switch p {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return "", fmt.Errorf("%w: set GEMINI_API_KEY to use %s models", ErrMissingCredential, p)
		}
		return c.GeminiAPIKey, nil
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "", fmt.Errorf("%w: set OPENAI_API_KEY to use %s models", ErrMissingCredential, p)
		}
		return c.OpenAIAPIKey, nil
	default:
		return "", fmt.Errorf("%w: no credential source for provider %q", ErrUnknownModel, p)
	}
}

// Resolve picks the model for an invocation: the explicit name when given,
// the configured name otherwise, falling back to DefaultModel. It verifies
// that a credential for the model's provider is present and returns it
// alongside the matched ModelSpec.
func Resolve(explicit, configured string, creds Credentials) (ModelSpec, string, error) {
	name := strings.TrimSpace(explicit)
	if name == "" {
		name = strings.TrimSpace(configured)
	}
	if name == "" {
		name = DefaultModel
	}

	spec, err := Lookup(name)
	if err != nil {
		return ModelSpec{}, "", err
	}

	key, err := creds.For(spec.Provider)
	if err != nil {
		return ModelSpec{}, "", err
	}

	return spec, key, nil
}
