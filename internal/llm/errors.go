package llm

import "errors"

// Common errors returned by model providers and the model catalog.
var (
	// ErrUnknownModel is returned when a model name matches no catalog entry.
	ErrUnknownModel = errors.New("unknown model")

	// ErrMissingCredential is returned when the selected model's provider
	// has no API key configured.
	ErrMissingCredential = errors.New("missing provider API key")

	// ErrEmptyPrompt is returned when a completion is requested with an empty prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrAuth is returned when the provider rejects the configured credentials.
	ErrAuth = errors.New("provider rejected credentials")

	// ErrBadRequest is returned when the provider rejects the request as malformed.
	ErrBadRequest = errors.New("provider rejected request")

	// ErrBlocked is returned when the provider refuses to answer due to safety filters.
	ErrBlocked = errors.New("content blocked by provider safety filters")

	// ErrEmptyResponse is returned when the provider answers with no usable text.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrTransient is returned for temporary provider failures that might resolve on retry.
	ErrTransient = errors.New("transient provider error")
)
