package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when card generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate cards from text")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrEmptyInput is returned when generation is requested with no usable text
	ErrEmptyInput = errors.New("no text to generate cards from")

	// ErrUnsupportedLanguage is returned when the target language is not supported
	ErrUnsupportedLanguage = errors.New("unsupported target language")

	// ErrUnsupportedContentType is returned when the content-type hint is not supported
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrInvalidConfig is returned when the gateway configuration is invalid
	ErrInvalidConfig = errors.New("invalid generation configuration")
)
