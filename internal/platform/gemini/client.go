// Package gemini implements the llm.Client interface using Google's Gemini
// API via the google.golang.org/genai SDK.
//
// This package is an infrastructure adapter: it translates between the
// application's provider-neutral llm surface and the Gemini service,
// classifying SDK errors into the llm sentinel errors so callers can
// decide what to retry.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deckfoundry/cardforge/internal/llm"
	"github.com/deckfoundry/cardforge/internal/redact"
	"google.golang.org/genai"
)

// Client implements the llm.Client interface using Google's Gemini API.
type Client struct {
	// logger is used for structured logging
	logger *slog.Logger

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// New creates a Gemini-backed llm.Client for the given model.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - apiKey: The Gemini API key
//   - model: The model name, e.g. "gemini-2.0-flash"
//
// Returns:
//   - A properly initialized Client or an error if initialization fails
func New(ctx context.Context, logger *slog.Logger, apiKey, model string) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", llm.ErrMissingCredential)
	}

	if model == "" {
		return nil, errors.New("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		logger: logger.With("provider", "gemini", "model", model),
		client: client,
		model:  model,
	}, nil
}

// Name identifies the concrete model.
func (c *Client) Name() string {
	return c.model
}

// Complete sends a single prompt to the Gemini API and returns the raw
// response text. Failures are classified into the llm sentinel errors.
func (c *Client) Complete(ctx context.Context, prompt string, cfg llm.CallConfig) (string, error) {
	if prompt == "" {
		return "", llm.ErrEmptyPrompt
	}

	genCfg := &genai.GenerateContentConfig{}
	if cfg.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}
	if cfg.ForceJSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	c.logger.DebugContext(ctx, "Making Gemini API call",
		"prompt_length", len(prompt))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		classified := classifyErr(err)
		c.logger.ErrorContext(ctx, "Gemini API call error",
			"error", redact.Error(err))
		return "", classified
	}

	text, err := extractText(resp)
	if err != nil {
		c.logger.ErrorContext(ctx, "Gemini API returned no usable text",
			"error", err)
		return "", err
	}

	c.logger.DebugContext(ctx, "Gemini API call successful",
		"response_length", len(text))

	return text, nil
}

// extractText collects the text parts of the first response candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", llm.ErrEmptyResponse)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", llm.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: safety finish reason", llm.ErrBlocked)
	}

	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", llm.ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: candidate contains no text parts", llm.ErrEmptyResponse)
	}

	return sb.String(), nil
}

// classifyErr maps a Gemini SDK error onto the llm sentinel errors.
// Unknown errors are assumed transient so the caller's retry loop gets a
// chance to recover from them. The SDK message is redacted before wrapping
// because it can echo the request URL, which carries the API key.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return fmt.Errorf("%w: %s", llm.ErrAuth, redact.Error(err))
		case apiErr.Code == 429:
			return fmt.Errorf("%w: rate limited: %s", llm.ErrTransient, redact.Error(err))
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %s", llm.ErrTransient, redact.Error(err))
		case apiErr.Code == 400:
			return fmt.Errorf("%w: %s", llm.ErrBadRequest, redact.Error(err))
		}
	}
	return fmt.Errorf("%w: %s", llm.ErrTransient, redact.Error(err))
}
