// Package openai implements the llm.Client interface using OpenAI's chat
// completion API via the sashabaranov/go-openai SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deckfoundry/cardforge/internal/llm"
	"github.com/deckfoundry/cardforge/internal/redact"
	openai "github.com/sashabaranov/go-openai"
)

// Client implements the llm.Client interface using OpenAI's API.
type Client struct {
	logger *slog.Logger
	client *openai.Client
	model  string
}

// New creates an OpenAI-backed llm.Client for the given model.
func New(logger *slog.Logger, apiKey, model string) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", llm.ErrMissingCredential)
	}

	if model == "" {
		return nil, errors.New("model name cannot be empty")
	}

	return &Client{
		logger: logger.With("provider", "openai", "model", model),
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Name identifies the concrete model.
func (c *Client) Name() string {
	return c.model
}

// Complete sends a single prompt as a user message and returns the raw
// response text. Failures are classified into the llm sentinel errors.
func (c *Client) Complete(ctx context.Context, prompt string, cfg llm.CallConfig) (string, error) {
	if prompt == "" {
		return "", llm.ErrEmptyPrompt
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if cfg.Temperature > 0 {
		req.Temperature = cfg.Temperature
	}
	if cfg.MaxOutputTokens > 0 {
		req.MaxTokens = cfg.MaxOutputTokens
	}
	if cfg.ForceJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	c.logger.DebugContext(ctx, "Making OpenAI API call",
		"prompt_length", len(prompt))

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		classified := classifyErr(err)
		c.logger.ErrorContext(ctx, "OpenAI API call error",
			"error", redact.Error(err))
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", llm.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", fmt.Errorf("%w: content filter finish reason", llm.ErrBlocked)
	}

	if choice.Message.Content == "" {
		return "", fmt.Errorf("%w: empty message content", llm.ErrEmptyResponse)
	}

	c.logger.DebugContext(ctx, "OpenAI API call successful",
		"response_length", len(choice.Message.Content))

	return choice.Message.Content, nil
}

// classifyErr maps an OpenAI SDK error onto the llm sentinel errors.
// Unknown errors are assumed transient so the caller's retry loop gets a
// chance to recover from them. The SDK message is redacted before wrapping
// because it can echo the rejected API key.
func classifyErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return fmt.Errorf("%w: %s", llm.ErrAuth, redact.Error(err))
		case apiErr.HTTPStatusCode == 429:
			return fmt.Errorf("%w: rate limited: %s", llm.ErrTransient, redact.Error(err))
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %s", llm.ErrTransient, redact.Error(err))
		case apiErr.HTTPStatusCode == 400:
			return fmt.Errorf("%w: %s", llm.ErrBadRequest, redact.Error(err))
		}
	}
	return fmt.Errorf("%w: %s", llm.ErrTransient, redact.Error(err))
}
