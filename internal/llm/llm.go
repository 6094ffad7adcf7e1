package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultTimeout bounds a single completion round-trip.
const DefaultTimeout = 120 * time.Second

// Completer is the text-completion capability the tutoring pipeline needs.
// Implementations must return the raw model text; callers do their own
// parsing and repair.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Client wraps an OpenAI-compatible API (including Ollama's /v1 endpoint).
// It probes an alternate base path when the primary one returns 404, since
// local model servers disagree on whether the API lives under /v1.
type Client struct {
	apis    []*openai.Client
	model   string
	timeout time.Duration
}

// New creates a completion client for the given endpoint and model.
func New(baseURL, apiKey, modelName string) *Client {
	urls := []string{baseURL}
	if alt := alternateBaseURL(baseURL); alt != "" {
		urls = append(urls, alt)
	}

	apis := make([]*openai.Client, 0, len(urls))
	for _, u := range urls {
		config := openai.DefaultConfig(apiKey)
		if u != "" {
			config.BaseURL = u
		}
		apis = append(apis, openai.NewClientWithConfig(config))
	}

	return &Client{
		apis:    apis,
		model:   modelName,
		timeout: DefaultTimeout,
	}
}

// alternateBaseURL toggles the /v1 suffix on the endpoint path.
func alternateBaseURL(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	if trimmed == "" {
		return ""
	}
	if strings.HasSuffix(trimmed, "/v1") {
		return strings.TrimSuffix(trimmed, "/v1")
	}
	return trimmed + "/v1"
}

// Complete sends a single-turn prompt and returns the model's text. A
// transport-level 404 on the primary endpoint path triggers one probe of the
// alternate path; all other failures map to TimeoutError or TransportError.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error
	for i, api := range c.apis {
		resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: temperature,
		})
		if err != nil {
			lastErr = err
			if isNotFound(err) && i < len(c.apis)-1 {
				slog.Debug("completion endpoint not found, probing alternate path", "attempt", i+1)
				continue
			}
			return "", classify(err)
		}
		if len(resp.Choices) == 0 {
			return "", &TransportError{Err: errors.New("completion returned no choices")}
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", classify(lastErr)
}

// Ping verifies the endpoint is reachable and the model list is served.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.apis[0].ListModels(ctx)
	if err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 404
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 404
	}
	return false
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	return &TransportError{Err: err}
}
