// Package llm abstracts the generative-text service behind a single
// completion call. Two backends are supported: OpenRouter chat completions
// (default) and the Anthropic Messages API.
package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/leadmatch/leadmatch/internal/resilience"
	"github.com/leadmatch/leadmatch/pkg/anthropic"
	"github.com/leadmatch/leadmatch/pkg/openrouter"
)

// Request is a single completion request. System may be empty.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client issues one completion and returns the raw reply text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// openRouterClient adapts openrouter.Client to the Client interface.
type openRouterClient struct {
	api   openrouter.Client
	model string
}

// NewOpenRouter wraps an OpenRouter client. An empty model uses the client
// default.
func NewOpenRouter(api openrouter.Client, model string) Client {
	return &openRouterClient{api: api, model: model}
}

func (c *openRouterClient) Complete(ctx context.Context, req Request) (string, error) {
	var messages []openrouter.Message
	if req.System != "" {
		messages = append(messages, openrouter.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, openrouter.Message{Role: "user", Content: req.Prompt})

	retryCfg := resilience.DefaultConfig()
	retryCfg.OnRetry = resilience.RetryLogger("openrouter", "chat_completion")

	resp, err := resilience.Do(ctx, retryCfg, func(ctx context.Context) (*openrouter.ChatCompletionResponse, error) {
		return c.api.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: &req.Temperature,
			MaxTokens:   &req.MaxTokens,
		})
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("llm: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// anthropicClient adapts anthropic.Client to the Client interface.
type anthropicClient struct {
	api   anthropic.Client
	model string
}

// NewAnthropic wraps an Anthropic client with a fixed model.
func NewAnthropic(api anthropic.Client, model string) Client {
	return &anthropicClient{api: api, model: model}
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	retryCfg := resilience.DefaultConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "create_message")

	resp, err := resilience.Do(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.api.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       c.model,
			MaxTokens:   int64(req.MaxTokens),
			System:      req.System,
			Temperature: &req.Temperature,
			Messages: []anthropic.Message{
				{Role: "user", Content: req.Prompt},
			},
		})
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", eris.New("llm: empty completion response")
	}
	return text, nil
}

// CleanJSON strips markdown fences and extracts the outermost JSON value
// from a model reply. Replies frequently arrive wrapped in ```json fences or
// preceded by prose despite instructions to return bare JSON.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	text = strings.TrimSpace(text)

	// Keep the outermost object or array, whichever opens first.
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			text = text[arrStart : end+1]
		}
	} else if objStart >= 0 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			text = text[objStart : end+1]
		}
	}

	return strings.TrimSpace(text)
}
