// Package ollama completes prompts with a local chat model served by Ollama
package ollama

import (
	"context"
	"strings"
	"time"

	embedollama "contractlens/internal/adapters/embed/ollama"
	"contractlens/internal/core/analyze"
	perr "contractlens/internal/platform/errors"

	"github.com/ollama/ollama/api"
)

const defaultModel = "llama3.1"

// Config configures the client. An empty Host uses OLLAMA_HOST or the Ollama default
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// Client implements analyze.Completer
type Client struct {
	api   *api.Client
	model string
}

var _ analyze.Completer = (*Client)(nil)

// New returns a client for cfg
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	ac, err := embedollama.NewAPIClient(cfg.Host, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{api: ac, model: cfg.Model}, nil
}

// Model is the configured model name
func (c *Client) Model() string { return c.model }

// Complete runs one non-streaming chat turn
func (c *Client) Complete(ctx context.Context, r analyze.Request) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: r.Prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": r.Temperature,
		},
	}
	if r.MaxTokens > 0 {
		req.Options["num_predict"] = r.MaxTokens
	}

	var b strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", embedollama.Classify(err, "ollama chat")
	}
	if b.Len() == 0 {
		return "", perr.Upstreamf("ollama chat returned no content")
	}
	return b.String(), nil
}
