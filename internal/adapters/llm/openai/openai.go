// Package openai calls an OpenAI compatible chat completions endpoint. The default base URL
// is OpenRouter, which fronts many model vendors behind the same API
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contractlens/internal/core/analyze"
	perr "contractlens/internal/platform/errors"
)

const (
	// DefaultBaseURL is the OpenRouter API root
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is used when no model is configured
	DefaultModel = "openai/gpt-4o"
)

// Config configures the client
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// AppTitle is sent as X-Title so OpenRouter can attribute usage
	AppTitle string
	Timeout  time.Duration
	Headers  map[string]string
}

// Client implements analyze.Completer
type Client struct {
	url     string
	apiKey  string
	model   string
	headers map[string]string
	do      func(*http.Request) (*http.Response, error)
}

var _ analyze.Completer = (*Client)(nil)

// New returns a client, the API key is required
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, perr.InvalidArgf("openai chat: missing api key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	h := map[string]string{}
	for k, v := range cfg.Headers {
		h[k] = v
	}
	if cfg.AppTitle != "" {
		h["X-Title"] = cfg.AppTitle
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		url:     strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		headers: h,
		do:      hc.Do,
	}, nil
}

// Model is the configured model name
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// upstreamError keeps the provider status and body for classification
type upstreamError struct {
	status int
	msg    string
}

func (e upstreamError) Error() string { return fmt.Sprintf("chat completions %d: %s", e.status, e.msg) }

// Complete sends the prompt as a single user message
func (c *Client) Complete(ctx context.Context, r analyze.Request) (string, error) {
	body, err := json.Marshal(chatReq{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: r.Prompt}},
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", classify(upstreamError{status: resp.StatusCode, msg: strings.TrimSpace(string(slurp))})
	}

	var cr chatResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUpstream, "decode chat response")
	}
	if cr.Error != nil {
		return "", classify(upstreamError{status: http.StatusBadGateway, msg: cr.Error.Message})
	}
	if len(cr.Choices) == 0 {
		return "", perr.Upstreamf("chat response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

func classify(e upstreamError) error {
	switch {
	case e.status == http.StatusPaymentRequired || analyze.IsQuota(e):
		return fmt.Errorf("%w: %w", analyze.ErrQuota, e)
	case e.status == http.StatusTooManyRequests:
		return perr.Wrapf(e, perr.ErrorCodeTooManyRequests, "rate limited")
	case e.status == http.StatusUnauthorized || e.status == http.StatusForbidden:
		return perr.Wrapf(e, perr.ErrorCodeUnauthorized, "credentials rejected")
	default:
		return perr.Wrapf(e, perr.ErrorCodeUpstream, "chat completions")
	}
}
