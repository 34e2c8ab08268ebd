// Package ollama embeds text with a local model served by Ollama
package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contractlens/internal/core/embedding"
	perr "contractlens/internal/platform/errors"

	"github.com/ollama/ollama/api"
)

// ModelType is the identity type recorded in generations built with this client
const ModelType = "ollama"

const defaultModel = "bge-m3"

// Config configures the client. An empty Host uses OLLAMA_HOST or the Ollama default
type Config struct {
	Host      string
	Model     string
	Timeout   time.Duration
	BatchSize int
}

// Client implements embedding.Embedder
type Client struct {
	api   *api.Client
	model string
	batch int
}

var _ embedding.Embedder = (*Client)(nil)

// New returns a client for cfg
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	ac, err := apiClient(cfg.Host, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{api: ac, model: cfg.Model, batch: cfg.BatchSize}, nil
}

// apiClient builds an Ollama API client, shared with the chat adapter through NewAPIClient
func apiClient(host string, timeout time.Duration) (*api.Client, error) {
	if strings.TrimSpace(host) == "" {
		return api.ClientFromEnvironment()
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, perr.InvalidArgf("ollama: bad host %q", host)
	}
	return api.NewClient(u, &http.Client{Timeout: timeout}), nil
}

// NewAPIClient exposes the client construction used by this package
func NewAPIClient(host string, timeout time.Duration) (*api.Client, error) {
	return apiClient(host, timeout)
}

// Identity reports the embedding space
func (c *Client) Identity() embedding.Identity {
	return embedding.Identity{ModelType: ModelType, Model: c.model}
}

// EmbedQuery embeds a single text
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedDocuments embeds texts in batches, preserving order
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batch {
		end := min(start+c.batch, len(texts))
		vecs, err := c.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, Classify(err, "ollama embed")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, perr.Upstreamf("ollama embed returned %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Classify maps Ollama client errors onto project error codes
func Classify(err error, op string) error {
	var se api.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusNotFound:
			return perr.Wrapf(err, perr.ErrorCodeFailedPrecondition, "%s: model not pulled", op)
		case se.StatusCode == http.StatusTooManyRequests:
			return perr.Wrapf(err, perr.ErrorCodeTooManyRequests, "%s: rate limited", op)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return perr.Wrapf(err, perr.ErrorCodeUpstream, "%s", op)
}
