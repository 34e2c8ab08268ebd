// Package openai embeds text through an OpenAI compatible /embeddings endpoint
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"contractlens/internal/core/embedding"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/logger"
)

// ModelType is the identity type recorded in generations built with this client
const ModelType = "openai"

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
	defaultBatch   = 64
)

// Config configures the client
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	BatchSize  int
	MaxRetries int
}

// Client implements embedding.Embedder
type Client struct {
	url        string
	apiKey     string
	model      string
	batch      int
	maxRetries int
	hc         *http.Client
	log        *logger.Logger
}

var _ embedding.Embedder = (*Client)(nil)

// New returns a client, the API key is required
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, perr.InvalidArgf("openai embeddings: missing api key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatch
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		url:        strings.TrimRight(cfg.BaseURL, "/") + "/embeddings",
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		batch:      cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		hc:         &http.Client{Timeout: cfg.Timeout},
		log:        logger.Named("embed.openai"),
	}, nil
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
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)
		c.log.Debug().Int("done", end).Int("total", len(texts)).Msg("embedded batch")
	}
	return out, nil
}

type embedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResp struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// upstreamError keeps the provider status for classification
type upstreamError struct {
	status int
	msg    string
}

func (e upstreamError) Error() string { return fmt.Sprintf("openai embeddings %d: %s", e.status, e.msg) }

func (e upstreamError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status/100 == 5
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedReq{Model: c.model, Input: texts})
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		out, wait, err := c.once(ctx, body, len(texts))
		if err == nil {
			return out, nil
		}
		ue, ok := err.(upstreamError)
		if !ok || !ue.retryable() || attempt >= c.maxRetries {
			return nil, classify(err)
		}
		if wait <= 0 {
			wait = retryDelay(attempt)
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Dur("wait", wait).Msg("retrying embeddings call")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) once(ctx context.Context, body []byte, n int) ([][]float32, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		var wait time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, upstreamError{status: resp.StatusCode, msg: strings.TrimSpace(string(slurp))}
	}

	var er embedResp
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUpstream, "decode embeddings response")
	}
	if len(er.Data) != n {
		return nil, 0, perr.Upstreamf("embeddings response has %d rows for %d inputs", len(er.Data), n)
	}
	sort.Slice(er.Data, func(i, j int) bool { return er.Data[i].Index < er.Data[j].Index })
	out := make([][]float32, n)
	for i, d := range er.Data {
		if len(d.Embedding) == 0 {
			return nil, 0, perr.Upstreamf("empty embedding at row %d", i)
		}
		out[i] = d.Embedding
	}
	return out, 0, nil
}

func classify(err error) error {
	ue, ok := err.(upstreamError)
	if !ok {
		if _, isOurs := perr.As(err); isOurs {
			return err
		}
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "openai embeddings request")
	}
	switch {
	case ue.status == http.StatusTooManyRequests:
		return perr.Wrapf(ue, perr.ErrorCodeTooManyRequests, "openai embeddings rate limited")
	case ue.status == http.StatusUnauthorized || ue.status == http.StatusForbidden:
		return perr.Wrapf(ue, perr.ErrorCodeUnauthorized, "openai embeddings rejected credentials")
	default:
		return perr.Wrapf(ue, perr.ErrorCodeUpstream, "openai embeddings request")
	}
}

func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
