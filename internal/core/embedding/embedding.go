// Package embedding defines the single embedder contract shared by index builds and queries
package embedding

import (
	"context"
	"fmt"
	"strings"

	perr "contractlens/internal/platform/errors"
)

// ErrMismatch reports a query-side embedder that differs from the one a generation was built with
var ErrMismatch = perr.New(perr.ErrorCodeFailedPrecondition, "embedding model mismatch")

// Identity names the embedding space a vector belongs to
type Identity struct {
	ModelType string `json:"model_type"`
	Model     string `json:"embedding_model"`
}

// String renders identity as type/model
func (id Identity) String() string { return id.ModelType + "/" + id.Model }

// Short returns the last path segment of the model name, used in generation names
func (id Identity) Short() string {
	m := strings.TrimRight(id.Model, "/")
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	if m == "" {
		return "default"
	}
	return m
}

// Equal compares identities ignoring surrounding whitespace and model type case
func (id Identity) Equal(o Identity) bool {
	return strings.EqualFold(strings.TrimSpace(id.ModelType), strings.TrimSpace(o.ModelType)) &&
		strings.TrimSpace(id.Model) == strings.TrimSpace(o.Model)
}

// Embedder turns text into vectors
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Identity() Identity
}

// Check returns ErrMismatch when the embedder cannot query vectors built by want
func Check(want Identity, e Embedder) error {
	if e == nil {
		return perr.InvalidArgf("embedding: nil embedder")
	}
	got := e.Identity()
	if !want.Equal(got) {
		return fmt.Errorf("index built with %s, query embedder is %s: %w", want, got, ErrMismatch)
	}
	return nil
}
