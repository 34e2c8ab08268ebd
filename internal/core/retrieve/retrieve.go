// Package retrieve finds the reference passages nearest to a content unit
package retrieve

import (
	"context"
	"fmt"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/vecindex"
	perr "contractlens/internal/platform/errors"
)

// DefaultK is the number of passages fetched per unit
const DefaultK = 4

// Searcher is the read side of a vector index
type Searcher interface {
	Query(vec []float32, k int) ([]vecindex.Hit, error)
}

// Retriever pairs an index with the embedder it was built with
type Retriever struct {
	index    Searcher
	embedder embedding.Embedder
	k        int
}

// Bind returns a Retriever after checking that embedder produces vectors in the space the
// index was built in
func Bind(index Searcher, built embedding.Identity, embedder embedding.Embedder, k int) (*Retriever, error) {
	if index == nil {
		return nil, vecindex.ErrNotInitialized
	}
	if err := embedding.Check(built, embedder); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultK
	}
	return &Retriever{index: index, embedder: embedder, k: k}, nil
}

// K is the default result count
func (r *Retriever) K() int { return r.k }

// TopK embeds text as a query and returns up to k nearest passages, closest first.
// k <= 0 uses the retriever default
func (r *Retriever) TopK(ctx context.Context, text string, k int) ([]vecindex.Hit, error) {
	if k <= 0 {
		k = r.k
	}
	vec, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vec) == 0 {
		return nil, perr.Upstreamf("embedder returned an empty vector")
	}
	return r.index.Query(vec, k)
}

// Texts projects hits to their passage text
func Texts(hits []vecindex.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Passage.Text
	}
	return out
}
