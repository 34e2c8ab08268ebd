// Package vecindex is an exact nearest neighbour index over reference passage embeddings.
//
// Scores are squared L2 distances, lower is closer. Equal distances keep insertion order so a
// query against the same index always returns the same passages in the same order.
package vecindex

import (
	"fmt"
	"sort"
	"sync"

	perr "contractlens/internal/platform/errors"
)

var (
	// ErrNotInitialized is returned when querying a handle nothing was built or loaded into
	ErrNotInitialized = perr.New(perr.ErrorCodeUnavailable, "index not initialized")
	// ErrDimension is returned when a vector does not match the index dimension
	ErrDimension = perr.New(perr.ErrorCodeInvalidArgument, "vector dimension mismatch")
	// ErrAlreadyBound is returned by a second Build or Load on the same handle
	ErrAlreadyBound = perr.New(perr.ErrorCodeConflict, "index already bound")
)

// Passage is one reference text stored next to its vector
type Passage struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Hit is a query result
type Hit struct {
	Row     int     `json:"row"`
	Passage Passage `json:"passage"`
	Score   float32 `json:"score"`
}

// Index holds at most one set of passages for its lifetime
type Index struct {
	mu       sync.RWMutex
	dim      int
	vectors  [][]float32
	passages []Passage
	bound    bool
}

// New returns an empty handle
func New() *Index { return &Index{} }

// Build binds passages and their vectors to the handle
func (x *Index) Build(passages []Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return perr.InvalidArgf("%d passages but %d vectors", len(passages), len(vectors))
	}
	if len(vectors) == 0 {
		return perr.InvalidArgf("no vectors to index")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return perr.InvalidArgf("zero length vector")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("row %d has %d dims, want %d: %w", i, len(v), dim, ErrDimension)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.bound {
		return ErrAlreadyBound
	}
	x.dim = dim
	x.vectors = vectors
	x.passages = passages
	x.bound = true
	return nil
}

// Ready reports whether Build or Load succeeded
func (x *Index) Ready() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.bound
}

// Dim is the vector dimension, zero before binding
func (x *Index) Dim() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

// Len is the number of indexed rows
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Query returns the k nearest passages to vec, closest first
// k larger than the index returns every row
func (x *Index) Query(vec []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, perr.InvalidArgf("k must be positive, got %d", k)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if !x.bound {
		return nil, ErrNotInitialized
	}
	if len(vec) != x.dim {
		return nil, fmt.Errorf("query has %d dims, index has %d: %w", len(vec), x.dim, ErrDimension)
	}

	hits := make([]Hit, len(x.vectors))
	for i, row := range x.vectors {
		hits[i] = Hit{Row: i, Passage: x.passages[i], Score: sqL2(row, vec)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score < hits[b].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func sqL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
