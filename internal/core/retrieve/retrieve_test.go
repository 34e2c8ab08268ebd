package retrieve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/vecindex"
)

type fakeEmbedder struct {
	id   embedding.Identity
	vec  []float32
	err  error
	seen []string
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.seen = append(f.seen, text)
	return f.vec, f.err
}

func (f *fakeEmbedder) Identity() embedding.Identity { return f.id }

var built = embedding.Identity{ModelType: "openai", Model: "text-embedding-3-small"}

func index(t *testing.T) *vecindex.Index {
	t.Helper()
	x := vecindex.New()
	err := x.Build(
		[]vecindex.Passage{{Text: "p0"}, {Text: "p1"}, {Text: "p2"}, {Text: "p3"}, {Text: "p4"}, {Text: "p5"}},
		[][]float32{{0}, {1}, {2}, {3}, {4}, {5}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestBind_Mismatch(t *testing.T) {
	e := &fakeEmbedder{id: embedding.Identity{ModelType: "ollama", Model: "bge-m3"}}
	if _, err := Bind(index(t), built, e, 0); !errors.Is(err, embedding.ErrMismatch) {
		t.Fatalf("err = %v", err)
	}
}

func TestBind_NilIndex(t *testing.T) {
	e := &fakeEmbedder{id: built}
	if _, err := Bind(nil, built, e, 0); !errors.Is(err, vecindex.ErrNotInitialized) {
		t.Fatalf("err = %v", err)
	}
}

func TestTopK_DefaultAndOrder(t *testing.T) {
	e := &fakeEmbedder{id: built, vec: []float32{2.2}}
	r, err := Bind(index(t), built, e, 0)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if r.K() != DefaultK {
		t.Fatalf("K = %d", r.K())
	}
	hits, err := r.TopK(context.Background(), "unit text", 0)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if got, want := Texts(hits), []string{"p2", "p3", "p1", "p4"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("texts = %v, want %v", got, want)
	}
	if len(e.seen) != 1 || e.seen[0] != "unit text" {
		t.Fatalf("query embedder saw %v", e.seen)
	}

	two, _ := r.TopK(context.Background(), "unit text", 2)
	if len(two) != 2 {
		t.Fatalf("explicit k returned %d", len(two))
	}
}

func TestTopK_EmbedError(t *testing.T) {
	boom := errors.New("boom")
	r, _ := Bind(index(t), built, &fakeEmbedder{id: built, err: boom}, 3)
	if _, err := r.TopK(context.Background(), "x", 0); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
