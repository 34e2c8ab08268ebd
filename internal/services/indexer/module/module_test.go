package module

import (
	"context"
	"testing"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/generation"
	"contractlens/internal/modkit"
	"contractlens/internal/platform/config"
	"contractlens/internal/platform/testkit"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) { return []float32{1}, nil }

func (stubEmbedder) Identity() embedding.Identity {
	return embedding.Identity{ModelType: "openai", Model: "text-embedding-3-small"}
}

func TestNew_RequiresProviders(t *testing.T) {
	testkit.MustPanic(t, func() { New(modkit.Deps{}, Options{}) })
	testkit.MustPanic(t, func() {
		New(modkit.Deps{}, Options{}, WithProviders(Providers{Embedder: stubEmbedder{}}))
	})
}

func TestNew_ExposesIndexer(t *testing.T) {
	root := t.TempDir()
	m := New(modkit.Deps{Cfg: config.New()}, Options{}, WithProviders(Providers{
		Catalog:  generation.NewCatalog(root),
		Embedder: stubEmbedder{},
	}))
	ports, ok := m.Ports().(Ports)
	if !ok || ports.Indexer == nil {
		t.Fatalf("ports = %#v", m.Ports())
	}
	views, err := ports.Indexer.List(context.Background())
	if err != nil || len(views) != 0 {
		t.Fatalf("List on an empty root = %v, %v", views, err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("CORE_INDEX_SOURCE_ROOT", "/srv/reference")
	if got := FromConfig(config.New()).SourceRoot; got != "/srv/reference" {
		t.Fatalf("SourceRoot = %q", got)
	}
}
