// Package service builds generations from reference clause CSVs and lists what is on disk
package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"contractlens/internal/adapters/ingest"
	"contractlens/internal/core/embedding"
	"contractlens/internal/core/generation"
	"contractlens/internal/core/segment"
	"contractlens/internal/core/vecindex"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/fsroot"
	"contractlens/internal/platform/logger"
	"contractlens/internal/services/indexer/domain"
)

// Catalog is the generation store the indexer writes to
type Catalog interface {
	Scan() ([]generation.Entry, error)
	List() ([]generation.Generation, error)
	Create(ctx context.Context, id embedding.Identity, passages []vecindex.Passage, vectors [][]float32) (generation.Generation, error)
}

// Config for the indexer
type Config struct {
	SourceRoot string // when set, CSV paths must be relative to it
}

// Service implements domain.IndexerPort
type Service struct {
	catalog  Catalog
	embedder embedding.Embedder
	cfg      Config

	load  func(ctx context.Context, path string) ([]segment.Page, error)
	now   func() time.Time
	build sync.Mutex
}

var _ domain.IndexerPort = (*Service)(nil)

// New constructs an indexer
func New(c Catalog, e embedding.Embedder, cfg Config) *Service {
	if c == nil {
		panic("indexer.Service requires a non nil Catalog")
	}
	if e == nil {
		panic("indexer.Service requires a non nil Embedder")
	}
	return &Service{catalog: c, embedder: e, cfg: cfg, load: ingest.LoadCSV, now: time.Now}
}

// Build embeds every CSV row as one reference passage and publishes a new generation
func (s *Service) Build(ctx context.Context, in domain.BuildInput) (domain.BuildResult, error) {
	if err := s.checkIdentity(in); err != nil {
		return domain.BuildResult{}, err
	}
	path, err := fsroot.Resolve(s.cfg.SourceRoot, in.CSVPath)
	if err != nil {
		return domain.BuildResult{}, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return domain.BuildResult{}, perr.InvalidArgf("%s is not a csv file", filepath.Base(path))
	}

	pages, err := s.load(ctx, path)
	if err != nil {
		return domain.BuildResult{}, err
	}
	passages, texts := make([]vecindex.Passage, 0, len(pages)), make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		passages = append(passages, vecindex.Passage{Text: p.Text, Metadata: p.Metadata})
		texts = append(texts, p.Text)
	}
	skipped := len(pages) - len(passages)
	if len(passages) == 0 {
		return domain.BuildResult{}, perr.InvalidArgf("%s has no reference rows", filepath.Base(path))
	}

	// generation names have second resolution
	s.build.Lock()
	defer s.build.Unlock()

	log := logger.C(ctx).With().Str("component", "indexer").Str("source", filepath.Base(path)).Logger()
	start := s.now()
	log.Info().Int("passages", len(passages)).Str("embedder", s.embedder.Identity().String()).Msg("embedding reference passages")

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return domain.BuildResult{}, err
	}
	if len(vectors) != len(texts) {
		return domain.BuildResult{}, perr.Upstreamf("embedder returned %d vectors for %d passages", len(vectors), len(texts))
	}

	gen, err := s.catalog.Create(ctx, s.embedder.Identity(), passages, vectors)
	if err != nil {
		return domain.BuildResult{}, err
	}
	took := s.now().Sub(start)
	log.Info().Str("generation", gen.ID).Int("skipped", skipped).Dur("took", took).Msg("generation built")

	return domain.BuildResult{
		Generation: gen,
		Passages:   len(passages),
		Skipped:    skipped,
		Took:       took.Round(time.Millisecond).String(),
	}, nil
}

func (s *Service) checkIdentity(in domain.BuildInput) error {
	if in.ModelType == "" && in.Model == "" {
		return nil
	}
	have := s.embedder.Identity()
	want := have
	if in.ModelType != "" {
		want.ModelType = in.ModelType
	}
	if in.Model != "" {
		want.Model = in.Model
	}
	return embedding.Check(want, s.embedder)
}

// List reports every generation directory, marking the one a review would select by default
// and whether the configured embedder can query it
func (s *Service) List(_ context.Context) ([]domain.GenerationView, error) {
	entries, err := s.catalog.Scan()
	if err != nil {
		return nil, err
	}
	latest := ""
	if gens, err := s.catalog.List(); err == nil && len(gens) > 0 {
		latest = gens[0].ID
	}
	id := s.embedder.Identity()

	out := make([]domain.GenerationView, 0, len(entries))
	for _, e := range entries {
		v := domain.GenerationView{ID: e.ID, Valid: e.Valid, Problem: e.Problem, Latest: e.ID == latest}
		if e.Gen != nil {
			ts, md := e.Gen.Timestamp, e.Gen.Metadata
			v.Timestamp, v.Metadata = &ts, &md
			v.Compatible = e.Valid && md.Identity().Equal(id)
		}
		out = append(out, v)
	}
	return out, nil
}
