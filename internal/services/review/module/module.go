// Package module wires the review pipeline into the application using modkit
package module

import (
	"context"
	"time"

	"contractlens/internal/core/analyze"
	"contractlens/internal/core/embedding"
	"contractlens/internal/core/segment"
	"contractlens/internal/modkit"
	"contractlens/internal/platform/logger"
	"contractlens/internal/services/review/domain"
	"contractlens/internal/services/review/repo"
	"contractlens/internal/services/review/service"
)

// Providers are the collaborators built by the process entrypoint
type Providers struct {
	Catalog  service.Catalog    // required
	Embedder embedding.Embedder // required
	LLM      analyze.Completer  // required
	Template *analyze.Template  // optional, the built-in prompt otherwise
}

// WithProviders passes Providers to New
func WithProviders(p Providers) modkit.Option { return modkit.WithPorts(p) }

// Ports exposed by the review module
type Ports struct {
	Reviewer domain.ReviewerPort
}

// Module is a worker module, it mounts no routes and exposes its Ports
type Module struct {
	*modkit.Routed
	svc *service.Service
}

// New constructs the review module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("review"),
	}, opts...)...)

	p, ok := b.Ports.(Providers)
	if !ok {
		panic("review module: expected WithProviders(review/module.Providers)")
	}
	if p.Catalog == nil || p.Embedder == nil || p.LLM == nil {
		panic("review module: Providers missing Catalog, Embedder or LLM")
	}

	cfg := merge(FromConfig(deps.Cfg), overrides)
	log := logger.Named("review")

	aopts := []analyze.Option{analyze.WithTimeout(cfg.LLMTimeout), analyze.WithMaxTokens(cfg.MaxTokens)}
	if p.Template != nil {
		aopts = append(aopts, analyze.WithTemplate(p.Template))
	}

	d := service.Deps{
		Catalog:  p.Catalog,
		Embedder: p.Embedder,
		Analyzer: analyze.New(p.LLM, aopts...),
	}

	if deps.PG != nil {
		archive := service.NewArchive(deps.PG, repo.NewPG())
		if cfg.Migrate {
			migrate(log, "pg", archive.EnsureSchema)
		}
		d.Archive = archive
	}
	if deps.CH != nil && cfg.Stats {
		stats := repo.NewCH(deps.CH)
		if cfg.Migrate {
			migrate(log, "ch", stats.EnsureSchema)
		}
		d.Stats = stats
	}

	svc := service.New(d, service.Config{
		Mode:         segment.Mode(cfg.Mode),
		TopK:         cfg.TopK,
		DocumentRoot: cfg.DocumentRoot,
		ExportRoot:   cfg.ExportRoot,
		KeepRuns:     cfg.KeepRuns,
	})

	return &Module{Routed: b.Routes(Ports{Reviewer: svc}, nil), svc: svc}
}

func merge(cfg, o Options) Options {
	if o.Mode != "" {
		cfg.Mode = o.Mode
	}
	if o.TopK != 0 {
		cfg.TopK = o.TopK
	}
	if o.DocumentRoot != "" {
		cfg.DocumentRoot = o.DocumentRoot
	}
	if o.ExportRoot != "" {
		cfg.ExportRoot = o.ExportRoot
	}
	if o.KeepRuns != 0 {
		cfg.KeepRuns = o.KeepRuns
	}
	if o.LLMTimeout != 0 {
		cfg.LLMTimeout = o.LLMTimeout
	}
	if o.MaxTokens != 0 {
		cfg.MaxTokens = o.MaxTokens
	}
	// bool overrides only switch features on
	cfg.Migrate = cfg.Migrate || o.Migrate
	return cfg
}

func migrate(log *logger.Logger, store string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Str("store", store).Msg("schema not ensured")
		return
	}
	log.Info().Str("store", store).Msg("schema ensured")
}

// Service exposes the concrete service for entrypoints that wait on background runs
func (m *Module) Service() *service.Service { return m.svc }
