// Package module wires the generation indexer into the application using modkit
package module

import (

	"contractlens/internal/core/embedding"
	"contractlens/internal/modkit"
	"contractlens/internal/services/indexer/domain"
	"contractlens/internal/services/indexer/service"
)

// Providers are the collaborators built by the process entrypoint
type Providers struct {
	Catalog  service.Catalog
	Embedder embedding.Embedder
}

// WithProviders passes Providers to New
func WithProviders(p Providers) modkit.Option { return modkit.WithPorts(p) }

// Ports exposed by the indexer module
type Ports struct {
	Indexer domain.IndexerPort
}

// Module is a worker module, it mounts no routes and exposes its Ports
type Module struct {
	*modkit.Routed
}

// New constructs the indexer module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("indexer"),
	}, opts...)...)

	p, ok := b.Ports.(Providers)
	if !ok {
		panic("indexer module: expected WithProviders(indexer/module.Providers)")
	}
	if p.Catalog == nil || p.Embedder == nil {
		panic("indexer module: Providers missing Catalog or Embedder")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.SourceRoot != "" {
		cfg.SourceRoot = overrides.SourceRoot
	}

	svc := service.New(p.Catalog, p.Embedder, service.Config{SourceRoot: cfg.SourceRoot})
	return &Module{Routed: b.Routes(Ports{Indexer: svc}, nil)}
}
