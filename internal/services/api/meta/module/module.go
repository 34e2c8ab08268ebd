// Package module mounts the meta endpoints
package module

import (
	"time"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/version"
	"contractlens/internal/modkit"
	"contractlens/internal/modkit/httpkit"

	metahttp "contractlens/internal/services/api/meta/http"
)

// Ports are the optional index collaborators /meta/index reports on
type Ports struct {
	Catalog  metahttp.Generations
	Embedder embedding.Identity
}

// New builds the module; without ports it still serves health, readiness of the stores and version
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	idx, _ := b.Ports.(Ports)
	hd := metahttp.Deps{
		Service:  version.Info().Service,
		Started:  time.Now(),
		Stores:   map[string]metahttp.Pinger{},
		Catalog:  idx.Catalog,
		Embedder: idx.Embedder,
	}
	// an unset backend is absent, not failing
	if p, ok := deps.PG.(metahttp.Pinger); ok && deps.PG != nil {
		hd.Stores["pg"] = p
	}
	if p, ok := deps.CH.(metahttp.Pinger); ok && deps.CH != nil {
		hd.Stores["ch"] = p
	}
	return b.Routes(nil, func(r httpkit.Router) { metahttp.Register(r, hd) })
}
