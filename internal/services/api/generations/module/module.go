// Package module mounts the generation endpoints
package module

import (
	"contractlens/internal/modkit"
	"contractlens/internal/modkit/httpkit"

	ghttp "contractlens/internal/services/api/generations/http"
	"contractlens/internal/services/indexer/domain"
)

// Ports declares the injected indexer port
type Ports struct {
	Indexer domain.IndexerPort
}

// New builds the module, the indexer comes from services/indexer
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("generations"),
		modkit.WithPrefix("/generations"),
	}, opts...)...)

	p, _ := b.Ports.(Ports)
	if p.Indexer == nil {
		panic("generations module requires the Indexer port")
	}
	return b.Routes(p, func(r httpkit.Router) { ghttp.Register(r, p.Indexer) })
}
