// Package module mounts the review endpoints
package module

import (
	"contractlens/internal/modkit"
	"contractlens/internal/modkit/httpkit"

	rhttp "contractlens/internal/services/api/reviews/http"
	"contractlens/internal/services/review/domain"
)

// Ports declares the injected review pipeline port
type Ports struct {
	Reviewer domain.ReviewerPort
}

// New builds the module, the reviewer comes from services/review
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("reviews"),
		modkit.WithPrefix("/reviews"),
	}, opts...)...)

	p, _ := b.Ports.(Ports)
	if p.Reviewer == nil {
		panic("reviews module requires the Reviewer port")
	}
	return b.Routes(p, func(r httpkit.Router) { rhttp.Register(r, p.Reviewer) })
}
