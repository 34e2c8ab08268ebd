// Package http provides http transport for index generations
package http

import (
	stdhttp "net/http"

	"contractlens/internal/modkit/httpkit"
	"contractlens/internal/services/indexer/domain"
)

// Register mounts generation endpoints on the given router
func Register(r httpkit.Router, s domain.IndexerPort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.list)
	httpkit.PostJSON[domain.BuildInput](r, "/", h.create)
}

type handlers struct{ svc domain.IndexerPort }

// swagger:route GET /generations Generations generationsList
// @Summary List index generations
// @Description Every store_* directory under the generations root, with validity, the default
// @Description selection and whether the configured embedder can query it.
// @Tags Generations
// @Produce json
// @Success 200 {array} domain.GenerationView "ok"
// @Router /generations [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.svc.List(r.Context())
}

// swagger:route POST /generations Generations generationsCreate
// @Summary Build a generation from a CSV of reference clauses
// @Tags Generations
// @Accept json
// @Produce json
// @Param payload body domain.BuildInput true "Source CSV"
// @Success 201 {object} domain.BuildResult "created"
// @Failure 409 {object} httpkit.Envelope "embedder mismatch or generation exists"
// @Failure 422 {object} httpkit.Envelope "invalid input"
// @Router /generations [post]
func (h *handlers) create(r *stdhttp.Request, in domain.BuildInput) (any, error) {
	res, err := h.svc.Build(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(res), nil
}
