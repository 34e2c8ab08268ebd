// Package http provides http transport for contract reviews
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"contractlens/internal/core/generation"
	"contractlens/internal/modkit/httpkit"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/net/http/bind"
	"contractlens/internal/services/review/domain"
)

func init() {
	err := bind.RegisterValidation("generation_id", func(s string) bool {
		_, err := generation.ParseName(s)
		return err == nil
	}, "{0} must look like store_<type>_<model>_<YYYYMMDD_HHMMSS>")
	if err != nil {
		panic(err)
	}
}

// Register mounts review endpoints on the given router
func Register(r httpkit.Router, s domain.ReviewerPort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.ReviewInput](r, "/", h.review)
	httpkit.Get(r, "/stats", h.stats)

	// latest run shortcut
	httpkit.Get(r, "/verdicts/{unit_id}", h.latestVerdict)

	httpkit.Get(r, "/{run_id}", h.run)
	httpkit.Get(r, "/{run_id}/verdicts/{unit_id}", h.verdict)
	httpkit.PostJSON[domain.ExportInput](r, "/{run_id}/export", h.export)
	httpkit.Post(r, "/{run_id}/archive", h.archive)
	httpkit.Get(r, "/{run_id}/archive", h.archived)
}

type handlers struct{ svc domain.ReviewerPort }

// swagger:route POST /reviews Reviews reviewCreate
// @Summary Review a contract
// @Description Segments the document, retrieves reference clauses per unit and asks the model for a verdict.
// @Description With async the run continues in the background and 202 carries the running summary.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body domain.ReviewInput true "Document and options"
// @Success 200 {object} domain.Report "finished run"
// @Success 202 {object} domain.Report "run started"
// @Failure 404 {object} httpkit.Envelope "no generation"
// @Failure 409 {object} httpkit.Envelope "embedder does not match the generation"
// @Failure 422 {object} httpkit.Envelope "invalid input"
// @Router /reviews [post]
func (h *handlers) review(r *stdhttp.Request, in domain.ReviewInput) (any, error) {
	rep, err := h.svc.Review(r.Context(), in)
	if err != nil {
		return nil, err
	}
	if in.Async {
		return httpkit.Accepted(rep), nil
	}
	return rep, nil
}

// swagger:route GET /reviews/stats Reviews reviewStats
// @Summary Run statistics per generation
// @Tags Reviews
// @Produce json
// @Param limit query int false "max rows (default 50)"
// @Success 200 {array} domain.GenerationStats "ok"
// @Failure 409 {object} httpkit.Envelope "statistics not configured"
// @Router /reviews/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	limit := 0
	if q := strings.TrimSpace(r.URL.Query().Get("limit")); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			return nil, perr.InvalidArgf("limit must be a positive integer")
		}
		limit = n
	}
	return h.svc.Stats(r.Context(), limit)
}

// swagger:route GET /reviews/verdicts/{unit_id} Reviews reviewLatestVerdict
// @Summary Cached verdict from the latest run
// @Tags Reviews
// @Produce json
// @Param unit_id path int true "unit id"
// @Success 200 {object} analyze.Verdict "ok"
// @Failure 404 {object} httpkit.Envelope "no violation recorded"
// @Router /reviews/verdicts/{unit_id} [get]
func (h *handlers) latestVerdict(r *stdhttp.Request) (any, error) {
	id, err := unitID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Verdict(r.Context(), "", id)
}

// swagger:route GET /reviews/{run_id} Reviews reviewRun
// @Summary Run report
// @Tags Reviews
// @Produce json
// @Param run_id path string true "run id or latest"
// @Success 200 {object} domain.Report "ok"
// @Failure 404 {object} httpkit.Envelope "unknown run"
// @Router /reviews/{run_id} [get]
func (h *handlers) run(r *stdhttp.Request) (any, error) {
	return h.svc.Run(r.Context(), httpkit.Param(r, "run_id"))
}

// swagger:route GET /reviews/{run_id}/verdicts/{unit_id} Reviews reviewVerdict
// @Summary Verdict of one unit in a run
// @Tags Reviews
// @Produce json
// @Param run_id path string true "run id or latest"
// @Param unit_id path int true "unit id"
// @Success 200 {object} analyze.Verdict "ok"
// @Failure 404 {object} httpkit.Envelope "no violation recorded"
// @Router /reviews/{run_id}/verdicts/{unit_id} [get]
func (h *handlers) verdict(r *stdhttp.Request) (any, error) {
	id, err := unitID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Verdict(r.Context(), httpkit.Param(r, "run_id"), id)
}

// swagger:route POST /reviews/{run_id}/export Reviews reviewExport
// @Summary Write a run's violations to a JSON file on the server
// @Tags Reviews
// @Accept json
// @Produce json
// @Param run_id path string true "run id or latest"
// @Param payload body domain.ExportInput true "Target path"
// @Success 200 {object} domain.ExportResult "ok"
// @Router /reviews/{run_id}/export [post]
func (h *handlers) export(r *stdhttp.Request, in domain.ExportInput) (any, error) {
	return h.svc.Export(r.Context(), httpkit.Param(r, "run_id"), in)
}

// swagger:route POST /reviews/{run_id}/archive Reviews reviewArchive
// @Summary Archive a finished run to postgres
// @Tags Reviews
// @Produce json
// @Param run_id path string true "run id or latest"
// @Success 201 {object} domain.ArchiveResult "archived"
// @Failure 409 {object} httpkit.Envelope "run still running or archive not configured"
// @Router /reviews/{run_id}/archive [post]
func (h *handlers) archive(r *stdhttp.Request) (any, error) {
	res, err := h.svc.Archive(r.Context(), httpkit.Param(r, "run_id"))
	if err != nil {
		return nil, err
	}
	return httpkit.Created(res), nil
}

// swagger:route GET /reviews/{run_id}/archive Reviews reviewArchived
// @Summary Archived run with its violations
// @Tags Reviews
// @Produce json
// @Param run_id path string true "run id"
// @Success 200 {object} domain.ArchivedRun "ok"
// @Failure 404 {object} httpkit.Envelope "not archived"
// @Router /reviews/{run_id}/archive [get]
func (h *handlers) archived(r *stdhttp.Request) (any, error) {
	return h.svc.Archived(r.Context(), httpkit.Param(r, "run_id"))
}

func unitID(r *stdhttp.Request) (int, error) {
	raw := httpkit.Param(r, "unit_id")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, perr.InvalidArgf("unit id %q is not a number", raw)
	}
	return n, nil
}
