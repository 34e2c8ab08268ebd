// Package http serves the unauthenticated probes and build info under /meta
package http

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/generation"
	"contractlens/internal/core/version"
	"contractlens/internal/modkit/httpkit"
)

// Pinger is a backend readiness can probe
type Pinger interface {
	Ping(context.Context) error
}

// Generations lists published generations, newest first
type Generations interface {
	Root() string
	List() ([]generation.Generation, error)
}

// Deps are the handler dependencies, every field but Service may be zero
type Deps struct {
	Service  string
	Started  time.Time
	Stores   map[string]Pinger // configured backends by name
	Catalog  Generations
	Embedder embedding.Identity
}

// ReadyTimeout bounds all readiness pings together
const ReadyTimeout = 2 * time.Second

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{Deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/index", h.index)
}

type handlers struct{ Deps }

// Health is the liveness payload
type Health struct {
	OK      bool      `json:"ok" example:"true"`
	Service string    `json:"service" example:"contractlens-api"`
	Now     time.Time `json:"now"`
}

// Check is one readiness probe
type Check struct {
	Name    string `json:"name" example:"pg"`
	OK      bool   `json:"ok" example:"true"`
	Error   string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
	Elapsed string `json:"elapsed" example:"1.2ms"`
}

// Readiness is ok only when every configured backend answered
type Readiness struct {
	OK     bool    `json:"ok" example:"true"`
	Checks []Check `json:"checks"`
}

// ServiceInfo reports process uptime
type ServiceInfo struct {
	Name    string    `json:"name" example:"contractlens-api"`
	Started time.Time `json:"started"`
	Uptime  int64     `json:"uptime_seconds" example:"300"`
}

// IndexInfo reports what a review would search by default
type IndexInfo struct {
	Embedder    string `json:"embedder,omitempty" example:"openai/text-embedding-3-small"`
	Root        string `json:"root,omitempty" example:"vector_stores"`
	Generations int    `json:"generations" example:"3"`
	Latest      string `json:"latest,omitempty" example:"store_openai_text-embedding-3-small_20250101_120000"`
	Compatible  bool   `json:"compatible" example:"true"`
	Error       string `json:"error,omitempty"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} Health "ok"
// @Router /meta/health [get]
func (h *handlers) health(*http.Request) (any, error) {
	return Health{OK: true, Service: h.Service, Now: time.Now().UTC()}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe with dependency checks
// @Description Pings every configured store and reads the generation root. Any failure answers 503.
// @Tags Meta
// @Produce json
// @Success 200 {object} Readiness "ready"
// @Failure 503 {object} Readiness "a dependency failed"
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadyTimeout)
	defer cancel()

	probes := map[string]func(context.Context) error{}
	for name, p := range h.Stores {
		probes[name] = p.Ping
	}
	if h.Catalog != nil {
		probes["index"] = func(context.Context) error { _, err := h.Catalog.List(); return err }
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = Readiness{OK: true, Checks: []Check{}}
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := probe(ctx)
			c := Check{Name: name, OK: err == nil, Elapsed: time.Since(start).String()}
			if err != nil {
				c.Error = err.Error()
			}
			mu.Lock()
			out.Checks = append(out.Checks, c)
			out.OK = out.OK && c.OK
			mu.Unlock()
		}()
	}
	wg.Wait()
	slices.SortFunc(out.Checks, func(a, b Check) int { return cmp.Compare(a.Name, b.Name) })

	if !out.OK {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /meta/version [get]
func (h *handlers) version(*http.Request) (any, error) { return version.Info(), nil }

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceInfo "ok"
// @Router /meta/service [get]
func (h *handlers) service(*http.Request) (any, error) {
	return ServiceInfo{
		Name:    h.Service,
		Started: h.Started.UTC(),
		Uptime:  int64(time.Since(h.Started) / time.Second),
	}, nil
}

// swagger:route GET /meta/index Meta metaIndex
// @Summary Embedder identity and the latest valid generation
// @Tags Meta
// @Produce json
// @Success 200 {object} IndexInfo "ok"
// @Router /meta/index [get]
func (h *handlers) index(*http.Request) (any, error) {
	var out IndexInfo
	if h.Embedder.Model != "" {
		out.Embedder = h.Embedder.String()
	}
	if h.Catalog == nil {
		return out, nil
	}
	out.Root = h.Catalog.Root()
	gens, err := h.Catalog.List()
	if err != nil {
		// reported, readiness is where an unreadable root fails
		out.Error = err.Error()
		return out, nil
	}
	out.Generations = len(gens)
	if len(gens) > 0 {
		out.Latest = gens[0].ID
		out.Compatible = gens[0].Metadata.Identity().Equal(h.Embedder)
	}
	return out, nil
}
