package service

import (
	"sync"
	"time"

	"contractlens/internal/core/verdicts"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/services/review/domain"
)

// run is one review run and its result store
type run struct {
	mu      sync.RWMutex
	summary domain.RunSummary
	store   *verdicts.Store
}

func newRun(summary domain.RunSummary) *run {
	summary.Status = domain.RunRunning
	return &run{summary: summary, store: verdicts.New()}
}

func (r *run) id() string { return r.summary.RunID }

func (r *run) running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary.Status == domain.RunRunning
}

func (r *run) finish(status domain.RunStatus, msg string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Status = status
	r.summary.Error = msg
	at = at.UTC()
	r.summary.FinishedAt = &at
}

// snapshot copies the summary with live counts
func (r *run) snapshot() domain.RunSummary {
	r.mu.RLock()
	s := r.summary
	r.mu.RUnlock()
	s.Summary = r.store.Summary()
	return s
}

func (r *run) report() domain.Report {
	return domain.Report{RunSummary: r.snapshot(), Violations: r.store.Keyed()}
}

// registry keeps runs in start order. keep > 0 bounds how many finished runs are retained
type registry struct {
	mu    sync.RWMutex
	runs  map[string]*run
	order []string
	keep  int
}

func newRegistry(keep int) *registry {
	return &registry{runs: map[string]*run{}, keep: keep}
}

func (g *registry) add(r *run) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runs[r.id()] = r
	g.order = append(g.order, r.id())
	if g.keep <= 0 {
		return
	}
	for i := 0; len(g.order) > g.keep && i < len(g.order); {
		id := g.order[i]
		if g.runs[id].running() {
			i++
			continue
		}
		delete(g.runs, id)
		g.order = append(g.order[:i], g.order[i+1:]...)
	}
}

// get resolves a run id; "" and "latest" mean the most recently started run
func (g *registry) get(id string) (*run, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id == "" || id == "latest" {
		if len(g.order) == 0 {
			return nil, perr.NotFoundf("no review has run yet")
		}
		return g.runs[g.order[len(g.order)-1]], nil
	}
	r, ok := g.runs[id]
	if !ok {
		return nil, perr.NotFoundf("review run %s not found", id)
	}
	return r, nil
}

func (g *registry) len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}
