// Package verdicts aggregates per-unit analysis results for one review run.
//
// Only violations are retained. Recording a clean or failed verdict for an id drops any
// violation recorded for it earlier, so the latest analysis of a unit always wins.
package verdicts

import (
	"sort"
	"strconv"
	"sync"

	"contractlens/internal/core/analyze"
	"contractlens/internal/platform/atomicfile"
)

// Summary counts what a run has processed so far
type Summary struct {
	TotalUnits     int `json:"total_units"`
	ViolationCount int `json:"violation_count"`
	FailedUnits    int `json:"failed_units"`
}

// Store is safe for concurrent readers while a run records
type Store struct {
	mu         sync.RWMutex
	violations map[int]analyze.Verdict
	failed     map[int]struct{}
	seen       map[int]struct{}
}

// New returns an empty store
func New() *Store {
	return &Store{
		violations: map[int]analyze.Verdict{},
		failed:     map[int]struct{}{},
		seen:       map[int]struct{}{},
	}
}

// Record stores v under unitID, replacing anything recorded before
func (s *Store) Record(unitID int, v analyze.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[unitID] = struct{}{}
	if v.Failed() {
		s.failed[unitID] = struct{}{}
	} else {
		delete(s.failed, unitID)
	}
	if v.IsViolation && !v.Failed() {
		s.violations[unitID] = v
		return
	}
	delete(s.violations, unitID)
}

// Get returns the violation recorded for unitID
func (s *Store) Get(unitID int) (analyze.Verdict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.violations[unitID]
	return v, ok
}

// Snapshot copies the current violations
func (s *Store) Snapshot() map[int]analyze.Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]analyze.Verdict, len(s.violations))
	for k, v := range s.violations {
		out[k] = v
	}
	return out
}

// Violations lists retained verdicts ordered by unit id
func (s *Store) Violations() []analyze.Verdict {
	snap := s.Snapshot()
	out := make([]analyze.Verdict, 0, len(snap))
	for _, v := range snap {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

// Summary reports processed, violating and failed unit counts
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Summary{
		TotalUnits:     len(s.seen),
		ViolationCount: len(s.violations),
		FailedUnits:    len(s.failed),
	}
}

// Keyed copies the current violations keyed by the decimal unit id, the shape used on the wire
func (s *Store) Keyed() map[string]analyze.Verdict {
	snap := s.Snapshot()
	out := make(map[string]analyze.Verdict, len(snap))
	for k, v := range snap {
		out[strconv.Itoa(k)] = v
	}
	return out
}

// Export writes the current violations to path as indented JSON keyed by unit id
func (s *Store) Export(path string) error {
	return atomicfile.WriteJSON(path, s.Keyed())
}
