// Package service runs contract reviews: ingest, segment, retrieve and analyze every unit
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"contractlens/internal/adapters/ingest"
	"contractlens/internal/core/analyze"
	"contractlens/internal/core/embedding"
	"contractlens/internal/core/generation"
	"contractlens/internal/core/retrieve"
	"contractlens/internal/core/segment"
	"contractlens/internal/core/vecindex"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/fsroot"
	"contractlens/internal/platform/logger"
	pnet "contractlens/internal/platform/net"
	"contractlens/internal/services/review/domain"

	"github.com/google/uuid"
)

// Catalog is the generation store a review reads from
type Catalog interface {
	Select(id string) (generation.Generation, error)
	Open(g generation.Generation) (*vecindex.Index, error)
}

// Analyzer classifies one unit against its reference passages
type Analyzer interface {
	Analyze(ctx context.Context, unit segment.Unit, passages []string) analyze.Verdict
}

// Config for the review service
type Config struct {
	Mode         segment.Mode
	TopK         int
	DocumentRoot string // when set, document paths must be relative to it
	ExportRoot   string // when set, export paths must be relative to it
	KeepRuns     int    // 0 keeps every run for the process lifetime
}

// Deps are the collaborators of the review service
type Deps struct {
	Catalog  Catalog
	Embedder embedding.Embedder
	Analyzer Analyzer
	Archive  domain.ArchivePort // optional
	Stats    domain.StatsPort   // optional
}

// Service implements domain.ReviewerPort
type Service struct {
	catalog  Catalog
	embedder embedding.Embedder
	analyzer Analyzer
	archive  domain.ArchivePort
	stats    domain.StatsPort
	cfg      Config

	runs *registry
	load func(ctx context.Context, path string) ([]segment.Page, error)
	now  func() time.Time

	idxMu   sync.Mutex
	indexes map[string]*vecindex.Index
	wg      sync.WaitGroup
}

var _ domain.ReviewerPort = (*Service)(nil)

// New constructs a review service
func New(d Deps, cfg Config) *Service {
	if d.Catalog == nil {
		panic("review.Service requires a non nil Catalog")
	}
	if d.Embedder == nil {
		panic("review.Service requires a non nil Embedder")
	}
	if d.Analyzer == nil {
		panic("review.Service requires a non nil Analyzer")
	}
	if cfg.Mode == "" {
		cfg.Mode = segment.ModeNumbered
	}
	if cfg.TopK <= 0 {
		cfg.TopK = retrieve.DefaultK
	}
	return &Service{
		catalog:  d.Catalog,
		embedder: d.Embedder,
		analyzer: d.Analyzer,
		archive:  d.Archive,
		stats:    d.Stats,
		cfg:      cfg,
		runs:     newRegistry(cfg.KeepRuns),
		load:     ingest.Load,
		now:      time.Now,
		indexes:  map[string]*vecindex.Index{},
	}
}

// plan is everything a run needs, resolved before the first unit is analyzed
type plan struct {
	gen       generation.Generation
	retriever *retrieve.Retriever
	units     []segment.Unit
	mode      segment.Mode
	source    string
}

// Review analyzes a document. Ingestion, generation and embedder errors fail the call;
// per unit failures are recorded on the run. With Async the units are analyzed in the
// background and the returned report only carries the running summary
func (s *Service) Review(ctx context.Context, in domain.ReviewInput) (domain.Report, error) {
	p, err := s.prepare(ctx, in)
	if err != nil {
		return domain.Report{}, err
	}

	r := newRun(domain.RunSummary{
		RunID:        uuid.NewString(),
		GenerationID: p.gen.ID,
		Mode:         string(p.mode),
		Source:       p.source,
		Units:        len(p.units),
		RequestedBy:  pnet.Caller(ctx),
		StartedAt:    s.now().UTC(),
	})
	s.runs.add(r)
	// only the per unit model timeout bounds a run, request deadlines and disconnects do not
	ctx = context.WithoutCancel(logger.WithRun(ctx, r.id()))

	if in.Async {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(ctx, r, p)
		}()
		return r.report(), nil
	}
	s.execute(ctx, r, p)
	return r.report(), nil
}

// Wait blocks until background runs finish
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) prepare(ctx context.Context, in domain.ReviewInput) (plan, error) {
	mode := s.cfg.Mode
	if strings.TrimSpace(in.Mode) != "" {
		m, err := segment.ParseMode(in.Mode)
		if err != nil {
			return plan{}, err
		}
		mode = m
	}

	pages, source, err := s.pages(ctx, in)
	if err != nil {
		return plan{}, err
	}

	gen, err := s.catalog.Select(in.GenerationID)
	if err != nil {
		return plan{}, err
	}
	idx, err := s.index(gen)
	if err != nil {
		return plan{}, err
	}
	k := in.TopK
	if k <= 0 {
		k = s.cfg.TopK
	}
	retr, err := retrieve.Bind(idx, gen.Metadata.Identity(), s.embedder, k)
	if err != nil {
		return plan{}, err
	}

	units := segment.New(mode, segment.WithClean(true)).Segment(pages)
	return plan{gen: gen, retriever: retr, units: units, mode: mode, source: source}, nil
}

func (s *Service) pages(ctx context.Context, in domain.ReviewInput) ([]segment.Page, string, error) {
	if strings.TrimSpace(in.Text) != "" {
		return ingest.FromText(in.Text, "inline"), "inline", nil
	}
	if strings.TrimSpace(in.Path) == "" {
		return nil, "", perr.InvalidArgf("either text or path is required")
	}
	path, err := fsroot.Resolve(s.cfg.DocumentRoot, in.Path)
	if err != nil {
		return nil, "", err
	}
	pages, err := s.load(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return pages, in.Path, nil
}

// index opens a generation once; generation directories never change after creation
func (s *Service) index(g generation.Generation) (*vecindex.Index, error) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	if x, ok := s.indexes[g.ID]; ok {
		return x, nil
	}
	x, err := s.catalog.Open(g)
	if err != nil {
		return nil, err
	}
	s.indexes[g.ID] = x
	return x, nil
}

func (s *Service) execute(ctx context.Context, r *run, p plan) {
	log := logger.C(ctx).With().Str("component", "review").Logger()
	log.Info().Str("generation", p.gen.ID).Str("mode", string(p.mode)).Int("units", len(p.units)).Msg("review started")

	done := 0
	defer func() {
		if v := recover(); v != nil {
			log.Error().Interface("panic", v).Int("done", done).Msg("review aborted")
			s.finish(ctx, r, domain.RunFailed, fmt.Sprintf("aborted after %d of %d units: %v", done, len(p.units), v))
		}
	}()

	for _, u := range p.units {
		v := s.analyzeUnit(ctx, p, u)
		r.store.Record(u.ID, v)
		if v.Failed() {
			log.Warn().Int("unit_id", u.ID).Str("error", v.Error).Msg("unit skipped")
		}
		done++
	}
	s.finish(ctx, r, domain.RunDone, "")
}

func (s *Service) analyzeUnit(ctx context.Context, p plan, u segment.Unit) analyze.Verdict {
	hits, err := p.retriever.TopK(ctx, u.Text, 0)
	if err != nil {
		return analyze.Verdict{
			UnitID:     u.ID,
			PageNumber: u.PageNumber,
			Text:       u.Text,
			Error:      "retrieval failed: " + err.Error(),
		}
	}
	return s.analyzer.Analyze(ctx, u, retrieve.Texts(hits))
}

func (s *Service) finish(ctx context.Context, r *run, status domain.RunStatus, msg string) {
	r.finish(status, msg, s.now())
	sum := r.snapshot()

	log := logger.C(ctx)
	ev := log.Info()
	if status != domain.RunDone {
		ev = log.Warn().Str("error", msg)
	}
	ev.Str("status", string(status)).
		Int("total_units", sum.TotalUnits).
		Int("violation_count", sum.ViolationCount).
		Int("failed_units", sum.FailedUnits).
		Msg("review finished")

	if s.stats == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.stats.RecordRun(sctx, sum); err != nil {
		log.Warn().Err(err).Msg("run stats not recorded")
	}
}

// Run returns the report of a run; "" or "latest" selects the newest run
func (s *Service) Run(_ context.Context, runID string) (domain.Report, error) {
	r, err := s.runs.get(runID)
	if err != nil {
		return domain.Report{}, err
	}
	return r.report(), nil
}

// Verdict returns the violation retained for unitID
func (s *Service) Verdict(_ context.Context, runID string, unitID int) (analyze.Verdict, error) {
	if unitID <= 0 {
		return analyze.Verdict{}, perr.InvalidArgf("unit id must be positive, got %d", unitID)
	}
	r, err := s.runs.get(runID)
	if err != nil {
		return analyze.Verdict{}, err
	}
	v, ok := r.store.Get(unitID)
	if !ok {
		return analyze.Verdict{}, perr.NotFoundf("no violation recorded for unit %d in run %s", unitID, r.id())
	}
	return v, nil
}

// Export writes the run's current violations to a JSON file
func (s *Service) Export(ctx context.Context, runID string, in domain.ExportInput) (domain.ExportResult, error) {
	r, err := s.runs.get(runID)
	if err != nil {
		return domain.ExportResult{}, err
	}
	path, err := fsroot.Resolve(s.cfg.ExportRoot, in.Path)
	if err != nil {
		return domain.ExportResult{}, err
	}
	if err := r.store.Export(path); err != nil {
		return domain.ExportResult{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "export run %s", r.id())
	}
	n := r.store.Summary().ViolationCount
	logger.C(ctx).Info().Str("run_id", r.id()).Str("path", path).Int("violations", n).Msg("run exported")
	return domain.ExportResult{RunID: r.id(), Path: path, Violations: n}, nil
}

// Archive stores a finished run and its violations durably
func (s *Service) Archive(ctx context.Context, runID string) (domain.ArchiveResult, error) {
	if s.archive == nil {
		return domain.ArchiveResult{}, perr.FailedPreconditionf("archive storage is not configured")
	}
	r, err := s.runs.get(runID)
	if err != nil {
		return domain.ArchiveResult{}, err
	}
	if r.running() {
		return domain.ArchiveResult{}, perr.Conflictf("run %s is still running", r.id())
	}
	vs := r.store.Violations()
	if err := s.archive.Save(ctx, r.snapshot(), vs); err != nil {
		return domain.ArchiveResult{}, err
	}
	return domain.ArchiveResult{RunID: r.id(), Verdicts: len(vs)}, nil
}

// Archived reads an archived run back
func (s *Service) Archived(ctx context.Context, runID string) (domain.ArchivedRun, error) {
	if s.archive == nil {
		return domain.ArchivedRun{}, perr.FailedPreconditionf("archive storage is not configured")
	}
	if _, err := uuid.Parse(runID); err != nil {
		return domain.ArchivedRun{}, perr.InvalidArgf("run id %q is not a uuid", runID)
	}
	return s.archive.Load(ctx, runID)
}

// Stats aggregates recorded runs per generation
func (s *Service) Stats(ctx context.Context, limit int) ([]domain.GenerationStats, error) {
	if s.stats == nil {
		return nil, perr.FailedPreconditionf("run statistics are not configured")
	}
	return s.stats.ByGeneration(ctx, limit)
}
