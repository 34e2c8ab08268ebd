package service

import (
	"context"

	"contractlens/internal/core/analyze"
	"contractlens/internal/modkit/repokit"
	"contractlens/internal/services/review/domain"
	"contractlens/internal/services/review/repo"
)

// Archive implements domain.ArchivePort on postgres
type Archive struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
}

var _ domain.ArchivePort = (*Archive)(nil)

// NewArchive binds the archive repo to db
func NewArchive(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Archive {
	if db == nil {
		panic("review.Archive requires a non nil TxRunner")
	}
	if binder == nil {
		panic("review.Archive requires a non nil Repo binder")
	}
	return &Archive{db: db, binder: binder}
}

// EnsureSchema creates the archive tables
func (a *Archive) EnsureSchema(ctx context.Context) error {
	return a.binder.Bind(a.db).EnsureSchema(ctx)
}

// Save writes the run row and replaces its verdicts in one transaction
func (a *Archive) Save(ctx context.Context, run domain.RunSummary, vs []analyze.Verdict) error {
	return repokit.WithTx(ctx, a.db, a.binder, func(r repo.Repo) error {
		if err := r.SaveRun(ctx, run); err != nil {
			return err
		}
		return r.ReplaceVerdicts(ctx, run.RunID, vs)
	})
}

// Load reads a run and its verdicts
func (a *Archive) Load(ctx context.Context, runID string) (domain.ArchivedRun, error) {
	r := a.binder.Bind(a.db)
	out, err := r.LoadRun(ctx, runID)
	if err != nil {
		return domain.ArchivedRun{}, err
	}
	vs, err := r.LoadVerdicts(ctx, runID)
	if err != nil {
		return domain.ArchivedRun{}, err
	}
	if vs == nil {
		vs = []analyze.Verdict{}
	}
	out.Verdicts = vs
	return out, nil
}
