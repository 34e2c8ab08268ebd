// Package repo provides postgres and clickhouse storage for review runs
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"contractlens/internal/core/analyze"
	"contractlens/internal/modkit/repokit"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/services/review/domain"

	"github.com/jackc/pgx/v5"
)

// Schema creates the archive tables
const Schema = `
CREATE TABLE IF NOT EXISTS review_runs (
	run_id          uuid PRIMARY KEY,
	generation_id   text NOT NULL,
	mode            text NOT NULL,
	source          text NOT NULL,
	status          text NOT NULL,
	units           integer NOT NULL,
	total_units     integer NOT NULL,
	violation_count integer NOT NULL,
	failed_units    integer NOT NULL,
	error           text NOT NULL DEFAULT '',
	requested_by    text NOT NULL DEFAULT '',
	started_at      timestamptz NOT NULL,
	finished_at     timestamptz,
	archived_at     timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS review_verdicts (
	run_id           uuid NOT NULL REFERENCES review_runs (run_id) ON DELETE CASCADE,
	unit_id          integer NOT NULL,
	page_number      integer NOT NULL,
	text             text NOT NULL,
	detection_flag   text NOT NULL,
	reason           text NOT NULL,
	suggestion       text NOT NULL,
	refs             text[] NOT NULL DEFAULT '{}',
	raw_model_output text NOT NULL,
	parse_tier       text NOT NULL,
	PRIMARY KEY (run_id, unit_id)
);
`

// Repo is the archive storage contract
type Repo interface {
	EnsureSchema(ctx context.Context) error
	SaveRun(ctx context.Context, run domain.RunSummary) error
	ReplaceVerdicts(ctx context.Context, runID string, vs []analyze.Verdict) error
	LoadRun(ctx context.Context, runID string) (domain.ArchivedRun, error)
	LoadVerdicts(ctx context.Context, runID string) ([]analyze.Verdict, error)
}

type (
	// PG implements the Repo binder for Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, Schema)
	return err
}

func (r *queries) SaveRun(ctx context.Context, run domain.RunSummary) error {
	const sql = `
insert into review_runs
	(run_id, generation_id, mode, source, status, units, total_units, violation_count, failed_units,
	error, requested_by, started_at, finished_at, archived_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
on conflict (run_id) do update set
	status = excluded.status,
	units = excluded.units,
	total_units = excluded.total_units,
	violation_count = excluded.violation_count,
	failed_units = excluded.failed_units,
	error = excluded.error,
	finished_at = excluded.finished_at,
	archived_at = now()
`
	_, err := r.q.Exec(ctx, sql,
		run.RunID, run.GenerationID, run.Mode, run.Source, string(run.Status), run.Units,
		run.TotalUnits, run.ViolationCount, run.FailedUnits, run.Error, run.RequestedBy, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return perr.FromPostgresf(err, "save run %s", run.RunID)
	}
	return nil
}

func (r *queries) ReplaceVerdicts(ctx context.Context, runID string, vs []analyze.Verdict) error {
	if _, err := r.q.Exec(ctx, `delete from review_verdicts where run_id = $1`, runID); err != nil {
		return perr.FromPostgresf(err, "clear verdicts of run %s", runID)
	}
	if len(vs) == 0 {
		return nil
	}

	const cols = 10
	var sb strings.Builder
	sb.WriteString(`insert into review_verdicts
	(run_id, unit_id, page_number, text, detection_flag, reason, suggestion, refs, raw_model_output, parse_tier)
values `)
	args := make([]any, 0, len(vs)*cols)
	for i, v := range vs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*cols + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		refs := v.References
		if refs == nil {
			refs = []string{}
		}
		args = append(args,
			runID, v.UnitID, v.PageNumber, v.Text, v.Flag, v.Reason, v.Suggestion,
			refs, v.RawOutput, v.ParseTier.String(),
		)
	}
	if _, err := r.q.Exec(ctx, sb.String(), args...); err != nil {
		return perr.FromPostgresf(err, "insert verdicts of run %s", runID)
	}
	return nil
}

func (r *queries) LoadRun(ctx context.Context, runID string) (domain.ArchivedRun, error) {
	const sql = `
select run_id::text, generation_id, mode, source, status, units, total_units, violation_count,
	failed_units, error, requested_by, started_at, finished_at, archived_at
from review_runs
where run_id = $1
`
	var (
		out      domain.ArchivedRun
		status   string
		finished *time.Time
	)
	err := r.q.QueryRow(ctx, sql, runID).Scan(
		&out.RunID,
		&out.GenerationID,
		&out.Mode,
		&out.Source,
		&status,
		&out.Units,
		&out.TotalUnits,
		&out.ViolationCount,
		&out.FailedUnits,
		&out.Error,
		&out.RequestedBy,
		&out.StartedAt,
		&finished,
		&out.ArchivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, stdsql.ErrNoRows) {
			return domain.ArchivedRun{}, perr.NotFoundf("run %s is not archived", runID)
		}
		return domain.ArchivedRun{}, perr.FromPostgresf(err, "load run %s", runID)
	}
	out.Status = domain.RunStatus(status)
	out.FinishedAt = finished
	return out, nil
}

func (r *queries) LoadVerdicts(ctx context.Context, runID string) ([]analyze.Verdict, error) {
	const sql = `
select unit_id, page_number, text, detection_flag, reason, suggestion, refs, raw_model_output, parse_tier
from review_verdicts
where run_id = $1
order by unit_id
`
	rows, err := r.q.Query(ctx, sql, runID)
	if err != nil {
		return nil, perr.FromPostgresf(err, "load verdicts of run %s", runID)
	}
	defer rows.Close()

	var out []analyze.Verdict
	for rows.Next() {
		var (
			v    analyze.Verdict
			tier string
		)
		if err := rows.Scan(
			&v.UnitID,
			&v.PageNumber,
			&v.Text,
			&v.Flag,
			&v.Reason,
			&v.Suggestion,
			&v.References,
			&v.RawOutput,
			&tier,
		); err != nil {
			return nil, err
		}
		_ = v.ParseTier.UnmarshalText([]byte(tier))
		v.IsViolation = v.Flag == analyze.FlagViolation
		out = append(out, v)
	}
	return out, rows.Err()
}
