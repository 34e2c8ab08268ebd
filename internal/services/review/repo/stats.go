package repo

import (
	"context"
	"time"

	"contractlens/internal/platform/store"
	"contractlens/internal/services/review/domain"

	"github.com/google/uuid"
)

// StatsTable is the ClickHouse table finished runs are appended to
const StatsTable = "review_run_stats"

// StatsSchema creates StatsTable
const StatsSchema = `
CREATE TABLE IF NOT EXISTS review_run_stats (
	run_id          UUID,
	generation_id   String,
	mode            LowCardinality(String),
	status          LowCardinality(String),
	source          String,
	units           UInt32,
	total_units     UInt32,
	violation_count UInt32,
	failed_units    UInt32,
	started_at      DateTime64(3, 'UTC'),
	finished_at     DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (started_at, run_id)
`

// CH implements domain.StatsPort on ClickHouse
type CH struct {
	ch  store.Clickhouse
	now func() time.Time
}

// NewCH wraps a ClickHouse seam
func NewCH(ch store.Clickhouse) *CH {
	if ch == nil {
		panic("review.repo.CH requires a non nil Clickhouse")
	}
	return &CH{ch: ch, now: time.Now}
}

// EnsureSchema creates the stats table
func (c *CH) EnsureSchema(ctx context.Context) error {
	return c.ch.Exec(ctx, StatsSchema)
}

// RecordRun appends one row for a finished run
func (c *CH) RecordRun(ctx context.Context, run domain.RunSummary) error {
	id, err := uuid.Parse(run.RunID)
	if err != nil {
		return err
	}
	finished := c.now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}
	return c.ch.Insert(ctx, StatsTable, [][]any{{
		id,
		run.GenerationID,
		run.Mode,
		string(run.Status),
		run.Source,
		uint32(run.Units),
		uint32(run.TotalUnits),
		uint32(run.ViolationCount),
		uint32(run.FailedUnits),
		run.StartedAt.UTC(),
		finished,
	}})
}

// ByGeneration sums recorded runs per generation, busiest first
func (c *CH) ByGeneration(ctx context.Context, limit int) ([]domain.GenerationStats, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const sql = `
SELECT generation_id, count() AS runs, sum(total_units), sum(violation_count), sum(failed_units)
FROM review_run_stats
GROUP BY generation_id
ORDER BY runs DESC, generation_id
LIMIT ?
`
	rows, err := c.ch.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GenerationStats
	for rows.Next() {
		var g domain.GenerationStats
		if err := rows.Scan(&g.GenerationID, &g.Runs, &g.Units, &g.ViolationCount, &g.FailedUnits); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
