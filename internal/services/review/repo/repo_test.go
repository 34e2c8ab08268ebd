package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"contractlens/internal/core/analyze"
	"contractlens/internal/platform/store"
	"contractlens/internal/services/review/domain"

	"github.com/google/uuid"
)

type execCall struct {
	sql  string
	args []any
}

type fakeQ struct {
	execs []execCall
}

func (f *fakeQ) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return nil, nil
}

func (f *fakeQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }

func (f *fakeQ) QueryRow(context.Context, string, ...any) store.Row { return nil }

func TestReplaceVerdicts_BuildsOneInsert(t *testing.T) {
	t.Parallel()

	q := &fakeQ{}
	r := NewPG().Bind(q)
	vs := []analyze.Verdict{
		{UnitID: 1, PageNumber: 1, Text: "a", Flag: analyze.FlagViolation, ParseTier: analyze.TierStrict},
		{UnitID: 4, PageNumber: 2, Text: "b", Flag: analyze.FlagViolation, References: []string{"ref"}},
	}
	if err := r.ReplaceVerdicts(context.Background(), "run-1", vs); err != nil {
		t.Fatalf("ReplaceVerdicts: %v", err)
	}
	if len(q.execs) != 2 {
		t.Fatalf("want delete + insert, got %d statements", len(q.execs))
	}
	if !strings.HasPrefix(q.execs[0].sql, "delete from review_verdicts") {
		t.Fatalf("first statement = %q", q.execs[0].sql)
	}
	ins := q.execs[1]
	if !strings.Contains(ins.sql, "($11,$12,$13,$14,$15,$16,$17,$18,$19,$20)") {
		t.Fatalf("second row placeholders missing: %s", ins.sql)
	}
	if len(ins.args) != 20 {
		t.Fatalf("args = %d", len(ins.args))
	}
	if refs, ok := ins.args[7].([]string); !ok || refs == nil {
		t.Fatalf("nil references must be stored as an empty array, got %#v", ins.args[7])
	}
	if ins.args[9] != analyze.TierStrict.String() {
		t.Fatalf("parse tier arg = %v", ins.args[9])
	}
}

func TestReplaceVerdicts_EmptyOnlyClears(t *testing.T) {
	t.Parallel()

	q := &fakeQ{}
	if err := NewPG().Bind(q).ReplaceVerdicts(context.Background(), "run-1", nil); err != nil {
		t.Fatal(err)
	}
	if len(q.execs) != 1 {
		t.Fatalf("statements = %d", len(q.execs))
	}
}

type fakeCH struct {
	table string
	rows  [][]any
	execs []string
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	f.table = table
	f.rows = data.([][]any)
	return nil
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }

func (f *fakeCH) Close() error { return nil }

func TestRecordRun_RowShape(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{}
	c := NewCH(ch)
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	id := uuid.New()
	run := domain.RunSummary{
		RunID:        id.String(),
		Status:       domain.RunDone,
		GenerationID: "store_openai_m_20250101_000000",
		Mode:         "numbered",
		Source:       "inline",
		Units:        5,
		StartedAt:    fixed.Add(-time.Minute),
	}
	run.TotalUnits, run.ViolationCount, run.FailedUnits = 5, 2, 1

	if err := c.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if ch.table != StatsTable || len(ch.rows) != 1 {
		t.Fatalf("insert = %s %v", ch.table, ch.rows)
	}
	row := ch.rows[0]
	if row[0] != id || row[3] != "done" || row[7] != uint32(2) || row[8] != uint32(1) {
		t.Fatalf("row = %#v", row)
	}
	if row[10] != fixed {
		t.Fatalf("unfinished run should use now, got %v", row[10])
	}

	if err := c.RecordRun(context.Background(), domain.RunSummary{RunID: "nope"}); err == nil {
		t.Fatalf("expected error for a non uuid run id")
	}
}

func TestCH_EnsureSchema(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{}
	if err := NewCH(ch).EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(ch.execs) != 1 || !strings.Contains(ch.execs[0], StatsTable) {
		t.Fatalf("execs = %v", ch.execs)
	}
}
