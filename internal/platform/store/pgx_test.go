package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"contractlens/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type scanRow struct{ err error }

func (r scanRow) Scan(...any) error { return r.err }

type fakePgx struct {
	delay time.Duration
	err   error
}

func (f fakePgx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	time.Sleep(f.delay)
	return pgconn.NewCommandTag("DELETE 3"), f.err
}

func (f fakePgx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.err
}

func (f fakePgx) QueryRow(context.Context, string, ...any) pgx.Row { return scanRow{f.err} }

func collect(events *[]pg.QueryEvent) pg.QueryTracer {
	return pg.TracerFunc(func(_ context.Context, ev pg.QueryEvent) { *events = append(*events, ev) })
}

func TestTraced_ReportsEveryStatement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var evs []pg.QueryEvent
	q := traced{q: fakePgx{}, tracer: collect(&evs)}

	ct, err := q.Exec(ctx, "delete from review_verdicts where run_id = $1", "run-1")
	if err != nil || ct.RowsAffected() != 3 {
		t.Fatalf("Exec = %v, %v", ct, err)
	}
	if err := q.QueryRow(ctx, "select 1").Scan(); err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 || evs[0].Args[0] != "run-1" || evs[0].Slow {
		t.Fatalf("events = %+v", evs)
	}
}

func TestTraced_SlowAndFailed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var evs []pg.QueryEvent
	boom := errors.New("relation does not exist")
	q := traced{q: fakePgx{delay: 2 * time.Millisecond, err: boom}, tracer: collect(&evs), slow: time.Millisecond}

	if _, err := q.Exec(ctx, "select"); !errors.Is(err, boom) {
		t.Fatalf("Exec err = %v", err)
	}
	if rs, err := q.Query(ctx, "select"); rs != nil || !errors.Is(err, boom) {
		t.Fatalf("Query = %v, %v", rs, err)
	}
	if err := q.QueryRow(ctx, "select").Scan(); !errors.Is(err, boom) {
		t.Fatalf("Scan err = %v", err)
	}
	if len(evs) != 3 || !evs[0].Slow || !errors.Is(evs[2].Err, boom) {
		t.Fatalf("events = %+v", evs)
	}
}

func TestTraced_NoTracer(t *testing.T) {
	t.Parallel()

	q := traced{q: fakePgx{}}
	if _, err := q.Exec(context.Background(), "select"); err != nil {
		t.Fatal(err)
	}
}

func TestPGAdapter_NilPing(t *testing.T) {
	t.Parallel()

	var a *pgAdapter
	if err := a.Ping(context.Background()); err == nil {
		t.Fatalf("nil adapter should not ping")
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
}
