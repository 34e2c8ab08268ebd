package store

import (
	"context"
	"fmt"

	"contractlens/internal/platform/store/ch"
)

// chAdapter narrows *ch.CH to the Clickhouse seam, inserts take [][]any rows
type chAdapter struct{ c *ch.CH }

func newCHAdapter(c *ch.CH) Clickhouse { return chAdapter{c: c} }

func (a chAdapter) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return fmt.Errorf("store: clickhouse insert into %s wants [][]any, got %T", table, data)
	}
	return a.c.Insert(ctx, table, rows)
}

func (a chAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.c.Exec(ctx, sql, args...)
}

func (a chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rs}, nil
}

func (a chAdapter) Ping(ctx context.Context) error { return a.c.Ping(ctx) }

func (a chAdapter) Close() error { return a.c.Close() }

// chRows drops the Close error ch returns
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
