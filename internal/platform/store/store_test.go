package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpen_Backends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("none enabled", func(t *testing.T) {
		s, err := Open(ctx, Config{}, WithLogger(zerolog.Nop()))
		if err != nil || s.PG != nil || s.CH != nil {
			t.Fatalf("store = %+v, err = %v", s, err)
		}
		if err := s.Guard(ctx); err != nil {
			t.Fatalf("Guard on empty store: %v", err)
		}
		if err := s.Close(ctx); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})

	t.Run("clickhouse only", func(t *testing.T) {
		// the driver dials lazily
		s, err := Open(ctx, Config{AppName: "review", CH: CHConfig{Enabled: true, URL: "clickhouse://127.0.0.1:9000/default"}})
		if err != nil || s.CH == nil || s.PG != nil {
			t.Fatalf("store = %+v, err = %v", s, err)
		}
		_ = s.Close(ctx)
	})

	t.Run("bad postgres url stops before clickhouse", func(t *testing.T) {
		s, err := Open(ctx, Config{
			PG: PGConfig{Enabled: true, URL: "://bad"},
			CH: CHConfig{Enabled: true, URL: "clickhouse://127.0.0.1:9000/default"},
		})
		if err == nil || s != nil {
			t.Fatalf("store = %+v, err = %v", s, err)
		}
	})

	t.Run("option error", func(t *testing.T) {
		_, err := Open(ctx, Config{}, func(*Store) error { return errors.New("nope") })
		if err == nil {
			t.Fatalf("expected option error")
		}
	})
}

type pingTx struct {
	TxRunner
	err    error
	closed bool
}

func (p *pingTx) Ping(context.Context) error { return p.err }
func (p *pingTx) Close() error               { p.closed = true; return nil }

type pingCH struct {
	Clickhouse
	err error
}

func (p pingCH) Ping(context.Context) error { return p.err }
func (p pingCH) Close() error               { return nil }

func TestGuard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var nilStore *Store
	if err := nilStore.Guard(ctx); err == nil {
		t.Fatalf("nil store should fail")
	}

	pgx := &pingTx{}
	s := &Store{PG: pgx, CH: pingCH{}}
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("healthy: %v", err)
	}

	s = &Store{PG: &pingTx{err: errors.New("refused")}, CH: pingCH{err: errors.New("timeout")}}
	err := s.Guard(ctx)
	if err == nil || !strings.Contains(err.Error(), "pg: refused") || !strings.Contains(err.Error(), "ch: timeout") {
		t.Fatalf("err = %v", err)
	}

	if err := (&Store{PG: pgx}).Close(ctx); err != nil || !pgx.closed {
		t.Fatalf("Close: %v closed=%v", err, pgx.closed)
	}
}
