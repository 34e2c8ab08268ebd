// Package pg opens the pgx pool behind the review archive and waits for it to answer
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config for Open
type Config struct {
	URL      string
	MaxConns int32

	// Slow marks queries at or above this duration, 0 never marks
	Slow time.Duration

	// Retries bounds the readiness pings, default 20
	Retries int
	// PingTimeout bounds a single ping, default 3s
	PingTimeout time.Duration
}

// PG holds the pool and the tracer every query reports to
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	Slow   time.Duration
}

// seams
var (
	newPool = pgxpool.NewWithConfig
	ping    = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }

	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

// Open builds the pool and blocks until the server answers a ping, the retries run out
// or ctx ends
func Open(ctx context.Context, cfg Config, tracer QueryTracer) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}

	p := &PG{Pool: pool, Tracer: tracer, Slow: cfg.Slow}
	if err := p.waitReady(ctx, cfg.Retries, cfg.PingTimeout); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *PG) waitReady(ctx context.Context, attempts int, timeout time.Duration) error {
	if attempts <= 0 {
		attempts = 20
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	var last error
	wait := backoffStart
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		last = ping(pctx, p.Pool)
		cancel()
		if last == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, backoffCeiling)
	}
	return fmt.Errorf("pg: no answer after %d pings: %w", attempts, last)
}

// Close releases the pool, safe on nil
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
