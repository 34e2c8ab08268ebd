package store

import (
	"context"
	"time"

	"contractlens/internal/platform/logger"
	chx "contractlens/internal/platform/store/ch"
	"contractlens/internal/platform/store/pg"
)

func openPG(ctx context.Context, cfg Config, log logger.Logger) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.LogTracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:         cfg.PG.URL,
		MaxConns:    cfg.PG.MaxConns,
		Slow:        time.Duration(cfg.PG.SlowQueryMs) * time.Millisecond,
		Retries:     cfg.PG.ConnectRetries,
		PingTimeout: cfg.PG.PingTimeout,
	}, tracer)
	if err != nil {
		return nil, err
	}
	return newPGAdapter(p), nil
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.AppName})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
