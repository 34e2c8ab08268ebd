// Package store opens the optional backends behind review archiving and run statistics
package store

import (
	"context"
	"errors"
	"fmt"

	"contractlens/internal/platform/logger"

	"github.com/rs/zerolog"
)

// Store holds whichever backends were enabled, the zero value has none
type Store struct {
	Log logger.Logger // handed to the SQL tracer

	PG TxRunner   // archive, nil when disabled
	CH Clickhouse // run statistics, nil when disabled
}

// Option configures Open
type Option func(*Store) error

// WithLogger routes the pg query tracer to log
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

type (
	// Row is one scanned result
	Row interface{ Scan(dest ...any) error }

	// Rows is a forward only result set, callers must Close it
	Rows interface {
		Row
		Next() bool
		Err() error
		Close()
		Columns() []string
	}

	// CommandTag reports what an Exec touched
	CommandTag interface {
		RowsAffected() int64
		String() string
	}

	// RowQuerier is what archive repos issue SQL through, a pool or an open tx
	RowQuerier interface {
		Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
		Query(ctx context.Context, sql string, args ...any) (Rows, error)
		QueryRow(ctx context.Context, sql string, args ...any) Row
	}

	// TxRunner is a pool that can scope fn to one transaction, committing when fn returns nil
	TxRunner interface {
		RowQuerier
		Tx(ctx context.Context, fn func(q RowQuerier) error) error
	}

	// Clickhouse is the columnar sink run statistics go to, Insert takes [][]any rows
	Clickhouse interface {
		Exec(ctx context.Context, sql string, args ...any) error
		Insert(ctx context.Context, table string, data any) error
		Query(ctx context.Context, sql string, args ...any) (Rows, error)
		Close() error
	}

	// Pinger answers readiness probes
	Pinger interface{ Ping(ctx context.Context) error }
)

// Open connects the backends enabled in cfg, a failure closes whatever was already open
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: zerolog.Nop()}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	if cfg.PG.Enabled {
		p, err := openPG(ctx, cfg, s.Log)
		if err != nil {
			return nil, err
		}
		s.PG = p
	}
	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = c
	}
	return s, nil
}

// Guard pings every open backend and joins the failures, used by readiness checks
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("store: nil")
	}
	var errs []error
	for name, b := range s.backends() {
		if p, ok := b.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases every open backend and reports all failures together
func (s *Store) Close(_ context.Context) error {
	var errs []error
	for name, b := range s.backends() {
		c, ok := b.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) backends() map[string]any {
	out := map[string]any{}
	if s.PG != nil {
		out["pg"] = s.PG
	}
	if s.CH != nil {
		out["ch"] = s.CH
	}
	return out
}
