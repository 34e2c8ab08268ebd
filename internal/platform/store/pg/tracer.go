package pg

import (
	"context"
	"strings"
	"time"

	"contractlens/internal/platform/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer receives every statement the store runs
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// TracerFunc adapts a func to QueryTracer
type TracerFunc func(ctx context.Context, ev QueryEvent)

// OnQuery calls f
func (f TracerFunc) OnQuery(ctx context.Context, ev QueryEvent) { f(ctx, ev) }

// LogTracer writes statements to log regardless of the root level, so enabling
// SQL logging does not require debug logging everywhere
func LogTracer(log logger.Logger) QueryTracer {
	l := log.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return TracerFunc(func(ctx context.Context, ev QueryEvent) {
		var e *zerolog.Event
		switch {
		case ev.Err != nil:
			e = l.Error().Err(ev.Err)
		case ev.Slow:
			e = l.Warn()
		default:
			e = l.Debug()
		}
		e.Str("req_id", middleware.GetReqID(ctx)).
			Dur("elapsed", ev.Elapsed).
			Bool("slow", ev.Slow).
			Str("sql", squash(ev.SQL)).
			Int("args", len(ev.Args)).
			Msg("pg query")
	})
}

// squash folds every whitespace run into one space
func squash(sql string) string { return strings.Join(strings.Fields(sql), " ") }
