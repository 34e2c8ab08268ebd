// Package repokit is the small surface SQL repos are written against
package repokit

import (
	"context"
	"fmt"
	"time"

	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/store"
)

// TxAttempts bounds how often WithTx reruns a transaction that hit contention
const TxAttempts = 3

// txBackoff is the pause before the second attempt, doubled after each retry
var txBackoff = 50 * time.Millisecond

type (
	// Queryer runs statements, inside or outside a tx
	Queryer = store.RowQuerier
	// TxRunner is a Queryer that can also open a tx
	TxRunner = store.TxRunner
)

// Binder produces a repo bound to one Queryer, typically a tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc lets a plain func act as a Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// WithTx runs fn in one transaction on db, binding the repo to it. Serialization
// failures and deadlocks rerun the whole transaction, so fn must not keep state across calls
func WithTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(repo T) error) error {
	if db == nil {
		panic("repokit: nil TxRunner")
	}
	wait := txBackoff
	for attempt := 1; ; attempt++ {
		err := db.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
		if err == nil || attempt == TxAttempts || !perr.Retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		wait *= 2
	}
}

// MustGuard panics when a configured backend does not answer, for process startup
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
