package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	cases := map[error]int{
		NotFoundf("run %s", "r1"):                    http.StatusNotFound,
		InvalidArgf("top_k"):                         http.StatusUnprocessableEntity,
		JSONErrf("empty body"):                       http.StatusBadRequest,
		New(ErrorCodeValidation, "text is required"): http.StatusBadRequest,
		Unauthorizedf("missing bearer token"):        http.StatusUnauthorized,
		Conflictf("generation exists"):               http.StatusConflict,
		FailedPreconditionf("embedder mismatch"):     http.StatusConflict,
		Upstreamf("model timed out"):                 http.StatusBadGateway,
		New(ErrorCodeTooManyRequests, "slow down"):   http.StatusTooManyRequests,
		PanicErrf("internal error"):                  http.StatusInternalServerError,
		stderrs.New("foreign"):                       http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := HTTPStatus(err); got != want {
			t.Fatalf("%v: status %d, want %d", err, got, want)
		}
	}
}

func TestWrapAndWire(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("dial tcp: refused")
	err := Wrapf(cause, ErrorCodeUpstream, "embed %d texts", 3)
	if err.Error() != "embed 3 texts: dial tcp: refused" {
		t.Fatalf("Error() = %q", err)
	}
	if !stderrs.Is(err, cause) || Root(err) != cause {
		t.Fatalf("cause lost")
	}

	outer := fmt.Errorf("review: %w", WithField(err, "text"))
	w := WireFrom(outer)
	if w.Code != ErrorCodeUpstream || w.Message != "embed 3 texts" || w.Field != "text" {
		t.Fatalf("wire = %+v", w)
	}
	if e, ok := As(outer); !ok || e.Code() != ErrorCodeUpstream || e.Field() != "text" {
		t.Fatalf("As = %v %v", e, ok)
	}
	if !IsCode(outer, ErrorCodeUpstream) {
		t.Fatalf("IsCode")
	}

	if w := WireFrom(stderrs.New("plain")); w.Code != ErrorCodeUnknown || w.Message != "plain" {
		t.Fatalf("foreign wire = %+v", w)
	}
	if WireFrom(nil) != (Wire{}) || Root(nil) != nil {
		t.Fatalf("nil handling")
	}
	if WithField(cause, "x") != cause {
		t.Fatalf("foreign errors should pass through WithField")
	}

	orig := NotFoundf("run r1")
	_ = WithField(orig, "run_id")
	if e, _ := As(orig); e.Field() != "" {
		t.Fatalf("WithField mutated its input")
	}
}

func TestFromPostgresf(t *testing.T) {
	t.Parallel()

	if FromPostgresf(nil, "save run %s", "r1") != nil {
		t.Fatalf("nil should stay nil")
	}

	dup := FromPostgresf(&pgconn.PgError{Code: "23505"}, "save run %s", "r1")
	if CodeOf(dup) != ErrorCodeDuplicateKey || WireFrom(dup).Message != "save run r1" {
		t.Fatalf("dup = %v", dup)
	}

	nn := FromPostgresf(fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23502", ColumnName: "generation_id"}), "insert")
	if CodeOf(nn) != ErrorCodeValidation || WireFrom(nn).Field != "generation_id" {
		t.Fatalf("not null = %+v", WireFrom(nn))
	}

	if CodeOf(FromPostgresf(&pgconn.PgError{Code: "XX000"}, "x")) != ErrorCodeDB {
		t.Fatalf("unmapped state should be a DB error")
	}
	if CodeOf(FromPostgresf(stderrs.New("conn closed"), "x")) != ErrorCodeDB {
		t.Fatalf("foreign errors should be DB errors")
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&pgconn.PgError{Code: "40001"}, true},
		{fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"}), true},
		{&pgconn.PgError{Code: "23505"}, false},
		{stderrs.New("commit unexpectedly resulted in rollback"), true},
		{Wrapf(stderrs.New("ERROR: deadlock detected"), ErrorCodeDB, "archive"), true},
		{fmt.Errorf("archive: %w", context.DeadlineExceeded), false},
		{stderrs.New("syntax error"), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v) = %v", tc.err, got)
		}
	}
}
