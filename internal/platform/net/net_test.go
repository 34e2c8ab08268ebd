package net_test

import (
	"context"
	"net/http"
	"testing"

	perr "contractlens/internal/platform/errors"
	pnet "contractlens/internal/platform/net"
)

func TestWithRequest(t *testing.T) {
	t.Parallel()

	base := context.Background()
	ctx := pnet.WithRequest(base, "req-7", "ci-bot")
	if pnet.RequestID(ctx) != "req-7" || pnet.Caller(ctx) != "ci-bot" {
		t.Fatalf("got %q %q", pnet.RequestID(ctx), pnet.Caller(ctx))
	}
	if ctx := pnet.WithRequest(base, "", ""); ctx != base {
		t.Fatalf("empty values should leave the context alone")
	}
	if pnet.Caller(base) != "" || pnet.RequestID(base) != "" {
		t.Fatalf("bare context should carry nothing")
	}
}

func TestEnvelopes(t *testing.T) {
	t.Parallel()

	ok := pnet.Success(http.StatusAccepted, "run-1", "req-1")
	if ok.StatusCode != 202 || ok.Status != "Accepted" || ok.Data != "run-1" || ok.RequestID != "req-1" {
		t.Fatalf("success = %+v", ok)
	}

	err := perr.WithField(perr.Newf(perr.ErrorCodeValidation, "top_k must be at least 1"), "top_k")
	status, env := pnet.Failure(err, "req-2")
	if status != http.StatusBadRequest || env.Code != perr.ErrorCodeValidation || env.Field != "top_k" {
		t.Fatalf("failure = %d %+v", status, env)
	}
	if env.Error != "top_k must be at least 1" || env.Data != nil {
		t.Fatalf("failure body = %+v", env)
	}

	status, env = pnet.Failure(perr.Upstreamf("model timed out"), "")
	if status != http.StatusBadGateway || env.Status != "Bad Gateway" {
		t.Fatalf("upstream = %d %+v", status, env)
	}
}
