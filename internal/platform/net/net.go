// Package net carries per-request identity and the JSON envelope every transport writes
package net

import (
	"context"
	"net/http"

	perr "contractlens/internal/platform/errors"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// WithRequest stores the request id where chi looks for it, and the caller the auth layer resolved
func WithRequest(ctx context.Context, reqID, caller string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if caller != "" {
		ctx = context.WithValue(ctx, ctxKey{}, caller)
	}
	return ctx
}

// RequestID returns the request id, empty outside a request
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// Caller is the token label that authenticated the request, recorded as requested_by on runs
func Caller(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Envelope wraps every body the API writes
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Success wraps data under status
func Success(status int, data any, reqID string) Envelope {
	return Envelope{StatusCode: status, Status: http.StatusText(status), RequestID: reqID, Data: data}
}

// Failure maps err onto its status and wire code
func Failure(err error, reqID string) (int, Envelope) {
	status := perr.HTTPStatus(err)
	w := perr.WireFrom(err)
	return status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Error:      w.Message,
		Field:      w.Field,
		RequestID:  reqID,
	}
}
