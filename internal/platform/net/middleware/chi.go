// Package middleware holds the request pipeline the API mounts in front of every module
package middleware

import (
	"compress/flate"
	"encoding/json"
	"net/http"
	"time"

	pnet "contractlens/internal/platform/net"
	pstrings "contractlens/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the stdlib shape chi composes
type Middleware = func(http.Handler) http.Handler

// CORSOptions narrows go-chi/cors to what the API exposes in config
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS lets browser clients call the API, reviews are POSTed with a bearer token
func CORS(o CORSOptions) Middleware {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: pstrings.IfEmpty(o.AllowedOrigins, []string{"*"}),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         o.MaxAge,
	})
}

// StackOptions tunes Stack. Untimed requests skip Timeout
type StackOptions struct {
	Timeout time.Duration
	Untimed func(*http.Request) bool
	Slow    time.Duration
	CORS    CORSOptions
}

// Stack is the ordered chain in front of the versioned API: identity first, then safety,
// logging and transport concerns, the timeout last so it only covers handler work
func Stack(o StackOptions) []Middleware {
	stack := []Middleware{
		chimw.RequestID,
		chimw.RealIP,
		RecoverJSON,
		chimw.NoCache,
		AccessLog(o.Slow),
		CORS(o.CORS),
		chimw.NewCompressor(flate.BestSpeed).Handler,
		chimw.StripSlashes,
	}
	if o.Timeout > 0 {
		stack = append(stack, Timeout(o.Timeout, o.Untimed))
	}
	return stack
}

// Timeout is chi's Timeout for every request skip does not match
func Timeout(d time.Duration, skip func(*http.Request) bool) Middleware {
	bounded := chimw.Timeout(d)
	return func(next http.Handler) http.Handler {
		timed := bounded(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip != nil && skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			timed.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, env := pnet.Failure(err, pnet.RequestID(r.Context()))
	writeJSON(w, status, env)
}
