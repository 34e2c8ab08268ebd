package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/net/middleware"
)

// Tokens authenticates bearer tokens against a fixed list, the caller is named after
// the token's position ("token-1" for the first) so tokens never reach logs or run records
type Tokens struct{ keep []string }

// StaticTokens drops empty entries and returns nil when nothing is left, which leaves routes open
func StaticTokens(tokens ...string) *Tokens {
	var keep []string
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			keep = append(keep, t)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	return &Tokens{keep: keep}
}

// Parse implements middleware.AuthPort
func (p *Tokens) Parse(r *http.Request) (string, error) {
	tok, err := Bearer(r)
	if err != nil {
		return "", err
	}
	if p != nil {
		for i, t := range p.keep {
			if subtle.ConstantTimeCompare([]byte(tok), []byte(t)) == 1 {
				return "token-" + strconv.Itoa(i+1), nil
			}
		}
	}
	return "", perr.Unauthorizedf("invalid bearer token")
}

// Bearer returns the token of an "Authorization: Bearer" header, the scheme is case insensitive
func Bearer(r *http.Request) (string, error) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return strings.TrimSpace(tok), nil
}

// Protected groups routes behind p; a nil port mounts them open
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		if p != nil {
			g.Use(middleware.Auth(p))
		}
		fn(g)
	})
}
