package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "contractlens/internal/platform/errors"
	phttp "contractlens/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type note struct {
	Text string `json:"text" validate:"required"`
}

func do(r Router, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, req)
	return rr
}

func TestMountAPIV1_Routes(t *testing.T) {
	t.Parallel()

	r := phttp.AdaptChi(chi.NewRouter())
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Mw", "v1")
			next.ServeHTTP(w, r)
		})
	}
	MountAPIV1(r, []func(http.Handler) http.Handler{tag}, func(api Router) {
		MountUnder(api, "/reviews", nil, func(sub Router) {
			Get(sub, "/{run_id}", func(r *http.Request) (any, error) { return Param(r, "run_id"), nil })
			Post(sub, "/{run_id}/archive", func(*http.Request) (any, error) { return Created("archived"), nil })
			PostJSON(sub, "/", func(_ *http.Request, in note) (any, error) { return Accepted(in.Text), nil })
		})
	})

	cases := []struct {
		method, path, body string
		code               int
		has                string
	}{
		{"GET", "/api/v1/reviews/r1", "", 200, `"data":"r1"`},
		{"POST", "/api/v1/reviews/r1/archive", "", 201, `"archived"`},
		{"POST", "/api/v1/reviews/", `{"text":"clause"}`, 202, `"clause"`},
		{"POST", "/api/v1/reviews/", `{}`, 400, `"field":"text"`},
		{"GET", "/api/v2/reviews/r1", "", 404, ""},
	}
	for _, tc := range cases {
		rr := do(r, tc.method, tc.path, tc.body, "")
		if rr.Code != tc.code || !strings.Contains(rr.Body.String(), tc.has) {
			t.Fatalf("%s %s = %d %s", tc.method, tc.path, rr.Code, rr.Body.String())
		}
		if tc.code != 404 && rr.Header().Get("X-Mw") != "v1" {
			t.Fatalf("%s %s skipped api middleware", tc.method, tc.path)
		}
	}
}

func TestBearer(t *testing.T) {
	t.Parallel()

	for hdr, want := range map[string]string{
		"Bearer abc":    "abc",
		"bearer  abc ":  "abc",
		"BEARER x.y.z":  "x.y.z",
		"":              "",
		"Bearer":        "",
		"Bearer   ":     "",
		"Basic dXNlcjp": "",
	} {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", hdr)
		got, err := Bearer(r)
		if want == "" {
			if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
				t.Fatalf("%q: err = %v", hdr, err)
			}
			continue
		}
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", hdr, got, err)
		}
	}
}

func TestStaticTokens(t *testing.T) {
	t.Parallel()

	if StaticTokens("", "  ") != nil {
		t.Fatalf("blank tokens should leave routes open")
	}

	p := StaticTokens("", "alpha", "beta")
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer beta")
	if caller, err := p.Parse(r); err != nil || caller != "token-2" {
		t.Fatalf("beta = %q, %v", caller, err)
	}
	r.Header.Set("Authorization", "Bearer gamma")
	if _, err := p.Parse(r); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("gamma err = %v", err)
	}

	var none *Tokens
	if _, err := none.Parse(r); err == nil {
		t.Fatalf("nil tokens must not authenticate")
	}
}

func TestProtected(t *testing.T) {
	t.Parallel()

	r := phttp.AdaptChi(chi.NewRouter())
	Get(r, "/open", func(*http.Request) (any, error) { return "ok", nil })
	Protected(r, StaticTokens("s3cret"), func(pr Router) {
		Get(pr, "/closed", func(*http.Request) (any, error) { return "ok", nil })
	})
	Protected(r, nil, func(pr Router) {
		Get(pr, "/unguarded", func(*http.Request) (any, error) { return "ok", nil })
	})

	if rr := do(r, "GET", "/open", "", ""); rr.Code != 200 {
		t.Fatalf("open = %d", rr.Code)
	}
	if rr := do(r, "GET", "/unguarded", "", ""); rr.Code != 200 {
		t.Fatalf("unguarded = %d", rr.Code)
	}
	if rr := do(r, "GET", "/closed", "", ""); rr.Code != 401 {
		t.Fatalf("closed without token = %d", rr.Code)
	}
	if rr := do(r, "GET", "/closed", "", "Bearer s3cret"); rr.Code != 200 {
		t.Fatalf("closed with token = %d", rr.Code)
	}
}

func TestCommonStackTimeout(t *testing.T) {
	t.Parallel()

	if len(CommonStackTimeout(0)) != len(CommonStackTimeout(DefaultRequestTimeout)) {
		t.Fatalf("zero timeout should fall back to the default")
	}
}

func TestLongRunning(t *testing.T) {
	t.Parallel()

	cases := []struct {
		method, path string
		want         bool
	}{
		{http.MethodPost, "/api/v1/reviews", true},
		{http.MethodPost, "/api/v1/reviews/", true},
		{http.MethodPost, "/api/v1/generations", true},
		{http.MethodGet, "/api/v1/reviews", false},
		{http.MethodPost, "/api/v1/reviews/r1/export", false},
		{http.MethodPost, "/api/v1/reviews/r1/archive", false},
	}
	for _, tc := range cases {
		if got := LongRunning(httptest.NewRequest(tc.method, tc.path, nil)); got != tc.want {
			t.Errorf("LongRunning(%s %s) = %v, want %v", tc.method, tc.path, got, tc.want)
		}
	}
}
