package http

import (
	"bytes"
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/generation"
	"contractlens/internal/modkit/httpkit"
	phttp "contractlens/internal/platform/net/http"
	"contractlens/internal/services/indexer/domain"

	"github.com/go-chi/chi/v5"
)

type fakeIndexer struct{ last domain.BuildInput }

func (f *fakeIndexer) Build(_ context.Context, in domain.BuildInput) (domain.BuildResult, error) {
	f.last = in
	if in.ModelType == "ollama" {
		return domain.BuildResult{}, embedding.ErrMismatch
	}
	return domain.BuildResult{Generation: generation.Generation{ID: "store_openai_m_20250101_000000"}, Passages: 2}, nil
}

func (f *fakeIndexer) List(context.Context) ([]domain.GenerationView, error) {
	return []domain.GenerationView{{ID: "store_openai_m_20250101_000000", Valid: true, Latest: true, Compatible: true}}, nil
}

func serve(t *testing.T) (*httptest.Server, *fakeIndexer) {
	t.Helper()
	f := &fakeIndexer{}
	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/generations", func(rr httpkit.Router) { Register(rr, f) })
	srv := httptest.NewServer(r.Mux())
	t.Cleanup(srv.Close)
	return srv, f
}

func TestList(t *testing.T) {
	t.Parallel()
	srv, _ := serve(t)

	resp, err := stdhttp.Get(srv.URL + "/generations")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode != stdhttp.StatusOK || !strings.Contains(buf.String(), `"latest":true`) {
		t.Fatalf("list: %d %s", resp.StatusCode, buf.String())
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()
	srv, f := serve(t)

	post := func(body string) int {
		resp, err := stdhttp.Post(srv.URL+"/generations", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(`{"csv_path":"reference/clauses.csv","model":"m"}`); code != stdhttp.StatusCreated {
		t.Fatalf("create: %d", code)
	}
	if f.last.CSVPath != "reference/clauses.csv" || f.last.Model != "m" {
		t.Fatalf("input = %+v", f.last)
	}
	if code := post(`{"csv_path":"a.csv","model_type":"ollama"}`); code != stdhttp.StatusConflict {
		t.Fatalf("mismatch: %d", code)
	}
	if code := post(`{"csv_path":"a.csv","model_type":"huggingface"}`); code != stdhttp.StatusBadRequest {
		t.Fatalf("unsupported model type: %d", code)
	}
	if code := post(`{}`); code != stdhttp.StatusBadRequest {
		t.Fatalf("missing csv_path: %d", code)
	}
}
