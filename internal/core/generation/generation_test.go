package generation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/vecindex"
	perr "contractlens/internal/platform/errors"
)

var ident = embedding.Identity{ModelType: "openai", Model: "openai/text-embedding-3-small"}

func clockAt(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func create(t *testing.T, root, ts string) Generation {
	t.Helper()
	c := NewCatalog(root, WithClock(clockAt(ts)))
	g, err := c.Create(context.Background(), ident,
		[]vecindex.Passage{{Text: "a"}, {Text: "b"}},
		[][]float32{{0, 1}, {1, 0}})
	if err != nil {
		t.Fatalf("Create(%s): %v", ts, err)
	}
	return g
}

func TestNameAndParse(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 34, 56, 0, time.UTC)
	name := Name(embedding.Identity{ModelType: "Ollama", Model: "bge_m3"}, ts)
	if name != "store_ollama_bge_m3_20240301_123456" {
		t.Fatalf("Name = %q", name)
	}
	pn, err := ParseName(name)
	if err != nil {
		t.Fatalf("ParseName: %v", err)
	}
	if pn.ModelType != "ollama" || pn.ModelShort != "bge_m3" || !pn.Timestamp.Equal(ts) {
		t.Fatalf("parsed = %+v", pn)
	}

	for _, bad := range []string{
		"store_openai_20240301_123456",
		"store_openai_m_2024_123456",
		"other_openai_m_20240301_123456",
		"../store_openai_m_20240301_123456",
	} {
		if _, err := ParseName(bad); !errors.Is(err, ErrInvalid) {
			t.Fatalf("ParseName(%q) err = %v", bad, err)
		}
	}
}

func TestSelect_LatestTimestamp(t *testing.T) {
	root := t.TempDir()
	create(t, root, "2024-03-01T10:00:00Z")
	newest := create(t, root, "2024-05-01T09:00:00Z")
	create(t, root, "2024-04-01T23:59:59Z")

	// newer name but unreadable metadata
	broken := filepath.Join(root, "store_openai_x_20991231_000000")
	if err := os.MkdirAll(filepath.Join(broken, IndexDir), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(broken, MetadataFile), []byte("{not json"), 0o644)

	c := NewCatalog(root)
	got, err := c.Select("")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.ID != newest.ID {
		t.Fatalf("Select picked %s, want %s", got.ID, newest.ID)
	}

	entries, err := c.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var invalid int
	for _, e := range entries {
		if !e.Valid {
			invalid++
			if e.ID != filepath.Base(broken) || e.Problem == "" {
				t.Fatalf("unexpected invalid entry %+v", e)
			}
		}
	}
	if len(entries) != 4 || invalid != 1 {
		t.Fatalf("entries=%d invalid=%d", len(entries), invalid)
	}

	if _, err := c.Select(filepath.Base(broken)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("explicit invalid select err = %v", err)
	}
	if perr.HTTPStatus(ErrInvalid) != 422 {
		t.Fatalf("ErrInvalid status = %d", perr.HTTPStatus(ErrInvalid))
	}
}

func TestSelect_MissingIndexIsInvalid(t *testing.T) {
	root := t.TempDir()
	g := create(t, root, "2024-03-01T10:00:00Z")
	if err := os.Remove(filepath.Join(g.IndexPath(), vecindex.VectorsFile)); err != nil {
		t.Fatal(err)
	}
	c := NewCatalog(root)
	if _, err := c.Select(""); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.Select(g.ID); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestSelect_Unknown(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "absent"))
	if _, err := c.Select(""); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("empty root err = %v", err)
	}
	if _, err := c.Select("store_openai_m_20240301_123456"); perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("unknown id err = %v", err)
	}
}

func TestCreate_OpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	g := create(t, root, "2024-03-01T10:00:00Z")

	if !strings.HasPrefix(g.ID, "store_openai_text-embedding-3-small_20240301_100000") {
		t.Fatalf("id = %s", g.ID)
	}
	if !g.Metadata.Identity().Equal(ident) || g.Metadata.DocumentCount != 2 {
		t.Fatalf("metadata = %+v", g.Metadata)
	}

	c := NewCatalog(root)
	sel, err := c.Select(g.ID)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	x, err := c.Open(sel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	hits, err := x.Query([]float32{1, 0}, 1)
	if err != nil || len(hits) != 1 || hits[0].Passage.Text != "b" {
		t.Fatalf("hits=%v err=%v", hits, err)
	}

	des, _ := os.ReadDir(root)
	for _, de := range des {
		if strings.HasPrefix(de.Name(), stagePref) {
			t.Fatalf("staging dir left behind: %s", de.Name())
		}
	}
}

func TestCreate_Conflict(t *testing.T) {
	root := t.TempDir()
	create(t, root, "2024-03-01T10:00:00Z")
	c := NewCatalog(root, WithClock(clockAt("2024-03-01T10:00:00Z")))
	_, err := c.Create(context.Background(), ident, []vecindex.Passage{{Text: "a"}}, [][]float32{{1}})
	if perr.CodeOf(err) != perr.ErrorCodeConflict {
		t.Fatalf("err = %v", err)
	}
}

func TestCreate_FailedBuildLeavesNothing(t *testing.T) {
	root := t.TempDir()
	c := NewCatalog(root)
	if _, err := c.Create(context.Background(), ident, []vecindex.Passage{{Text: "a"}}, nil); err == nil {
		t.Fatalf("expected build error")
	}
	des, _ := os.ReadDir(root)
	if len(des) != 0 {
		t.Fatalf("root not empty: %v", des)
	}
}
