package vecindex

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	perr "contractlens/internal/platform/errors"
)

func fixture() ([]Passage, [][]float32) {
	passages := []Passage{
		{Text: "origin", Metadata: map[string]string{"law": "a"}},
		{Text: "east"},
		{Text: "north"},
		{Text: "east twin"},
		{Text: "far"},
	}
	vectors := [][]float32{
		{0, 0},
		{1, 0},
		{0, 1},
		{1, 0},
		{10, 10},
	}
	return passages, vectors
}

func built(t *testing.T) *Index {
	t.Helper()
	x := New()
	p, v := fixture()
	if err := x.Build(p, v); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return x
}

func rows(hits []Hit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Row
	}
	return out
}

func TestQuery_NotInitialized(t *testing.T) {
	_, err := New().Query([]float32{1, 2}, 3)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("want ErrNotInitialized, got %v", err)
	}
	if perr.HTTPStatus(err) != 503 {
		t.Fatalf("status = %d", perr.HTTPStatus(err))
	}
}

func TestQuery_OrderAndTies(t *testing.T) {
	x := built(t)

	hits, err := x.Query([]float32{0.9, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	// rows 1 and 3 are equidistant, insertion order wins
	if got, want := rows(hits), []int{1, 3, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	if hits[0].Passage.Text != "east" || hits[1].Passage.Text != "east twin" {
		t.Fatalf("passages = %+v", hits)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score < hits[i-1].Score {
			t.Fatalf("scores not ascending: %+v", hits)
		}
	}
}

func TestQuery_KBounds(t *testing.T) {
	x := built(t)

	all, err := x.Query([]float32{0, 0}, 50)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("k beyond len returned %d rows", len(all))
	}
	if _, err := x.Query([]float32{0, 0}, 0); perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("k=0 err = %v", err)
	}
	if _, err := x.Query([]float32{0, 0, 0}, 1); !errors.Is(err, ErrDimension) {
		t.Fatalf("want ErrDimension, got %v", err)
	}
}

func TestBuild_Rejects(t *testing.T) {
	x := built(t)
	p, v := fixture()
	if err := x.Build(p, v); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("second Build err = %v", err)
	}
	if err := New().Build(p[:2], v); err == nil {
		t.Fatalf("length mismatch accepted")
	}
	if err := New().Build([]Passage{{}, {}}, [][]float32{{1, 2}, {1}}); !errors.Is(err, ErrDimension) {
		t.Fatalf("ragged rows err = %v", err)
	}
	if err := New().Build(nil, nil); err == nil {
		t.Fatalf("empty build accepted")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	x := built(t)
	if err := x.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	y := New()
	if err := y.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if y.Len() != x.Len() || y.Dim() != 2 {
		t.Fatalf("loaded len=%d dim=%d", y.Len(), y.Dim())
	}

	for _, q := range [][]float32{{0.9, 0}, {0, 0.2}, {7, 7}} {
		a, _ := x.Query(q, 5)
		b, err := y.Query(q, 5)
		if err != nil {
			t.Fatalf("Query after load: %v", err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("query %v differs after reload:\n%v\n%v", q, a, b)
		}
	}
	if err := y.Load(dir); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("second Load err = %v", err)
	}
}

func TestSave_Unbuilt(t *testing.T) {
	if err := New().Save(t.TempDir()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string)
	}{
		{
			name: "bad magic",
			mutate: func(t *testing.T, dir string) {
				p := filepath.Join(dir, VectorsFile)
				b, _ := os.ReadFile(p)
				copy(b, "NOPE")
				_ = os.WriteFile(p, b, 0o644)
			},
		},
		{
			name: "truncated rows",
			mutate: func(t *testing.T, dir string) {
				p := filepath.Join(dir, VectorsFile)
				b, _ := os.ReadFile(p)
				_ = os.WriteFile(p, b[:len(b)-3], 0o644)
			},
		},
		{
			name: "header count beyond file size",
			mutate: func(t *testing.T, dir string) {
				p := filepath.Join(dir, VectorsFile)
				b, _ := os.ReadFile(p)
				binary.LittleEndian.PutUint32(b[12:16], math.MaxUint32)
				_ = os.WriteFile(p, b, 0o644)
			},
		},
		{
			name: "header dim beyond file size",
			mutate: func(t *testing.T, dir string) {
				p := filepath.Join(dir, VectorsFile)
				b, _ := os.ReadFile(p)
				binary.LittleEndian.PutUint32(b[8:12], math.MaxUint32)
				_ = os.WriteFile(p, b, 0o644)
			},
		},
		{
			name: "count disagreement",
			mutate: func(t *testing.T, dir string) {
				doc := `{"version":1,"count":1,"passages":[{"id":0,"text":"only"}]}`
				_ = os.WriteFile(filepath.Join(dir, PassagesFile), []byte(doc), 0o644)
			},
		},
		{
			name: "passages json garbage",
			mutate: func(t *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, PassagesFile), []byte("{"), 0o644)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := built(t).Save(dir); err != nil {
				t.Fatal(err)
			}
			tt.mutate(t, dir)
			y := New()
			if err := y.Load(dir); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("want ErrCorrupt, got %v", err)
			}
			if y.Ready() {
				t.Fatalf("handle bound after failed load")
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	err := New().Load(t.TempDir())
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}
