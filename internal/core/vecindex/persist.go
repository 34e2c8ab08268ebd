package vecindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"contractlens/internal/platform/atomicfile"
	perr "contractlens/internal/platform/errors"
)

const (
	// VectorsFile holds the float32 rows
	VectorsFile = "index.bin"
	// PassagesFile maps row ids to passage text and metadata
	PassagesFile = "passages.json"

	formatVersion uint32 = 1
)

var magic = [4]byte{'C', 'L', 'V', 'X'}

// ErrCorrupt marks index artifacts that cannot be trusted
var ErrCorrupt = perr.New(perr.ErrorCodeInvalidArgument, "index artifacts corrupt")

type header struct {
	Magic   [4]byte
	Version uint32
	Dim     uint32
	Count   uint32
}

type passageRow struct {
	ID int `json:"id"`
	Passage
}

type passageDoc struct {
	Version  uint32       `json:"version"`
	Count    int          `json:"count"`
	Passages []passageRow `json:"passages"`
}

// Save writes both artifacts into dir, each replaced atomically
func (x *Index) Save(dir string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if !x.bound {
		return ErrNotInitialized
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	err := atomicfile.Write(filepath.Join(dir, VectorsFile), 0o644, func(w io.Writer) error {
		h := header{Magic: magic, Version: formatVersion, Dim: uint32(x.dim), Count: uint32(len(x.vectors))}
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return err
		}
		buf := make([]byte, 4*x.dim)
		for _, row := range x.vectors {
			for i, f := range row {
				binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	doc := passageDoc{Version: formatVersion, Count: len(x.passages), Passages: make([]passageRow, len(x.passages))}
	for i, p := range x.passages {
		doc.Passages[i] = passageRow{ID: i, Passage: p}
	}
	if err := atomicfile.WriteJSON(filepath.Join(dir, PassagesFile), doc); err != nil {
		return fmt.Errorf("write passages: %w", err)
	}
	return nil
}

// Load reads artifacts written by Save and binds them to the handle
func (x *Index) Load(dir string) error {
	if x.Ready() {
		return ErrAlreadyBound
	}
	vectors, err := readVectors(filepath.Join(dir, VectorsFile))
	if err != nil {
		return err
	}
	passages, err := readPassages(filepath.Join(dir, PassagesFile))
	if err != nil {
		return err
	}
	if len(vectors) != len(passages) {
		return fmt.Errorf("%d vectors but %d passages: %w", len(vectors), len(passages), ErrCorrupt)
	}
	return x.Build(passages, vectors)
}

func readVectors(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %v: %w", err, ErrCorrupt)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("bad magic %q: %w", h.Magic[:], ErrCorrupt)
	}
	if h.Version != formatVersion {
		return nil, fmt.Errorf("unsupported version %d: %w", h.Version, ErrCorrupt)
	}
	if h.Dim == 0 || h.Count == 0 {
		return nil, fmt.Errorf("empty index dim=%d count=%d: %w", h.Dim, h.Count, ErrCorrupt)
	}

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat vectors: %w", err)
	}
	width := 4 * int64(h.Dim)
	body := st.Size() - int64(binary.Size(h))
	if body%width != 0 || body/width != int64(h.Count) {
		return nil, fmt.Errorf("header claims %d rows of dim %d, file holds %d bytes: %w", h.Count, h.Dim, body, ErrCorrupt)
	}

	buf := make([]byte, width)
	out := make([][]float32, h.Count)
	for i := range out {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("row %d: %v: %w", i, err, ErrCorrupt)
		}
		row := make([]float32, h.Dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
		out[i] = row
	}
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing bytes after %d rows: %w", h.Count, ErrCorrupt)
	}
	return out, nil
}

func readPassages(path string) ([]Passage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open passages: %w", err)
	}
	var doc passageDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode passages: %v: %w", err, ErrCorrupt)
	}
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("unsupported passages version %d: %w", doc.Version, ErrCorrupt)
	}
	if doc.Count != len(doc.Passages) {
		return nil, fmt.Errorf("passages count %d but %d rows: %w", doc.Count, len(doc.Passages), ErrCorrupt)
	}
	out := make([]Passage, len(doc.Passages))
	for i, row := range doc.Passages {
		if row.ID != i {
			return nil, fmt.Errorf("passage row %d has id %d: %w", i, row.ID, ErrCorrupt)
		}
		out[i] = row.Passage
	}
	return out, nil
}
