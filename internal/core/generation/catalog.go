package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"contractlens/internal/core/embedding"
	"contractlens/internal/core/vecindex"
	"contractlens/internal/platform/atomicfile"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/logger"
)

// Entry is one directory seen during a scan, valid or not
type Entry struct {
	ID      string      `json:"id"`
	Valid   bool        `json:"valid"`
	Problem string      `json:"problem,omitempty"`
	Gen     *Generation `json:"generation,omitempty"`
}

// Catalog lists and creates generations under one root directory
type Catalog struct {
	root string
	now  func() time.Time
	log  *logger.Logger
}

// CatalogOption configures a Catalog
type CatalogOption func(*Catalog)

// WithClock overrides the creation clock
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

// NewCatalog returns a catalog rooted at dir
func NewCatalog(root string, opts ...CatalogOption) *Catalog {
	c := &Catalog{root: root, now: time.Now, log: logger.Named("generation")}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Root is the directory the catalog scans
func (c *Catalog) Root() string { return c.root }

// Scan inspects every store_* directory. Invalid ones are logged and returned with a problem,
// a missing root yields an empty scan
func (c *Catalog) Scan() ([]Entry, error) {
	des, err := os.ReadDir(c.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read generations root: %w", err)
	}

	out := make([]Entry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		if !de.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		g, err := c.inspect(name)
		if err != nil {
			c.log.Warn().Err(err).Str("generation", name).Msg("excluding invalid generation")
			out = append(out, Entry{ID: name, Problem: err.Error()})
			continue
		}
		out = append(out, Entry{ID: name, Valid: true, Gen: &g})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// List returns valid generations, newest first
func (c *Catalog) List() ([]Generation, error) {
	entries, err := c.Scan()
	if err != nil {
		return nil, err
	}
	out := make([]Generation, 0, len(entries))
	for _, e := range entries {
		if e.Valid {
			out = append(out, *e.Gen)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// Select returns the named generation, or the newest valid one when id is empty
func (c *Catalog) Select(id string) (Generation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		gens, err := c.List()
		if err != nil {
			return Generation{}, err
		}
		if len(gens) == 0 {
			return Generation{}, perr.NotFoundf("no valid generation under %s", c.root)
		}
		return gens[0], nil
	}

	if _, err := ParseName(id); err != nil {
		return Generation{}, err
	}
	if _, err := os.Stat(filepath.Join(c.root, id)); errors.Is(err, os.ErrNotExist) {
		return Generation{}, perr.NotFoundf("generation %s not found", id)
	}
	return c.inspect(id)
}

// Open loads the generation's index into a fresh handle
func (c *Catalog) Open(g Generation) (*vecindex.Index, error) {
	x := vecindex.New()
	if err := x.Load(g.IndexPath()); err != nil {
		return nil, fmt.Errorf("load generation %s: %w", g.ID, err)
	}
	if g.Metadata.DocumentCount > 0 && x.Len() != g.Metadata.DocumentCount {
		c.log.Warn().Str("generation", g.ID).Int("metadata_count", g.Metadata.DocumentCount).
			Int("index_count", x.Len()).Msg("document count disagrees with index")
	}
	return x, nil
}

func (c *Catalog) inspect(name string) (Generation, error) {
	pn, err := ParseName(name)
	if err != nil {
		return Generation{}, err
	}
	dir := filepath.Join(c.root, name)

	b, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return Generation{}, fmt.Errorf("%s: metadata unreadable: %v: %w", name, err, ErrInvalid)
	}
	var md Metadata
	if err := json.Unmarshal(b, &md); err != nil {
		return Generation{}, fmt.Errorf("%s: metadata malformed: %v: %w", name, err, ErrInvalid)
	}
	if strings.TrimSpace(md.ModelType) == "" || strings.TrimSpace(md.EmbeddingModel) == "" {
		return Generation{}, fmt.Errorf("%s: metadata lacks model identity: %w", name, ErrInvalid)
	}
	if _, err := os.Stat(filepath.Join(dir, IndexDir, vecindex.VectorsFile)); err != nil {
		return Generation{}, fmt.Errorf("%s: index missing: %w", name, ErrInvalid)
	}
	return Generation{ID: name, Timestamp: pn.Timestamp, Metadata: md, Dir: dir}, nil
}

// Create builds and persists a new generation. The directory only becomes visible once the
// index and metadata are fully written
func (c *Catalog) Create(ctx context.Context, id embedding.Identity, passages []vecindex.Passage, vectors [][]float32) (Generation, error) {
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	x := vecindex.New()
	if err := x.Build(passages, vectors); err != nil {
		return Generation{}, err
	}

	created := c.now().UTC().Truncate(time.Second)
	name := Name(id, created)
	final := filepath.Join(c.root, name)
	if _, err := os.Stat(final); err == nil {
		return Generation{}, perr.Conflictf("generation %s already exists", name)
	}

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return Generation{}, fmt.Errorf("mkdir generations root: %w", err)
	}
	stage, err := os.MkdirTemp(c.root, stagePref+name+"-")
	if err != nil {
		return Generation{}, fmt.Errorf("create staging dir: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			_ = os.RemoveAll(stage)
		}
	}()

	if err := x.Save(filepath.Join(stage, IndexDir)); err != nil {
		return Generation{}, err
	}
	md := Metadata{
		DocumentCount:  len(passages),
		EmbeddingModel: id.Model,
		ModelType:      strings.ToLower(id.ModelType),
		CreatedAt:      created,
	}
	if err := atomicfile.WriteJSON(filepath.Join(stage, MetadataFile), md); err != nil {
		return Generation{}, fmt.Errorf("write metadata: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	if err := os.Rename(stage, final); err != nil {
		return Generation{}, fmt.Errorf("publish generation: %w", err)
	}
	keep = true
	_ = atomicfile.SyncDir(c.root)

	c.log.Info().Str("generation", name).Int("documents", len(passages)).Msg("generation created")
	return Generation{ID: name, Timestamp: created, Metadata: md, Dir: final}, nil
}
