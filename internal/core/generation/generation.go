// Package generation manages immutable, timestamped index builds on disk.
//
// Each generation is a directory named store_<model_type>_<model_short>_<YYYYMMDD_HHMMSS>
// holding metadata.json and an index/ directory written by vecindex. A generation is never
// modified after it appears; new builds are staged in a hidden directory and renamed in.
package generation

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"contractlens/internal/core/embedding"
	perr "contractlens/internal/platform/errors"
)

const (
	// MetadataFile is the sidecar written next to the index
	MetadataFile = "metadata.json"
	// IndexDir holds the vecindex artifacts
	IndexDir = "index"

	prefix    = "store_"
	tsLayout  = "20060102_150405"
	stagePref = ".staging-"
)

// ErrInvalid marks a generation directory that cannot be served
var ErrInvalid = perr.New(perr.ErrorCodeInvalidArgument, "generation invalid")

// Metadata is the metadata.json sidecar
type Metadata struct {
	DocumentCount  int       `json:"document_count"`
	EmbeddingModel string    `json:"embedding_model"`
	ModelType      string    `json:"model_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// Identity is the embedding space the generation was built in
func (m Metadata) Identity() embedding.Identity {
	return embedding.Identity{ModelType: m.ModelType, Model: m.EmbeddingModel}
}

// Generation is a valid, selectable build
type Generation struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"`
	Dir       string    `json:"-"`
}

// IndexPath is the vecindex directory inside the generation
func (g Generation) IndexPath() string { return filepath.Join(g.Dir, IndexDir) }

// Name builds the directory name for a generation created at ts
func Name(id embedding.Identity, ts time.Time) string {
	return prefix + strings.ToLower(id.ModelType) + "_" + id.Short() + "_" + ts.UTC().Format(tsLayout)
}

// ParsedName is what a directory name encodes
type ParsedName struct {
	ModelType  string
	ModelShort string
	Timestamp  time.Time
}

// ParseName decodes a generation directory name. The model short name may itself contain
// underscores so the timestamp is taken from the end
func ParseName(name string) (ParsedName, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, prefix) {
		return ParsedName{}, fmt.Errorf("%q is not a generation name: %w", name, ErrInvalid)
	}
	parts := strings.Split(strings.TrimPrefix(name, prefix), "_")
	if len(parts) < 4 {
		return ParsedName{}, fmt.Errorf("%q has too few segments: %w", name, ErrInvalid)
	}
	n := len(parts)
	ts, err := time.ParseInLocation(tsLayout, parts[n-2]+"_"+parts[n-1], time.UTC)
	if err != nil {
		return ParsedName{}, fmt.Errorf("%q has a bad timestamp: %w", name, ErrInvalid)
	}
	short := strings.Join(parts[1:n-2], "_")
	if parts[0] == "" || short == "" {
		return ParsedName{}, fmt.Errorf("%q is missing model fields: %w", name, ErrInvalid)
	}
	return ParsedName{ModelType: parts[0], ModelShort: short, Timestamp: ts}, nil
}
