// Package domain holds the indexer contract shared by the CLI and the API
package domain

import (
	"time"

	"contractlens/internal/core/generation"
)

// BuildInput asks for a new generation built from a CSV of reference clauses.
// ModelType and Model are optional and must name the configured embedder when set
type BuildInput struct {
	CSVPath   string `json:"csv_path"             validate:"required,max=1024"               example:"reference/clauses.csv"`
	ModelType string `json:"model_type,omitempty" validate:"omitempty,oneof=openai ollama"   example:"openai"`
	Model     string `json:"model,omitempty"      validate:"omitempty,max=200"               example:"text-embedding-3-small"`
}

// BuildResult describes a published generation
type BuildResult struct {
	Generation generation.Generation `json:"generation"`
	Passages   int                   `json:"passages"`
	Skipped    int                   `json:"skipped"`
	Took       string                `json:"took" example:"3.2s"`
}

// GenerationView is one directory under the generations root as the API lists it
type GenerationView struct {
	ID         string               `json:"id"                  example:"store_openai_text-embedding-3-small_20250301_090000"`
	Valid      bool                 `json:"valid"`
	Problem    string               `json:"problem,omitempty"`
	Timestamp  *time.Time           `json:"timestamp,omitempty"`
	Metadata   *generation.Metadata `json:"metadata,omitempty"`
	Compatible bool                 `json:"compatible"`
	Latest     bool                 `json:"latest"`
}
