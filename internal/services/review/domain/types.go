// Package domain defines the contracts of the contract review pipeline
package domain

import (
	"time"

	"contractlens/internal/core/analyze"
	"contractlens/internal/core/verdicts"
)

// RunStatus is the lifecycle state of a review run
type RunStatus string

const (
	// RunRunning means units are still being analyzed
	RunRunning RunStatus = "running"
	// RunDone means every unit was processed
	RunDone RunStatus = "done"
	// RunFailed means the run aborted before the last unit
	RunFailed RunStatus = "failed"
)

// ReviewInput selects a document, a generation and the split strategy
type ReviewInput struct {
	Text         string `json:"text,omitempty" validate:"required_without=Path,max=1000000" example:"1. 을은 계약 해지 시 위약금을 지급한다. 2. 갑은 언제든지 계약을 해지할 수 있다."`
	Path         string `json:"path,omitempty" validate:"required_without=Text,max=1024" example:"contracts/draft.pdf"`
	GenerationID string `json:"generation_id,omitempty" validate:"omitempty,generation_id,max=200" example:"store_openai_text-embedding-3-small_20250101_120000"`
	Mode         string `json:"mode,omitempty" validate:"omitempty,oneof=numbered sentence" example:"numbered"`
	TopK         int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=50" example:"4"`
	Async        bool   `json:"async,omitempty" example:"false"`
}

// RunSummary describes a run without its verdicts
type RunSummary struct {
	RunID        string    `json:"run_id" example:"5b0f3c1e-6a1d-4c1b-9a43-5f7f0c0a7d11"`
	Status       RunStatus `json:"status" example:"done"`
	GenerationID string    `json:"generation_id" example:"store_openai_text-embedding-3-small_20250101_120000"`
	Mode         string    `json:"mode" example:"numbered"`
	Source       string    `json:"source" example:"inline"`
	Units        int       `json:"units" example:"12"`
	verdicts.Summary
	Error       string     `json:"error,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty" example:"token-1"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Report is a run with its violations keyed by unit id
type Report struct {
	RunSummary
	Violations map[string]analyze.Verdict `json:"violations"`
}

// ExportInput names the file a run is written to
type ExportInput struct {
	Path string `json:"path" validate:"required,max=1024" example:"exports/review.json"`
}

// ExportResult reports where a run was written
type ExportResult struct {
	RunID      string `json:"run_id"`
	Path       string `json:"path"`
	Violations int    `json:"violations"`
}

// ArchiveResult reports an archived run
type ArchiveResult struct {
	RunID    string `json:"run_id"`
	Verdicts int    `json:"verdicts"`
}

// ArchivedRun is a run read back from durable storage
type ArchivedRun struct {
	RunSummary
	ArchivedAt time.Time         `json:"archived_at"`
	Verdicts   []analyze.Verdict `json:"verdicts"`
}

// GenerationStats aggregates recorded runs of one generation
type GenerationStats struct {
	GenerationID   string `json:"generation_id"`
	Runs           uint64 `json:"runs"`
	Units          uint64 `json:"units"`
	ViolationCount uint64 `json:"violation_count"`
	FailedUnits    uint64 `json:"failed_units"`
}
