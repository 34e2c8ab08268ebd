package domain

import (
	"context"

	"contractlens/internal/core/analyze"
)

// ReviewerPort is the review pipeline as seen by transports and other modules
type ReviewerPort interface {
	Review(ctx context.Context, in ReviewInput) (Report, error)
	Run(ctx context.Context, runID string) (Report, error)
	// Verdict looks up a retained violation; an empty runID means the latest run
	Verdict(ctx context.Context, runID string, unitID int) (analyze.Verdict, error)
	Export(ctx context.Context, runID string, in ExportInput) (ExportResult, error)
	Archive(ctx context.Context, runID string) (ArchiveResult, error)
	Archived(ctx context.Context, runID string) (ArchivedRun, error)
	Stats(ctx context.Context, limit int) ([]GenerationStats, error)
}

// ArchivePort persists finished runs
type ArchivePort interface {
	Save(ctx context.Context, run RunSummary, vs []analyze.Verdict) error
	Load(ctx context.Context, runID string) (ArchivedRun, error)
}

// StatsPort records one row per finished run and aggregates them
type StatsPort interface {
	RecordRun(ctx context.Context, run RunSummary) error
	ByGeneration(ctx context.Context, limit int) ([]GenerationStats, error)
}
