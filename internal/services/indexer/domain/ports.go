package domain

import "context"

// IndexerPort builds and lists generations
type IndexerPort interface {
	Build(ctx context.Context, in BuildInput) (BuildResult, error)
	List(ctx context.Context) ([]GenerationView, error)
}
