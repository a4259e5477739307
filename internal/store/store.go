// Package store persists scoring runs for later review, backed by
// SQLite for single-node use or Postgres for shared deployments.
package store

import (
	"context"

	"github.com/sells-group/site-scout/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	City   string `json:"city,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for score runs.
type Store interface {
	SaveRun(ctx context.Context, result model.ScoreResult) (*model.ScoreRun, error)
	GetRun(ctx context.Context, runID string) (*model.ScoreRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.ScoreRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
