// Package store persists scene ranking runs.
package store

import (
	"context"

	"github.com/clipforge/broll-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status      model.RunStatus `json:"status,omitempty"`
	SceneNumber int             `json:"scene_number,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	Offset      int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for ranking runs.
type Store interface {
	CreateRun(ctx context.Context, scene model.SceneRequest) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
