// Package store persists resolution runs and resolved responses.
package store

import (
	"context"

	"github.com/cohen-center/survey-cli/internal/model"
)

// ResolvedFilter specifies criteria for listing resolved responses.
type ResolvedFilter struct {
	RunID  string                 `json:"run_id,omitempty"`
	Status *model.DuplicateStatus `json:"status,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
}

// Store defines the persistence interface for resolution output.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, overridesVersion string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, kept, duplicates, dropped int) error
	FailRun(ctx context.Context, runID string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Responses
	SaveResolved(ctx context.Context, runID string, records []model.ResolvedRecord) (int64, error)
	ListResolved(ctx context.Context, filter ResolvedFilter) ([]model.ResolvedRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
