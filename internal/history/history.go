// Package history records a summary of every generation run in SQLite.
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// ErrRunNotFound is returned by Get for an unknown build id.
var ErrRunNotFound = errors.NewError(errors.CategoryNotFound, "build run not found").Build()

// Run summarises one generation run.
type Run struct {
	BuildID     string
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     string
	Documents   int
	Pages       int
	Warnings    int
	Fingerprint string
	Error       string
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Warning is a stored unresolved link warning.
type Warning struct {
	Source string
	Target string
	Line   int
}

// Store persists run summaries.
type Store interface {
	// Record stores a finished run with its warnings.
	Record(ctx context.Context, run Run, warnings []Warning) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
	// Get returns a run and its warnings.
	Get(ctx context.Context, buildID string) (Run, []Warning, error)
	// Prune keeps the newest keep runs and reports how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}
