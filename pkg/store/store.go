// Package store archives finished simulation runs.
//
// A [Run] records where a simulation came from, its seed and its final
// panel, which is enough to replay it with the same source file. Runs are
// written by "reefgrid simulate --archive" and listed by "reefgrid runs".
//
// Backends:
//
//   - [FileStore]: one JSON file per run under the user data directory
//   - [MongoStore]: a MongoDB collection shared across machines
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/reefgrid/pkg/sim"
)

// Run is one archived simulation.
type Run struct {
	ID         string    `json:"id" bson:"_id"`
	Source     string    `json:"source" bson:"source"`
	Strategy   string    `json:"strategy" bson:"strategy"`
	Seed       uint64    `json:"seed" bson:"seed"`
	Panel      sim.Panel `json:"panel" bson:"panel"`
	Collapsed  bool      `json:"collapsed" bson:"collapsed"`
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	FinishedAt time.Time `json:"finished_at" bson:"finished_at"`
}

// NewRun captures the current state of e as a run that started at start.
func NewRun(source string, e *sim.Engine, start time.Time) *Run {
	st := e.State()
	return &Run{
		ID:         uuid.NewString(),
		Source:     source,
		Strategy:   string(e.Strategy()),
		Seed:       e.Seed(),
		Panel:      e.Panel(),
		Collapsed:  st.Collapsed,
		StartedAt:  start.UTC(),
		FinishedAt: time.Now().UTC(),
	}
}

// Duration is the wall time the run took.
func (r *Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Store persists runs.
type Store interface {
	// Save inserts or replaces run by ID.
	Save(ctx context.Context, run *Run) error
	// Get returns the run, or an error with code RUN_NOT_FOUND.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns up to limit runs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
