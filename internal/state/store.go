// Package state persists run history for churnlab using SQLite. It
// records runs, their per-variant metric rows, and hyperparameter sweep
// trials.
package state

import (
	"time"

	"github.com/leapstack-labs/churnlab/internal/eval"
	"github.com/leapstack-labs/churnlab/internal/pipeline"
)

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded invocation of the comparison or sweep pipeline.
type Run struct {
	ID          string
	Dataset     string
	Kind        string // "compare" or "sweep"
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Store records runs and their results.
type Store interface {
	CreateRun(dataset, kind string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	SaveMetrics(runID string, table eval.MetricsTable) error
	MetricsForRun(runID string) (eval.MetricsTable, error)

	SaveTrials(runID string, trials []pipeline.Trial) error
	TrialsForRun(runID string) ([]pipeline.Trial, error)

	Close() error
}
