// Package store defines the HistoryStore interface for recording runs and
// querying parameters and scores across them.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded engine run.
type Run struct {
	ID         string        `json:"id"`
	Label      string        `json:"label,omitempty"`
	WorkingDir string        `json:"working_dir"`
	Mode       string        `json:"mode"`
	Forecast   bool          `json:"forecast"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	ExitCode   int           `json:"exit_code"`

	// Tree is the YAML dump of the configuration tree the run used.
	Tree string `json:"tree,omitempty"`

	Parameters []Parameter `json:"parameters,omitempty"`
	Metrics    []Metric    `json:"metrics,omitempty"`
}

// Parameter is a physical parameter as it stood for a run. Calibrated is
// the value echoed back by the engine, when it echoed one.
type Parameter struct {
	Name       string   `json:"name"`
	Value      float64  `json:"value"`
	Optimise   bool     `json:"optimise"`
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	Calibrated *float64 `json:"calibrated,omitempty"`
}

// Metric is one goodness-of-fit score attached to a run.
type Metric struct {
	Variable  string  `json:"variable"`
	Period    string  `json:"period"`
	Name      string  `json:"name"`
	Transform string  `json:"transform,omitempty"`
	Value     float64 `json:"value"`
}

// ListOptions filters ListRuns.
type ListOptions struct {
	WorkingDir string
	Limit      int
}

// ParameterPoint is the value of one parameter in one run.
type ParameterPoint struct {
	RunID     string    `json:"run_id"`
	Label     string    `json:"label,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Parameter Parameter `json:"parameter"`
}

// MetricPoint is one score in one run.
type MetricPoint struct {
	RunID     string    `json:"run_id"`
	Label     string    `json:"label,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Metric    Metric    `json:"metric"`
}

// HistoryStore persists runs.
type HistoryStore interface {
	// RecordRun stores r and returns its ID, assigning one when r.ID is empty.
	RecordRun(ctx context.Context, r Run) (string, error)

	// AddMetrics attaches scores to an existing run.
	AddMetrics(ctx context.Context, runID string, metrics []Metric) error

	// GetRun returns a run with its parameters and metrics.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first, without tree, parameters or metrics.
	ListRuns(ctx context.Context, opts ListOptions) ([]Run, error)

	// ParameterHistory returns one point per run for the named parameter,
	// oldest first.
	ParameterHistory(ctx context.Context, name string) ([]ParameterPoint, error)

	// MetricHistory returns every recorded score with the given name,
	// oldest first. An empty name matches all metrics.
	MetricHistory(ctx context.Context, name string) ([]MetricPoint, error)

	Close() error
}
