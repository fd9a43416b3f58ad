// Package archive exports recorded runs to portable files and imports them
// into another history database.
package archive

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/nvandessel/hydrorun/internal/store"
)

// Archive is the payload of an archive file.
type Archive struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Runs      []Run     `json:"runs"`
}

// Run is a recorded run with every float that may be NaN made nullable.
type Run struct {
	ID         string      `json:"id"`
	Label      string      `json:"label,omitempty"`
	WorkingDir string      `json:"working_dir"`
	Mode       string      `json:"mode"`
	Forecast   bool        `json:"forecast"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMs int64       `json:"duration_ms"`
	ExitCode   int         `json:"exit_code"`
	Tree       string      `json:"tree,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
	Metrics    []Metric    `json:"metrics,omitempty"`
}

// Parameter mirrors store.Parameter.
type Parameter struct {
	Name       string   `json:"name"`
	Value      *float64 `json:"value"`
	Optimise   bool     `json:"optimise"`
	Min        *float64 `json:"min"`
	Max        *float64 `json:"max"`
	Calibrated *float64 `json:"calibrated,omitempty"`
}

// Metric mirrors store.Metric.
type Metric struct {
	Variable  string   `json:"variable"`
	Period    string   `json:"period"`
	Name      string   `json:"name"`
	Transform string   `json:"transform,omitempty"`
	Value     *float64 `json:"value"`
}

// Export writes the runs matched by opts, newest first, to path. Each run
// is read in full, tree included.
func Export(ctx context.Context, h store.HistoryStore, opts store.ListOptions, path string) (*Archive, error) {
	listed, err := h.ListRuns(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	a := &Archive{Version: FormatVersion, CreatedAt: time.Now().UTC(), Runs: make([]Run, 0, len(listed))}
	for _, l := range listed {
		r, err := h.GetRun(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("reading run %s: %w", l.ID, err)
		}
		a.Runs = append(a.Runs, fromStore(r))
	}
	if err := Write(path, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ImportMode controls how runs already in the history are treated.
type ImportMode string

const (
	// ImportMerge skips runs whose ID is already recorded.
	ImportMerge ImportMode = "merge"
	// ImportStrict fails on the first run already recorded.
	ImportStrict ImportMode = "strict"
)

// ImportResult reports what an import did.
type ImportResult struct {
	Imported []string `json:"imported"`
	Skipped  []string `json:"skipped"`
}

// Import records every run of the archive at path into h.
func Import(ctx context.Context, h store.HistoryStore, path string, mode ImportMode) (*ImportResult, error) {
	a, err := Read(path)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Imported: []string{}, Skipped: []string{}}
	for _, r := range a.Runs {
		if r.ID == "" {
			return res, fmt.Errorf("archive holds a run without ID")
		}
		_, err := h.GetRun(ctx, r.ID)
		switch {
		case err == nil && mode == ImportStrict:
			return res, fmt.Errorf("run %s already recorded", r.ID)
		case err == nil:
			res.Skipped = append(res.Skipped, r.ID)
			continue
		case !errors.Is(err, store.ErrRunNotFound):
			return res, err
		}
		if _, err := h.RecordRun(ctx, toStore(r)); err != nil {
			return res, fmt.Errorf("recording run %s: %w", r.ID, err)
		}
		res.Imported = append(res.Imported, r.ID)
	}
	return res, nil
}

// GeneratePath returns a timestamped archive file name in dir.
func GeneratePath(dir string) string {
	ts := time.Now().Format("20060102-150405.000")
	return filepath.Join(dir, filePrefix+ts+fileSuffix)
}

func fromStore(r *store.Run) Run {
	out := Run{
		ID:         r.ID,
		Label:      r.Label,
		WorkingDir: r.WorkingDir,
		Mode:       r.Mode,
		Forecast:   r.Forecast,
		StartedAt:  r.StartedAt.UTC(),
		DurationMs: r.Duration.Milliseconds(),
		ExitCode:   r.ExitCode,
		Tree:       r.Tree,
	}
	for _, p := range r.Parameters {
		ap := Parameter{
			Name:     p.Name,
			Value:    nullable(p.Value),
			Optimise: p.Optimise,
			Min:      nullable(p.Min),
			Max:      nullable(p.Max),
		}
		if p.Calibrated != nil {
			ap.Calibrated = nullable(*p.Calibrated)
		}
		out.Parameters = append(out.Parameters, ap)
	}
	for _, m := range r.Metrics {
		out.Metrics = append(out.Metrics, Metric{
			Variable:  m.Variable,
			Period:    m.Period,
			Name:      m.Name,
			Transform: m.Transform,
			Value:     nullable(m.Value),
		})
	}
	return out
}

func toStore(r Run) store.Run {
	out := store.Run{
		ID:         r.ID,
		Label:      r.Label,
		WorkingDir: r.WorkingDir,
		Mode:       r.Mode,
		Forecast:   r.Forecast,
		StartedAt:  r.StartedAt,
		Duration:   time.Duration(r.DurationMs) * time.Millisecond,
		ExitCode:   r.ExitCode,
		Tree:       r.Tree,
	}
	for _, p := range r.Parameters {
		out.Parameters = append(out.Parameters, store.Parameter{
			Name:       p.Name,
			Value:      orNaN(p.Value),
			Optimise:   p.Optimise,
			Min:        orNaN(p.Min),
			Max:        orNaN(p.Max),
			Calibrated: p.Calibrated,
		})
	}
	for _, m := range r.Metrics {
		out.Metrics = append(out.Metrics, store.Metric{
			Variable:  m.Variable,
			Period:    m.Period,
			Name:      m.Name,
			Transform: m.Transform,
			Value:     orNaN(m.Value),
		})
	}
	return out
}

func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
