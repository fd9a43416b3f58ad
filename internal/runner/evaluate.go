package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/logging"
	"github.com/nvandessel/hydrorun/internal/metrics"
	"github.com/nvandessel/hydrorun/internal/series"
	"github.com/nvandessel/hydrorun/internal/store"
	"github.com/nvandessel/hydrorun/internal/tree"
	"github.com/nvandessel/hydrorun/internal/window"
)

// EvalRequest selects what to score.
type EvalRequest struct {
	Variable  series.Variable
	Period    window.Period
	Metric    string
	Transform metrics.Transform
	// Depth is the forecast display depth in days; zero means span+1.
	Depth int
	// RunID attaches the score to a recorded run when set.
	RunID string
}

// Evaluation is one computed score and the window it covers.
type Evaluation struct {
	Variable  series.Variable `json:"variable"`
	Period    window.Period   `json:"period"`
	Metric    string          `json:"metric"`
	Transform string          `json:"transform,omitempty"`
	Value     float64         `json:"value"`
	Rows      int             `json:"rows"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
}

// PolicyFor reads the windowing parameters of t.
func PolicyFor(t *tree.Tree, depth int) (window.Policy, error) {
	var (
		p   window.Policy
		err error
	)
	if p.SpinupYears, err = t.SpinupYears(); err != nil {
		return p, err
	}
	if p.TailYears, err = t.TailYears(); err != nil {
		return p, err
	}
	if p.Forecast, err = t.ForecastRun(); err != nil {
		return p, err
	}
	if p.Span, err = t.ForecastSpan(); err != nil {
		return p, err
	}
	p.Depth = depth
	return p, nil
}

// Window applies the tree's windowing policy to s.
func Window(t *tree.Tree, s *series.Series, period window.Period, depth int) (*series.Series, error) {
	pol, err := PolicyFor(t, depth)
	if err != nil {
		return nil, err
	}
	return pol.Apply(s, period)
}

// Score windows s and scores it with ev.
func Score(t *tree.Tree, s *series.Series, req EvalRequest, ev metrics.Evaluator) (*Evaluation, error) {
	w, err := Window(t, s, req.Period, req.Depth)
	if err != nil {
		return nil, err
	}
	sim, obs := w.Columns()
	v, err := ev.Evaluate(obs, sim, req.Metric, req.Transform)
	if err != nil {
		return nil, fmt.Errorf("%s on %s/%s: %w", req.Metric, req.Variable, req.Period, err)
	}
	out := &Evaluation{
		Variable:  req.Variable,
		Period:    req.Period,
		Metric:    req.Metric,
		Transform: req.Transform.String(),
		Value:     v,
		Rows:      w.Len(),
	}
	if !w.Empty() {
		out.From, out.To = w.First(), w.Last()
	}
	return out, nil
}

// LoadSeries reads the exported CSV of v from a working directory.
func LoadSeries(dir string, v series.Variable, forecast bool) (*series.Series, error) {
	name := filepath.Join(engine.OutputDir, series.ExportName(v, forecast)+".csv")
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	return series.ReadCSV(f, v)
}

// Evaluate scores the outputs left in the runner's working directory by a
// previous run, rebuilding the tree from its dump.
func (r *Runner) Evaluate(ctx context.Context, req EvalRequest, ev metrics.Evaluator) (*Evaluation, error) {
	eval, err := EvaluateDir(r.dir, req, ev)
	if err != nil {
		return nil, err
	}
	journal := logging.OpenJournal(filepath.Join(r.dir, engine.OutputDir), r.opts.LogLevel)
	defer journal.Close()
	journal.Record("window", map[string]any{
		"variable": string(req.Variable), "period": string(req.Period),
		"rows": eval.Rows, "from": eval.From, "to": eval.To,
	})
	if req.RunID != "" && r.opts.History != nil {
		m := store.Metric{
			Variable:  string(eval.Variable),
			Period:    string(eval.Period),
			Name:      eval.Metric,
			Transform: eval.Transform,
			Value:     eval.Value,
		}
		if err := r.opts.History.AddMetrics(ctx, req.RunID, []store.Metric{m}); err != nil {
			return eval, err
		}
	}
	return eval, nil
}

// EvaluateDir scores the outputs of a working directory.
func EvaluateDir(dir string, req EvalRequest, ev metrics.Evaluator) (*Evaluation, error) {
	t, err := LoadTree(dir)
	if err != nil {
		return nil, err
	}
	forecast, err := t.ForecastRun()
	if err != nil {
		return nil, err
	}
	s, err := LoadSeries(dir, req.Variable, forecast)
	if err != nil {
		return nil, err
	}
	return Score(t, s, req, ev)
}
