// Package runner drives one engine run end to end: encode the tree, invoke
// the engine, collect and parse its outputs, export and record the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/logging"
	"github.com/nvandessel/hydrorun/internal/report"
	"github.com/nvandessel/hydrorun/internal/series"
	"github.com/nvandessel/hydrorun/internal/store"
	"github.com/nvandessel/hydrorun/internal/tree"
)

// Files written into the working directory, relative to it.
var (
	PrimaryFile   = filepath.ToSlash(filepath.Join(engine.ConfigDir, "auto.rga"))
	SecondaryFile = filepath.ToSlash(filepath.Join(engine.ConfigDir, "auto.gar"))
	TreeFile      = filepath.ToSlash(filepath.Join(engine.ConfigDir, "auto.yaml"))
	KeepFile      = filepath.ToSlash(filepath.Join(engine.OutputDir, "keep.yaml"))
)

// Options configures a Runner.
type Options struct {
	// Mode is the engine execution mode.
	Mode string
	// Charset is the code page of the files exchanged with the engine.
	Charset string
	// Extraction selects how the echoed parameter report is decoded.
	Extraction codec.Extraction

	ExportCSV   bool
	ExportArrow bool

	// Label tags the run in the history.
	Label string
	// History records the run when non-nil.
	History store.HistoryStore

	Logger *slog.Logger
	// LogLevel enables the run journal at debug and trace.
	LogLevel string
}

// Runner runs the engine against one working directory. Two runners must
// not share a working directory at the same time: outputs are relocated
// and overwritten without locking.
type Runner struct {
	engine engine.Engine
	dir    string
	opts   Options
	log    *slog.Logger
}

// New creates a runner.
func New(eng engine.Engine, workingDir string, opts Options) *Runner {
	if opts.Charset == "" {
		opts.Charset = codec.DefaultCharset
	}
	return &Runner{engine: eng, dir: workingDir, opts: opts, log: logging.OrDefault(opts.Logger)}
}

// WorkingDir returns the directory the runner works in.
func (r *Runner) WorkingDir() string { return r.dir }

// Result is everything one run produced.
type Result struct {
	RunID  string
	Output *series.RunOutput
	Engine *engine.Result
	// Calibrated is the tree rebuilt from the engine's parameter echo, nil
	// when the engine echoed nothing.
	Calibrated *tree.Tree
	// Exports lists the written series files relative to the working dir.
	Exports  []string
	Duration time.Duration
}

// Run executes the pipeline for t. The tree is only read.
func (r *Runner) Run(ctx context.Context, t *tree.Tree) (*Result, error) {
	start := time.Now()
	if err := engine.PrepareWorkspace(r.dir); err != nil {
		return nil, err
	}
	journal := logging.OpenJournal(filepath.Join(r.dir, engine.OutputDir), r.opts.LogLevel)
	defer journal.Close()

	if err := r.writeInputs(t); err != nil {
		return nil, err
	}
	journal.Record("encode", map[string]any{"primary": PrimaryFile, "secondary": SecondaryFile, "charset": r.opts.Charset})

	inv := engine.Invocation{WorkingDir: r.dir, PrimaryFile: PrimaryFile, Mode: r.opts.Mode}
	journal.Record("invoke", map[string]any{"mode": inv.Mode, "dir": inv.WorkingDir})
	res, err := r.engine.Run(ctx, inv)
	if res != nil {
		journal.Record("relocate", map[string]any{"files": res.Relocated, "exit_code": res.ExitCode})
	}
	if err != nil {
		return nil, fmt.Errorf("running engine: %w", err)
	}

	out := &Result{Engine: res}
	if res.EchoedParameters != "" {
		if out.Calibrated, err = r.writeKeep(res.EchoedParameters); err != nil {
			return nil, err
		}
	}

	forecast, err := t.ForecastRun()
	if err != nil {
		return nil, err
	}
	span, err := t.ForecastSpan()
	if err != nil {
		return nil, err
	}
	if out.Output, err = report.Parse(res.Report, report.Options{Forecast: forecast, Span: span}); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", engine.ReportFile, err)
	}
	parsed := map[string]any{"forecast": forecast, "span": span}
	for v, s := range out.Output.Series {
		parsed[string(v)] = s.Len()
	}
	journal.Record("parse", parsed)
	if len(out.Output.Series) == 0 {
		r.log.Warn("report holds no simulated series", "file", engine.ReportFile)
	}

	if out.Exports, err = r.export(out.Output); err != nil {
		return nil, err
	}

	out.Duration = time.Since(start)
	if r.opts.History != nil {
		if out.RunID, err = r.record(ctx, t, out, start); err != nil {
			return nil, err
		}
		journal.Record("history", map[string]any{"run_id": out.RunID})
	}
	r.log.Info("run complete", "dir", r.dir, "duration", out.Duration, "run_id", out.RunID)
	return out, nil
}

func (r *Runner) writeInputs(t *tree.Tree) error {
	primary, err := codec.EncodePrimary(t, SecondaryFile)
	if err != nil {
		return fmt.Errorf("encoding project file: %w", err)
	}
	secondary, err := codec.EncodeSecondary(t)
	if err != nil {
		return fmt.Errorf("encoding parameter file: %w", err)
	}
	for name, text := range map[string]string{PrimaryFile: primary, SecondaryFile: secondary} {
		b, err := codec.EncodeText(r.opts.Charset, text)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(r.dir, name), b, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := writeTree(filepath.Join(r.dir, TreeFile), t); err != nil {
		return err
	}
	r.log.Debug("wrote engine inputs", "primary", PrimaryFile, "secondary", SecondaryFile, "tree", TreeFile)
	return nil
}

// writeKeep rebuilds a default tree from the parameter echo and dumps it.
func (r *Runner) writeKeep(echoed string) (*tree.Tree, error) {
	keep, err := tree.FromReport(echoed, codec.NewSecondaryDecoder(r.opts.Extraction))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", engine.EchoedParametersFile, err)
	}
	if err := writeTree(filepath.Join(r.dir, KeepFile), keep); err != nil {
		return nil, err
	}
	return keep, nil
}

func (r *Runner) export(out *series.RunOutput) ([]string, error) {
	var written []string
	for _, v := range series.Variables {
		s := out.Get(v)
		if s.Empty() {
			continue
		}
		base := filepath.Join(engine.OutputDir, series.ExportName(v, out.Forecast))
		if r.opts.ExportCSV {
			name := base + ".csv"
			if err := writeWith(filepath.Join(r.dir, name), func(f *os.File) error {
				return series.WriteCSV(f, s, out.Forecast)
			}); err != nil {
				return written, err
			}
			written = append(written, filepath.ToSlash(name))
		}
		if r.opts.ExportArrow {
			name := base + ".arrow"
			if err := writeWith(filepath.Join(r.dir, name), func(f *os.File) error {
				return series.WriteArrow(f, s, out.Forecast)
			}); err != nil {
				return written, err
			}
			written = append(written, filepath.ToSlash(name))
		}
	}
	if len(written) > 0 {
		r.log.Debug("exported series", "files", written)
	}
	return written, nil
}

func (r *Runner) record(ctx context.Context, t *tree.Tree, res *Result, start time.Time) (string, error) {
	dump, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("dumping tree: %w", err)
	}
	params, err := t.Parameters()
	if err != nil {
		return "", err
	}
	run := store.Run{
		Label:      r.opts.Label,
		WorkingDir: absOr(r.dir),
		Mode:       r.opts.Mode,
		Forecast:   res.Output.Forecast,
		StartedAt:  start,
		Duration:   res.Duration,
		ExitCode:   res.Engine.ExitCode,
		Tree:       string(dump),
	}
	for _, p := range params {
		sp := store.Parameter{Name: p.Name, Value: p.Value, Optimise: p.Optimise, Min: p.Min, Max: p.Max}
		if res.Calibrated != nil {
			if c, err := res.Calibrated.Parameter(p.Name); err == nil {
				v := c.Value
				sp.Calibrated = &v
			}
		}
		run.Parameters = append(run.Parameters, sp)
	}
	id, err := r.opts.History.RecordRun(ctx, run)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

func writeTree(path string, t *tree.Tree) error {
	b, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("dumping tree: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeWith(path string, fn func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func absOr(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// LoadTree rebuilds the tree a run used from the working directory's dump.
func LoadTree(dir string) (*tree.Tree, error) {
	b, err := os.ReadFile(filepath.Join(dir, TreeFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s not found in %s: run the engine first", TreeFile, dir)
	}
	if err != nil {
		return nil, err
	}
	var p tree.Partial
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", TreeFile, err)
	}
	return tree.Default(p)
}

// TreeFor returns the tree dumped in dir by the last run, or the default
// tree when dir holds no dump. layers are applied on top in order.
func TreeFor(dir string, layers ...tree.Partial) (t *tree.Tree, fromDump bool, err error) {
	if _, statErr := os.Stat(filepath.Join(dir, TreeFile)); statErr == nil {
		t, err = LoadTree(dir)
		fromDump = true
	} else {
		t, err = tree.Default()
	}
	if err != nil {
		return nil, fromDump, err
	}
	for _, p := range layers {
		if len(p) == 0 {
			continue
		}
		if err := t.Update(p); err != nil {
			return nil, fromDump, err
		}
	}
	return t, fromDump, nil
}
