package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/metrics"
	"github.com/nvandessel/hydrorun/internal/report"
	"github.com/nvandessel/hydrorun/internal/series"
	"github.com/nvandessel/hydrorun/internal/store"
	"github.com/nvandessel/hydrorun/internal/tree"
	"github.com/nvandessel/hydrorun/internal/window"
)

var start = time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)

// dailyReport renders a flat report with one streamflow section running
// from start to the end of lastYear, simulated equal to observed.
func dailyReport(lastYear int) string {
	var b strings.Builder
	b.WriteString("GARDENIA listing\n")
	b.WriteString("Bassin : La Selle : Débit_Riv\n")
	end := time.Date(lastYear, 12, 31, 0, 0, 0, 0, time.UTC)
	for d, i := start, 0; !d.After(end); d, i = d.AddDate(0, 0, 1), i+1 {
		v := 10 + 5*math.Sin(float64(i)/30)
		fmt.Fprintf(&b, "%s\t%.6f\t%.6f\n", d.Format(report.ReportDateLayout), v, v)
	}
	b.WriteString("Fin : La Selle : Débit_Riv\n")
	return b.String()
}

// fakeEngine leaves files in the working directory the way the engine
// does, relocates them and reads the report back.
func fakeEngine(t *testing.T, reportText, echoed string) (engine.Engine, *[]engine.Invocation) {
	t.Helper()
	var calls []engine.Invocation
	return engine.Func(func(ctx context.Context, inv engine.Invocation) (*engine.Result, error) {
		calls = append(calls, inv)
		if _, err := os.Stat(filepath.Join(inv.WorkingDir, inv.PrimaryFile)); err != nil {
			return nil, fmt.Errorf("primary file missing: %w", err)
		}
		files := map[string]string{engine.ReportFile: reportText}
		if echoed != "" {
			files[engine.EchoedParametersFile] = echoed
		}
		for name, text := range files {
			if err := os.WriteFile(filepath.Join(inv.WorkingDir, name), []byte(text), 0o644); err != nil {
				return nil, err
			}
		}
		moved, err := engine.Relocate(inv.WorkingDir)
		if err != nil {
			return nil, err
		}
		return &engine.Result{Report: reportText, EchoedParameters: echoed, Relocated: moved}, nil
	}), &calls
}

func newTree(t *testing.T, tail int) *tree.Tree {
	t.Helper()
	p := tree.Partial{}
	p.Set(tree.MustParsePath("basin_settings.model.calibration.n_tail_years_to_trim"), tail)
	p.Set(tree.MustParsePath("physical_parameters.basin_area.val"), 524.0)
	p.Set(tree.MustParsePath("data.observation.streamflow"), "flow.prn")
	tr, err := tree.Default(p)
	if err != nil {
		t.Fatalf("tree.Default: %v", err)
	}
	return tr
}

func TestRunWritesInputsAndExports(t *testing.T) {
	dir := t.TempDir()
	tr := newTree(t, 2)

	calibrated := tr.Clone()
	if err := calibrated.Set(tree.MustParsePath("physical_parameters.basin_area.val"), 600.5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	echoed, err := codec.EncodeSecondary(calibrated)
	if err != nil {
		t.Fatalf("EncodeSecondary: %v", err)
	}

	eng, calls := fakeEngine(t, dailyReport(1994), echoed)
	hist := store.NewInMemoryStore()
	r := New(eng, dir, Options{
		Mode:        engine.ModeSilent,
		ExportCSV:   true,
		ExportArrow: true,
		Label:       "V0",
		History:     hist,
		LogLevel:    "debug",
	})

	res, err := r.Run(context.Background(), tr)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("expected one engine call, got %d", len(*calls))
	}
	if inv := (*calls)[0]; inv.PrimaryFile != "config/auto.rga" || inv.Mode != "M" {
		t.Errorf("unexpected invocation %+v", inv)
	}

	for _, name := range []string{PrimaryFile, SecondaryFile, TreeFile, KeepFile,
		"output/" + engine.ReportFile, "output/river_sim_obs.csv", "output/river_sim_obs.arrow", "output/journal.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, PrimaryFile))
	if err != nil {
		t.Fatalf("read primary: %v", err)
	}
	primary, err := codec.DecodeText(codec.DefaultCharset, raw)
	if err != nil {
		t.Fatalf("decode primary: %v", err)
	}
	if !strings.Contains(primary, "config/auto.gar") || !strings.Contains(primary, "data/flow.prn") {
		t.Errorf("primary file does not reference its inputs:\n%s", primary)
	}
	if !strings.Contains(primary, "Débits de Rivière") {
		t.Error("primary file labels were not decoded from windows-1252")
	}

	if s := res.Output.Get(series.Streamflow); s.Len() != 3652 {
		t.Errorf("streamflow rows = %d, want 3652", s.Len())
	}
	if len(res.Exports) != 2 {
		t.Errorf("exports = %v", res.Exports)
	}

	if res.Calibrated == nil {
		t.Fatal("expected calibrated tree from parameter echo")
	}
	if p, _ := res.Calibrated.Parameter("basin_area"); p.Value != 600.5 {
		t.Errorf("calibrated basin_area = %v", p.Value)
	}

	if res.RunID == "" {
		t.Fatal("expected run ID")
	}
	run, err := hist.GetRun(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Label != "V0" || run.Mode != "M" || len(run.Parameters) != 36 {
		t.Errorf("unexpected recorded run %+v", run)
	}
	for _, p := range run.Parameters {
		if p.Name != "basin_area" {
			continue
		}
		if p.Value != 524 || p.Calibrated == nil || *p.Calibrated != 600.5 {
			t.Errorf("recorded basin_area = %+v", p)
		}
	}
}

func TestRunTreeDumpReloads(t *testing.T) {
	dir := t.TempDir()
	tr := newTree(t, 3)
	eng, _ := fakeEngine(t, dailyReport(1990), "")

	if _, err := New(eng, dir, Options{Mode: engine.ModeSilent}).Run(context.Background(), tr); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, err := LoadTree(dir)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if !got.Equal(tr) {
		t.Errorf("reloaded tree differs at %v", got.Diff(tr))
	}
	if _, err := os.Stat(filepath.Join(dir, KeepFile)); !os.IsNotExist(err) {
		t.Error("keep.yaml should not exist without a parameter echo")
	}
	if _, err := os.Stat(filepath.Join(dir, "output", "journal.jsonl")); !os.IsNotExist(err) {
		t.Error("journal should not be written at info level")
	}
}

func TestTreeFor(t *testing.T) {
	dir := t.TempDir()
	area := tree.MustParsePath("physical_parameters.basin_area.val")

	got, fromDump, err := TreeFor(dir)
	if err != nil {
		t.Fatalf("TreeFor(empty dir) error = %v", err)
	}
	if fromDump {
		t.Error("expected the default tree without a dump")
	}
	def, _ := tree.Default()
	if !got.Equal(def) {
		t.Error("expected the default tree")
	}

	eng, _ := fakeEngine(t, dailyReport(1986), "")
	if _, err := New(eng, dir, Options{}).Run(context.Background(), newTree(t, 0)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	layer := tree.Partial{}
	layer.Set(area, 700.0)
	got, fromDump, err = TreeFor(dir, nil, layer)
	if err != nil {
		t.Fatalf("TreeFor(dump) error = %v", err)
	}
	if !fromDump {
		t.Error("expected the dumped tree")
	}
	if v, _ := got.Float(area); v != 700 {
		t.Errorf("basin_area = %v, want layered 700", v)
	}
	if s, _ := got.Str(tree.MustParsePath("data.observation.streamflow")); s != "flow.prn" {
		t.Errorf("dumped observation file lost: %q", s)
	}

	bad := tree.Partial{}
	bad.Set(tree.MustParsePath("no_such_branch.key"), 1)
	if _, _, err := TreeFor(dir, bad); !errors.Is(err, tree.ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestRunEngineOutputMissing(t *testing.T) {
	eng := engine.Func(func(ctx context.Context, inv engine.Invocation) (*engine.Result, error) {
		return &engine.Result{}, fmt.Errorf("%w: output/gardesim.prn does not exist", engine.ErrEngineOutputMissing)
	})
	_, err := New(eng, t.TempDir(), Options{}).Run(context.Background(), newTree(t, 0))
	if !errors.Is(err, engine.ErrEngineOutputMissing) {
		t.Errorf("expected ErrEngineOutputMissing, got %v", err)
	}
}

func TestRunForecastExportName(t *testing.T) {
	dir := t.TempDir()
	p := tree.Partial{}
	p.Set(tree.MustParsePath("general_settings.forecast_run"), 1)
	p.Set(tree.MustParsePath("basin_settings.time.forecast.span"), 0)
	tr, err := tree.Default(p)
	if err != nil {
		t.Fatalf("tree.Default: %v", err)
	}
	eng, _ := fakeEngine(t, dailyReport(1985), "")

	res, err := New(eng, dir, Options{ExportCSV: true}).Run(context.Background(), tr)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Output.Forecast {
		t.Error("expected forecast output")
	}
	if _, err := os.Stat(filepath.Join(dir, "output", "river_sim_obs_frc.csv")); err != nil {
		t.Errorf("expected forecast export: %v", err)
	}
}

func TestEvaluateAfterRun(t *testing.T) {
	dir := t.TempDir()
	hist := store.NewInMemoryStore()
	eng, _ := fakeEngine(t, dailyReport(1994), "")
	r := New(eng, dir, Options{ExportCSV: true, History: hist})

	res, err := r.Run(context.Background(), newTree(t, 2))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reg := metrics.NewRegistry()
	calib, err := r.Evaluate(context.Background(), EvalRequest{
		Variable: series.Streamflow,
		Period:   window.Calibration,
		Metric:   "NSE",
		RunID:    res.RunID,
	}, reg)
	if err != nil {
		t.Fatalf("Evaluate(calib) error = %v", err)
	}
	if math.Abs(calib.Value-1) > 1e-9 {
		t.Errorf("NSE = %v, want 1", calib.Value)
	}
	if want := time.Date(1989, 1, 1, 0, 0, 0, 0, time.UTC); !calib.From.Equal(want) {
		t.Errorf("calibration starts %v, want %v", calib.From, want)
	}
	if want := time.Date(1992, 12, 31, 0, 0, 0, 0, time.UTC); !calib.To.Equal(want) {
		t.Errorf("calibration ends %v, want %v", calib.To, want)
	}

	eval, err := r.Evaluate(context.Background(), EvalRequest{
		Variable: series.Streamflow,
		Period:   window.Evaluation,
		Metric:   "rmse",
		RunID:    res.RunID,
	}, reg)
	if err != nil {
		t.Fatalf("Evaluate(eval) error = %v", err)
	}
	if eval.Value > 1e-6 {
		t.Errorf("RMSE = %v, want 0", eval.Value)
	}
	if want := time.Date(1993, 1, 1, 0, 0, 0, 0, time.UTC); !eval.From.Equal(want) {
		t.Errorf("evaluation starts %v, want %v", eval.From, want)
	}

	points, err := hist.MetricHistory(context.Background(), "")
	if err != nil {
		t.Fatalf("MetricHistory: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 recorded metrics, got %d", len(points))
	}
}

func TestEvaluateWithoutEvaluationPeriod(t *testing.T) {
	dir := t.TempDir()
	eng, _ := fakeEngine(t, dailyReport(1990), "")
	if _, err := New(eng, dir, Options{ExportCSV: true}).Run(context.Background(), newTree(t, 0)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	_, err := EvaluateDir(dir, EvalRequest{Variable: series.Streamflow, Period: window.Evaluation, Metric: "NSE"}, metrics.NewRegistry())
	if !errors.Is(err, window.ErrNoEvaluationPeriod) {
		t.Errorf("expected ErrNoEvaluationPeriod, got %v", err)
	}
}

func TestEvaluateMissingOutputs(t *testing.T) {
	_, err := EvaluateDir(t.TempDir(), EvalRequest{Variable: series.Streamflow, Period: window.Calibration, Metric: "NSE"}, metrics.NewRegistry())
	if err == nil || !strings.Contains(err.Error(), "auto.yaml") {
		t.Errorf("expected missing tree dump error, got %v", err)
	}
}
