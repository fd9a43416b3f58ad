package mcp

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

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/report"
	"github.com/nvandessel/hydrorun/internal/runner"
	"github.com/nvandessel/hydrorun/internal/store"
	"github.com/nvandessel/hydrorun/internal/tree"
)

// flowReport renders a streamflow section from 1985 to the end of lastYear
// with simulated equal to observed.
func flowReport(lastYear int) string {
	var b strings.Builder
	b.WriteString("GARDENIA listing\n")
	b.WriteString("Bassin : La Selle : Débit_Riv\n")
	end := time.Date(lastYear, 12, 31, 0, 0, 0, 0, time.UTC)
	for d, i := time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), 0; !d.After(end); d, i = d.AddDate(0, 0, 1), i+1 {
		v := 12 + 4*math.Cos(float64(i)/45)
		fmt.Fprintf(&b, "%s\t%.6f\t%.6f\n", d.Format(report.ReportDateLayout), v, v)
	}
	b.WriteString("Fin : La Selle : Débit_Riv\n")
	return b.String()
}

// runIn performs one run in dir with an engine that leaves a windows-1252
// report behind, and returns its history ID.
func runIn(t *testing.T, dir string, hist store.HistoryStore) string {
	t.Helper()
	text := flowReport(1992)
	eng := engine.Func(func(ctx context.Context, inv engine.Invocation) (*engine.Result, error) {
		raw, err := codec.EncodeText(codec.DefaultCharset, text)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(inv.WorkingDir, engine.ReportFile), raw, 0o644); err != nil {
			return nil, err
		}
		moved, err := engine.Relocate(inv.WorkingDir)
		if err != nil {
			return nil, err
		}
		return &engine.Result{Report: text, Relocated: moved}, nil
	})

	p := tree.Partial{}
	p.Set(tree.MustParsePath("basin_settings.model.calibration.n_tail_years_to_trim"), 1)
	tr, err := tree.Default(p)
	if err != nil {
		t.Fatalf("tree.Default: %v", err)
	}
	res, err := runner.New(eng, dir, runner.Options{ExportCSV: true, History: hist}).Run(context.Background(), tr)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res.RunID
}

func newTestServer(t *testing.T, dir string, hist store.HistoryStore) *Server {
	t.Helper()
	s, err := NewServer(&Config{
		Name:       "hydrorun-test",
		Version:    "v0.0.0",
		WorkingDir: dir,
		History:    hist,
		AuditPath:  filepath.Join(t.TempDir(), "audit.jsonl"),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHandleTreeGet(t *testing.T) {
	s := newTestServer(t, t.TempDir(), nil)
	ctx := context.Background()

	_, out, err := s.handleTreeGet(ctx, &sdk.CallToolRequest{}, TreeGetInput{
		Path: "physical_parameters.basin_area",
		Set:  []string{"physical_parameters.basin_area.val=612.5"},
	})
	if err != nil {
		t.Fatalf("handleTreeGet() error = %v", err)
	}
	if out.Source != "defaults" {
		t.Errorf("Source = %q, want defaults", out.Source)
	}
	if !strings.Contains(out.YAML, "val: 612.5") {
		t.Errorf("expected assignment in subtree:\n%s", out.YAML)
	}

	_, whole, err := s.handleTreeGet(ctx, &sdk.CallToolRequest{}, TreeGetInput{})
	if err != nil {
		t.Fatalf("handleTreeGet(root) error = %v", err)
	}
	for _, branch := range []string{"general_settings:", "physical_parameters:", "data:"} {
		if !strings.Contains(whole.YAML, branch) {
			t.Errorf("whole tree lacks %s", branch)
		}
	}
}

func TestHandleTreeGet_Errors(t *testing.T) {
	s := newTestServer(t, t.TempDir(), nil)
	ctx := context.Background()

	_, _, err := s.handleTreeGet(ctx, &sdk.CallToolRequest{}, TreeGetInput{Path: "physical_parameters.nope"})
	if !errors.Is(err, tree.ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
	_, _, err = s.handleTreeGet(ctx, &sdk.CallToolRequest{}, TreeGetInput{Set: []string{"no-equals-sign"}})
	if err == nil {
		t.Error("expected an invalid assignment error")
	}
}

func TestHandleTreeGet_FromDump(t *testing.T) {
	dir := t.TempDir()
	runIn(t, dir, nil)
	s := newTestServer(t, dir, nil)

	_, out, err := s.handleTreeGet(context.Background(), &sdk.CallToolRequest{}, TreeGetInput{
		Path: "basin_settings.model.calibration.n_tail_years_to_trim",
	})
	if err != nil {
		t.Fatalf("handleTreeGet() error = %v", err)
	}
	if out.Source != runner.TreeFile {
		t.Errorf("Source = %q, want %q", out.Source, runner.TreeFile)
	}
	if strings.TrimSpace(out.YAML) != "1" {
		t.Errorf("YAML = %q, want the dumped value 1", out.YAML)
	}
}

func TestHandleEncode(t *testing.T) {
	s := newTestServer(t, t.TempDir(), nil)
	ctx := context.Background()

	_, sec, err := s.handleEncode(ctx, &sdk.CallToolRequest{}, EncodeInput{})
	if err != nil {
		t.Fatalf("handleEncode(secondary) error = %v", err)
	}
	if sec.Target != "secondary" || sec.File != runner.SecondaryFile || sec.Text == "" {
		t.Errorf("unexpected secondary output %+v", sec)
	}

	_, prim, err := s.handleEncode(ctx, &sdk.CallToolRequest{}, EncodeInput{Target: "PRIMARY"})
	if err != nil {
		t.Fatalf("handleEncode(primary) error = %v", err)
	}
	if prim.File != runner.PrimaryFile || !strings.Contains(prim.Text, runner.SecondaryFile) {
		t.Errorf("primary file should reference %s:\n%s", runner.SecondaryFile, prim.Text)
	}

	if _, _, err := s.handleEncode(ctx, &sdk.CallToolRequest{}, EncodeInput{Target: "tertiary"}); err == nil {
		t.Error("expected unknown target error")
	}
}

func TestHandleParseReport(t *testing.T) {
	dir := t.TempDir()
	runIn(t, dir, nil)
	s := newTestServer(t, dir, nil)
	ctx := context.Background()

	_, out, err := s.handleParseReport(ctx, &sdk.CallToolRequest{}, ParseReportInput{})
	if err != nil {
		t.Fatalf("handleParseReport() error = %v", err)
	}
	if out.Forecast || len(out.Series) != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	got := out.Series[0]
	if got.Variable != "streamflow" || got.Rows != 2922 || got.From != "1985-01-01" || got.To != "1992-12-31" {
		t.Errorf("unexpected summary %+v", got)
	}

	_, _, err = s.handleParseReport(ctx, &sdk.CallToolRequest{}, ParseReportInput{Variable: "piezo-level"})
	if !errors.Is(err, report.ErrSectionNotFound) {
		t.Errorf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestHandleParseReport_PathOutsideWorkingDir(t *testing.T) {
	s := newTestServer(t, t.TempDir(), nil)
	_, _, err := s.handleParseReport(context.Background(), &sdk.CallToolRequest{}, ParseReportInput{Path: "../../etc/passwd"})
	if err == nil || !strings.Contains(err.Error(), "outside allowed directories") {
		t.Errorf("expected path rejection, got %v", err)
	}
}

func TestHandleParseReport_RateLimited(t *testing.T) {
	dir := t.TempDir()
	runIn(t, dir, nil)
	s := newTestServer(t, dir, nil)

	var err error
	for i := 0; i < 4 && err == nil; i++ {
		_, _, err = s.handleParseReport(context.Background(), &sdk.CallToolRequest{}, ParseReportInput{})
	}
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("expected rate limit error on the fourth call, got %v", err)
	}
}

func TestHandleEvaluate(t *testing.T) {
	dir := t.TempDir()
	hist := store.NewInMemoryStore()
	id := runIn(t, dir, hist)
	s := newTestServer(t, dir, hist)
	ctx := context.Background()

	_, out, err := s.handleEvaluate(ctx, &sdk.CallToolRequest{}, EvaluateInput{Metric: "NSE", RunID: id})
	if err != nil {
		t.Fatalf("handleEvaluate() error = %v", err)
	}
	if out.Value == nil || math.Abs(*out.Value-1) > 1e-9 {
		t.Errorf("NSE = %v, want 1", out.Value)
	}
	if out.Period != "calib" || out.Variable != "streamflow" || !out.Recorded {
		t.Errorf("unexpected output %+v", out)
	}
	if out.From != "1989-01-01" || out.To != "1991-12-31" {
		t.Errorf("calibration window %s..%s, want 1989-01-01..1991-12-31", out.From, out.To)
	}

	_, eval, err := s.handleEvaluate(ctx, &sdk.CallToolRequest{}, EvaluateInput{Metric: "rmse", Period: "eval", Transform: "sqrt"})
	if err != nil {
		t.Fatalf("handleEvaluate(eval) error = %v", err)
	}
	if eval.From != "1992-01-01" || eval.Transform != "sqrt" || eval.Recorded {
		t.Errorf("unexpected evaluation output %+v", eval)
	}

	points, err := hist.MetricHistory(ctx, "NSE")
	if err != nil {
		t.Fatalf("MetricHistory: %v", err)
	}
	if len(points) != 1 || points[0].RunID != id {
		t.Errorf("expected NSE recorded against %s, got %+v", id, points)
	}
}

func TestHandleEvaluate_InvalidInput(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   EvaluateInput
		want string
	}{
		{"missing metric", EvaluateInput{}, "metric is required"},
		{"bad variable", EvaluateInput{Metric: "NSE", Variable: "rain"}, "unknown variable"},
		{"bad period", EvaluateInput{Metric: "NSE", Period: "all"}, "not valid"},
		{"pow without exponent", EvaluateInput{Metric: "NSE", Transform: "pow"}, "exponent"},
		{"negative depth", EvaluateInput{Metric: "NSE", Depth: -1}, "depth"},
		{"run id without history", EvaluateInput{Metric: "NSE", RunID: "x"}, "history is disabled"},
		{"no run yet", EvaluateInput{Metric: "NSE"}, "auto.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// One server per case keeps every call inside the evaluate burst.
			s := newTestServer(t, t.TempDir(), nil)
			_, _, err := s.handleEvaluate(ctx, &sdk.CallToolRequest{}, tt.in)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestHandleRuns(t *testing.T) {
	dir := t.TempDir()
	hist := store.NewInMemoryStore()
	first := runIn(t, dir, hist)
	second := runIn(t, dir, hist)
	if _, err := hist.RecordRun(context.Background(), store.Run{WorkingDir: "/elsewhere", Mode: "M"}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	s := newTestServer(t, dir, hist)

	_, out, err := s.handleRuns(context.Background(), &sdk.CallToolRequest{}, RunsInput{})
	if err != nil {
		t.Fatalf("handleRuns() error = %v", err)
	}
	if out.Count != 2 || out.Runs[0].ID != second || out.Runs[1].ID != first {
		t.Errorf("expected [%s %s], got %+v", second, first, out.Runs)
	}

	_, one, err := s.handleRuns(context.Background(), &sdk.CallToolRequest{}, RunsInput{Limit: 1})
	if err != nil || one.Count != 1 {
		t.Errorf("limit 1 gave %+v, %v", one, err)
	}
}

func TestHandleRuns_NoHistory(t *testing.T) {
	s := newTestServer(t, t.TempDir(), nil)
	if _, _, err := s.handleRuns(context.Background(), &sdk.CallToolRequest{}, RunsInput{}); err == nil {
		t.Error("expected error without history")
	}
}

func TestHandleTreeResource(t *testing.T) {
	s := newTestServer(t, t.TempDir(), nil)
	res, err := s.handleTreeResource(context.Background(), &sdk.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleTreeResource() error = %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("expected one content, got %d", len(res.Contents))
	}
	c := res.Contents[0]
	if c.URI != TreeResourceURI || c.MIMEType != "application/yaml" {
		t.Errorf("unexpected content metadata %+v", c)
	}
	if !strings.Contains(c.Text, "physical_parameters:") {
		t.Error("resource does not hold the tree")
	}
}
