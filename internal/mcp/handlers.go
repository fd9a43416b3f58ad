package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/metrics"
	"github.com/nvandessel/hydrorun/internal/overrides"
	"github.com/nvandessel/hydrorun/internal/pathutil"
	"github.com/nvandessel/hydrorun/internal/ratelimit"
	"github.com/nvandessel/hydrorun/internal/report"
	"github.com/nvandessel/hydrorun/internal/runner"
	"github.com/nvandessel/hydrorun/internal/series"
	"github.com/nvandessel/hydrorun/internal/store"
	"github.com/nvandessel/hydrorun/internal/tree"
	"github.com/nvandessel/hydrorun/internal/window"
)

// TreeResourceURI serves the working directory's current tree.
const TreeResourceURI = "hydrorun://tree"

const defaultRunsLimit = 20

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hydrorun_tree_get",
		Description: "Show the configuration tree of the working directory, or one subtree, as YAML",
	}, s.handleTreeGet)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hydrorun_encode",
		Description: "Encode the configuration tree into the engine's project (primary) or parameter (secondary) file",
	}, s.handleEncode)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hydrorun_parse_report",
		Description: "Parse the engine's flat simulation report and summarize the series it holds",
	}, s.handleParseReport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hydrorun_evaluate",
		Description: "Score the last run's simulated series against observations over the calibration or evaluation period",
	}, s.handleEvaluate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "hydrorun_runs",
		Description: "List the runs recorded in the history for the working directory, newest first",
	}, s.handleRuns)
}

func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         TreeResourceURI,
		Name:        "hydrorun-tree",
		Description: "The configuration tree of the working directory as YAML: the last run's dump, or the defaults before any run.",
		MIMEType:    "application/yaml",
	}, s.handleTreeResource)
}

func (s *Server) handleTreeResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	t, _, err := runner.TreeFor(s.dir)
	if err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("rendering tree: %w", err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      TreeResourceURI,
			MIMEType: "application/yaml",
			Text:     string(b),
		}},
	}, nil
}

// loadTree returns the working directory's tree with assignments applied.
func (s *Server) loadTree(assignments []string) (*tree.Tree, string, error) {
	layer, err := overrides.ParseAssignments(assignments)
	if err != nil {
		return nil, "", err
	}
	t, fromDump, err := runner.TreeFor(s.dir, layer)
	if err != nil {
		return nil, "", err
	}
	source := "defaults"
	if fromDump {
		source = runner.TreeFile
	}
	return t, source, nil
}

func (s *Server) handleTreeGet(ctx context.Context, req *sdk.CallToolRequest, args TreeGetInput) (_ *sdk.CallToolResult, _ TreeGetOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hydrorun_tree_get", start, retErr, map[string]any{"path": args.Path, "set": args.Set})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "hydrorun_tree_get"); err != nil {
		return nil, TreeGetOutput{}, err
	}

	t, source, err := s.loadTree(args.Set)
	if err != nil {
		return nil, TreeGetOutput{}, err
	}
	var path tree.Path
	if args.Path != "" {
		if path, err = tree.ParsePath(args.Path); err != nil {
			return nil, TreeGetOutput{}, err
		}
	}
	node, err := t.Subtree(path)
	if err != nil {
		return nil, TreeGetOutput{}, err
	}
	b, err := yaml.Marshal(node)
	if err != nil {
		return nil, TreeGetOutput{}, fmt.Errorf("rendering %s: %w", args.Path, err)
	}
	return nil, TreeGetOutput{Source: source, Path: args.Path, YAML: string(b)}, nil
}

func (s *Server) handleEncode(ctx context.Context, req *sdk.CallToolRequest, args EncodeInput) (_ *sdk.CallToolResult, _ EncodeOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hydrorun_encode", start, retErr, map[string]any{"target": args.Target, "set": args.Set})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "hydrorun_encode"); err != nil {
		return nil, EncodeOutput{}, err
	}

	t, _, err := s.loadTree(args.Set)
	if err != nil {
		return nil, EncodeOutput{}, err
	}
	out := EncodeOutput{Target: strings.ToLower(args.Target)}
	switch out.Target {
	case "", "secondary":
		out.Target, out.File = "secondary", runner.SecondaryFile
		out.Text, err = codec.EncodeSecondary(t)
	case "primary":
		out.File = runner.PrimaryFile
		out.Text, err = codec.EncodePrimary(t, runner.SecondaryFile)
	default:
		return nil, EncodeOutput{}, fmt.Errorf("unknown target %q (want primary or secondary)", args.Target)
	}
	if err != nil {
		return nil, EncodeOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleParseReport(ctx context.Context, req *sdk.CallToolRequest, args ParseReportInput) (_ *sdk.CallToolResult, _ ParseReportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hydrorun_parse_report", start, retErr, map[string]any{"path": args.Path, "variable": args.Variable})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "hydrorun_parse_report"); err != nil {
		return nil, ParseReportOutput{}, err
	}

	rel := args.Path
	if rel == "" {
		rel = filepath.Join(engine.OutputDir, engine.ReportFile)
	}
	path, err := pathutil.Resolve(s.dir, rel)
	if err != nil {
		return nil, ParseReportOutput{}, fmt.Errorf("report path rejected: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ParseReportOutput{}, fmt.Errorf("reading %s: %w", pathutil.RedactPath(path), err)
	}
	text, err := codec.DecodeText(s.charset, raw)
	if err != nil {
		return nil, ParseReportOutput{}, err
	}

	t, _, err := runner.TreeFor(s.dir)
	if err != nil {
		return nil, ParseReportOutput{}, err
	}
	opts, err := reportOptions(t)
	if err != nil {
		return nil, ParseReportOutput{}, err
	}

	out := ParseReportOutput{Path: filepath.ToSlash(rel), Forecast: opts.Forecast, Series: []SeriesSummary{}}
	if args.Variable != "" {
		v, err := series.ParseVariable(args.Variable)
		if err != nil {
			return nil, ParseReportOutput{}, err
		}
		ser, err := report.ParseVariable(text, v, opts)
		if err != nil {
			return nil, ParseReportOutput{}, err
		}
		out.Series = append(out.Series, summarize(v, ser))
		return nil, out, nil
	}

	parsed, err := report.Parse(text, opts)
	if err != nil {
		return nil, ParseReportOutput{}, err
	}
	for _, v := range series.Variables {
		if ser, ok := parsed.Series[v]; ok {
			out.Series = append(out.Series, summarize(v, ser))
		}
	}
	return nil, out, nil
}

func reportOptions(t *tree.Tree) (report.Options, error) {
	forecast, err := t.ForecastRun()
	if err != nil {
		return report.Options{}, err
	}
	span, err := t.ForecastSpan()
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{Forecast: forecast, Span: span}, nil
}

func summarize(v series.Variable, s *series.Series) SeriesSummary {
	sum := SeriesSummary{Variable: string(v), Rows: s.Len(), HasForecast: s.HasForecast()}
	if !s.Empty() {
		sum.From = s.First().Format(series.DateLayout)
		sum.To = s.Last().Format(series.DateLayout)
	}
	return sum
}

func (s *Server) handleEvaluate(ctx context.Context, req *sdk.CallToolRequest, args EvaluateInput) (_ *sdk.CallToolResult, _ EvaluateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hydrorun_evaluate", start, retErr, map[string]any{
			"metric": args.Metric, "variable": args.Variable, "period": args.Period,
			"transform": args.Transform, "exponent": args.Exponent, "depth": args.Depth, "run_id": args.RunID,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "hydrorun_evaluate"); err != nil {
		return nil, EvaluateOutput{}, err
	}

	evalReq, err := evalRequest(args)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	if evalReq.RunID != "" && s.history == nil {
		return nil, EvaluateOutput{}, errors.New("run history is disabled, cannot record against a run")
	}

	r := runner.New(nil, s.dir, runner.Options{History: s.history, Logger: s.log})
	ev, err := r.Evaluate(ctx, evalReq, s.evaluator)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}

	out := EvaluateOutput{
		Variable:  string(ev.Variable),
		Period:    string(ev.Period),
		Metric:    ev.Metric,
		Transform: ev.Transform,
		Rows:      ev.Rows,
		Recorded:  evalReq.RunID != "",
	}
	if !math.IsNaN(ev.Value) && !math.IsInf(ev.Value, 0) {
		v := ev.Value
		out.Value = &v
	}
	if ev.Rows > 0 {
		out.From = ev.From.Format(series.DateLayout)
		out.To = ev.To.Format(series.DateLayout)
	}
	return nil, out, nil
}

func evalRequest(args EvaluateInput) (runner.EvalRequest, error) {
	if strings.TrimSpace(args.Metric) == "" {
		return runner.EvalRequest{}, errors.New("metric is required")
	}
	variable := args.Variable
	if variable == "" {
		variable = string(series.Streamflow)
	}
	v, err := series.ParseVariable(variable)
	if err != nil {
		return runner.EvalRequest{}, err
	}
	p, err := window.ParsePeriod(args.Period)
	if err != nil {
		return runner.EvalRequest{}, err
	}
	tr, err := metrics.ParseTransform(args.Transform, args.Exponent)
	if err != nil {
		return runner.EvalRequest{}, err
	}
	if args.Depth < 0 {
		return runner.EvalRequest{}, fmt.Errorf("depth must be >= 0, got %d", args.Depth)
	}
	return runner.EvalRequest{
		Variable:  v,
		Period:    p,
		Metric:    args.Metric,
		Transform: tr,
		Depth:     args.Depth,
		RunID:     args.RunID,
	}, nil
}

func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("hydrorun_runs", start, retErr, map[string]any{"limit": args.Limit})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "hydrorun_runs"); err != nil {
		return nil, RunsOutput{}, err
	}
	if s.history == nil {
		return nil, RunsOutput{}, errors.New("run history is disabled")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, RunsOutput{}, err
	}
	runs, err := s.history.ListRuns(ctx, store.ListOptions{WorkingDir: dir, Limit: limit})
	if err != nil {
		return nil, RunsOutput{}, err
	}
	out := RunsOutput{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, RunSummary{
			ID:         r.ID,
			Label:      r.Label,
			StartedAt:  r.StartedAt.Format(time.RFC3339),
			Mode:       r.Mode,
			Forecast:   r.Forecast,
			DurationMs: r.Duration.Milliseconds(),
			ExitCode:   r.ExitCode,
		})
	}
	out.Count = len(out.Runs)
	return nil, out, nil
}
