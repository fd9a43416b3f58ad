package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded runs",
		Long: `Browse the run history database: the runs recorded by hydrorun run, the
parameters each run used and the scores attached to it.

Examples:
  hydrorun history runs --limit 5
  hydrorun history show 20261016-101500-3f2a9c1e
  hydrorun history params basin_area
  hydrorun history metrics NSE
  hydrorun history export --all
  hydrorun history import selle-runs.hra`,
	}
	cmd.AddCommand(
		newHistoryRunsCmd(),
		newHistoryShowCmd(),
		newHistoryParamsCmd(),
		newHistoryMetricsCmd(),
		newHistoryExportCmd(),
		newHistoryImportCmd(),
		newHistoryArchivesCmd(),
	)
	return cmd
}

// withHistory opens the history database for read commands. A database
// that was never created is reported rather than created empty.
func withHistory(cmd *cobra.Command, fn func(store.HistoryStore) error) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no run history at %s (enable history.enabled and run first)", path)
	}
	h, err := store.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer h.Close()
	return fn(h)
}

func newHistoryRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			all, _ := cmd.Flags().GetBool("all")
			opts := store.ListOptions{Limit: limit}
			if !all {
				cfg, err := settings(cmd)
				if err != nil {
					return err
				}
				if opts.WorkingDir, err = workingDir(cfg); err != nil {
					return err
				}
			}
			return withHistory(cmd, func(h store.HistoryStore) error {
				runs, err := h.ListRuns(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, map[string]any{"runs": runs, "count": len(runs)})
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					row := []string{
						r.ID, orDash(r.Label), r.StartedAt.Local().Format("2006-01-02 15:04:05"),
						modeName(r.Mode), yesNo(r.Forecast), formatMs(r.Duration.Milliseconds()), fmt.Sprint(r.ExitCode),
					}
					if all {
						row = append(row, filepath.Base(r.WorkingDir))
					}
					rows = append(rows, row)
				}
				headers := []string{"ID", "LABEL", "STARTED", "MODE", "FORECAST", "DURATION", "EXIT"}
				if all {
					headers = append(headers, "DIR")
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows))
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	cmd.Flags().Bool("all", false, "List runs of every working directory")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its parameters and scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			withTree, _ := cmd.Flags().GetBool("tree")
			return withHistory(cmd, func(h store.HistoryStore) error {
				r, err := h.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !withTree {
					r.Tree = ""
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, runView(r))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s\n", r.ID)
				if r.Label != "" {
					fmt.Fprintf(out, "  label:    %s\n", r.Label)
				}
				fmt.Fprintf(out, "  dir:      %s\n", r.WorkingDir)
				fmt.Fprintf(out, "  started:  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "  mode:     %s\n", modeName(r.Mode))
				fmt.Fprintf(out, "  forecast: %s\n", yesNo(r.Forecast))
				fmt.Fprintf(out, "  duration: %s\n", formatMs(r.Duration.Milliseconds()))
				fmt.Fprintf(out, "  exit:     %d\n", r.ExitCode)

				if len(r.Parameters) > 0 {
					rows := make([][]string, 0, len(r.Parameters))
					for _, p := range r.Parameters {
						rows = append(rows, []string{
							p.Name, formatNumber(p.Value), formatOptional(p.Calibrated), yesNo(p.Optimise),
							formatNumber(p.Min), formatNumber(p.Max),
						})
					}
					fmt.Fprintln(out, renderTable([]string{"PARAMETER", "VALUE", "CALIBRATED", "OPTIMISE", "MIN", "MAX"}, rows))
				}
				if len(r.Metrics) > 0 {
					rows := make([][]string, 0, len(r.Metrics))
					for _, m := range r.Metrics {
						rows = append(rows, []string{m.Name, m.Variable, m.Period, orDash(m.Transform), formatNumber(m.Value)})
					}
					fmt.Fprintln(out, renderTable([]string{"METRIC", "VARIABLE", "PERIOD", "TRANSFORM", "VALUE"}, rows))
				}
				if r.Tree != "" {
					fmt.Fprintln(out, r.Tree)
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("tree", false, "Include the tree dump the run used")
	return cmd
}

func newHistoryParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params <name>",
		Short: "Trace one physical parameter across runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(h store.HistoryStore) error {
				points, err := h.ParameterHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					views := make([]map[string]any, 0, len(points))
					for _, p := range points {
						views = append(views, map[string]any{
							"run_id": p.RunID, "label": p.Label, "started_at": p.StartedAt,
							"parameter": parameterView(p.Parameter),
						})
					}
					return printJSON(cmd, map[string]any{"parameter": args[0], "points": views})
				}
				if len(points) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded parameter %s.\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(points))
				for _, p := range points {
					rows = append(rows, []string{
						p.RunID, orDash(p.Label), p.StartedAt.Local().Format("2006-01-02 15:04"),
						formatNumber(p.Parameter.Value), formatOptional(p.Parameter.Calibrated), yesNo(p.Parameter.Optimise),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"RUN", "LABEL", "STARTED", "VALUE", "CALIBRATED", "OPTIMISE"}, rows))
				return nil
			})
		},
	}
}

func newHistoryMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [name]",
		Short: "Trace recorded scores across runs, optionally one metric",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = strings.ToUpper(args[0])
			}
			return withHistory(cmd, func(h store.HistoryStore) error {
				points, err := h.MetricHistory(cmd.Context(), name)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, map[string]any{"metric": name, "points": points})
				}
				if len(points) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No scores recorded.")
					return nil
				}
				rows := make([][]string, 0, len(points))
				for _, p := range points {
					rows = append(rows, []string{
						p.RunID, orDash(p.Label), p.Metric.Name, p.Metric.Variable, p.Metric.Period,
						orDash(p.Metric.Transform), formatNumber(p.Metric.Value),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"RUN", "LABEL", "METRIC", "VARIABLE", "PERIOD", "TRANSFORM", "VALUE"}, rows))
				return nil
			})
		},
	}
}

// runView renders r for JSON output. Bounds the engine left unset are
// stored as NaN and come out as null.
func runView(r *store.Run) map[string]any {
	params := make([]map[string]any, 0, len(r.Parameters))
	for _, p := range r.Parameters {
		params = append(params, parameterView(p))
	}
	metrics := make([]map[string]any, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		metrics = append(metrics, map[string]any{
			"variable": m.Variable, "period": m.Period, "name": m.Name,
			"transform": m.Transform, "value": finiteOrNil(m.Value),
		})
	}
	out := map[string]any{
		"id":          r.ID,
		"label":       r.Label,
		"working_dir": r.WorkingDir,
		"mode":        r.Mode,
		"forecast":    r.Forecast,
		"started_at":  r.StartedAt,
		"duration_ms": r.Duration.Milliseconds(),
		"exit_code":   r.ExitCode,
		"parameters":  params,
		"metrics":     metrics,
	}
	if r.Tree != "" {
		out["tree"] = r.Tree
	}
	return out
}

func parameterView(p store.Parameter) map[string]any {
	v := map[string]any{
		"name":     p.Name,
		"value":    finiteOrNil(p.Value),
		"optimise": p.Optimise,
		"min":      finiteOrNil(p.Min),
		"max":      finiteOrNil(p.Max),
	}
	if p.Calibrated != nil {
		v["calibrated"] = finiteOrNil(*p.Calibrated)
	}
	return v
}

func modeName(m string) string {
	if m == "" {
		return "fast"
	}
	return m
}
