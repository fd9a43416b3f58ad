package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/config"
	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/runner"
	"github.com/nvandessel/hydrorun/internal/series"
	"github.com/nvandessel/hydrorun/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Encode the tree, run the engine and parse its report",
		Long: `Run the full pipeline in the working directory: write the engine input
files from the tree, invoke the engine, move its outputs into output/,
parse the simulation report and export the series.

The tree dump is saved to config/auto.yaml so the next run starts from it.
When the engine echoes calibrated parameters, the rebuilt tree is written
to output/keep.yaml.

Examples:
  hydrorun run
  hydrorun run --set physical_parameters.basin_area.val=612 --label area-612
  hydrorun run --override loire.hcl --mode M --arrow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			dir, err := workingDir(cfg)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)

			mode := cfg.Run.Mode
			if cmd.Flags().Changed("mode") {
				mode, _ = cmd.Flags().GetString("mode")
			}
			if !engine.ValidMode(mode) {
				return fmt.Errorf("invalid engine mode %q (want M, D, C or empty)", mode)
			}
			extraction, err := codec.ParseExtraction(cfg.Run.Extraction)
			if err != nil {
				return err
			}

			t, _, err := loadTree(cmd, dir)
			if err != nil {
				return err
			}

			noHistory, _ := cmd.Flags().GetBool("no-history")
			var history store.HistoryStore
			if cfg.History.Enabled && !noHistory {
				h, err := openHistory(cfg)
				if err != nil {
					return err
				}
				defer h.Close()
				history = h
			}

			label, _ := cmd.Flags().GetString("label")
			exportArrow, _ := cmd.Flags().GetBool("arrow")
			noCSV, _ := cmd.Flags().GetBool("no-csv")

			r := runner.New(engine.NewProcess(cfg.Engine.Path, cfg.Engine.Charset, log), dir, runner.Options{
				Mode:        mode,
				Charset:     cfg.Engine.Charset,
				Extraction:  extraction,
				ExportCSV:   cfg.Run.ExportCSV && !noCSV,
				ExportArrow: cfg.Run.ExportArrow || exportArrow,
				Label:       label,
				History:     history,
				Logger:      log,
				LogLevel:    cfg.Logging.Level,
			})

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			if cfg.Engine.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Engine.Timeout)
				defer cancel()
			}

			res, err := r.Run(ctx, t)
			if err != nil {
				return err
			}
			return printRunResult(cmd, dir, res)
		},
	}
	addTreeFlags(cmd)
	cmd.Flags().String("label", "", "Label recorded with the run in the history")
	cmd.Flags().String("mode", "", "Engine mode: M (silent), D, C or empty for fast (default from config)")
	cmd.Flags().Bool("no-history", false, "Do not record this run")
	cmd.Flags().Bool("no-csv", false, "Skip the CSV exports")
	cmd.Flags().Bool("arrow", false, "Also export Arrow IPC files")
	return cmd
}

// openHistory opens the configured SQLite run history.
func openHistory(cfg *config.HydrorunConfig) (*store.SQLiteStore, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return store.OpenSQLite(path)
}

type seriesLine struct {
	Variable    string `json:"variable"`
	Rows        int    `json:"rows"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	HasForecast bool   `json:"has_forecast"`
}

func printRunResult(cmd *cobra.Command, dir string, res *runner.Result) error {
	var lines []seriesLine
	forecast := false
	if res.Output != nil {
		forecast = res.Output.Forecast
		for _, v := range series.Variables {
			s := res.Output.Get(v)
			if s == nil {
				continue
			}
			l := seriesLine{Variable: string(v), Rows: s.Len(), HasForecast: s.HasForecast()}
			if !s.Empty() {
				l.From = s.First().Format(series.DateLayout)
				l.To = s.Last().Format(series.DateLayout)
			}
			lines = append(lines, l)
		}
	}
	exitCode := 0
	if res.Engine != nil {
		exitCode = res.Engine.ExitCode
	}
	exports := append([]string(nil), res.Exports...)
	sort.Strings(exports)

	if jsonOutput(cmd) {
		return printJSON(cmd, map[string]any{
			"run_id":      res.RunID,
			"working_dir": dir,
			"forecast":    forecast,
			"exit_code":   exitCode,
			"duration_ms": res.Duration.Milliseconds(),
			"calibrated":  res.Calibrated != nil,
			"series":      lines,
			"exports":     exports,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run complete in %s\n", formatMs(res.Duration.Milliseconds()))
	if res.RunID != "" {
		fmt.Fprintf(out, "  run id:    %s\n", res.RunID)
	}
	fmt.Fprintf(out, "  exit code: %d\n", exitCode)
	if forecast {
		fmt.Fprintln(out, "  forecast:  yes")
	}
	if res.Calibrated != nil {
		fmt.Fprintf(out, "  calibrated tree: %s\n", runner.KeepFile)
	}
	if len(lines) > 0 {
		rows := make([][]string, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []string{l.Variable, fmt.Sprint(l.Rows), orDash(l.From), orDash(l.To), yesNo(l.HasForecast)})
		}
		fmt.Fprintln(out, renderTable([]string{"VARIABLE", "ROWS", "FROM", "TO", "FORECAST"}, rows))
	} else {
		fmt.Fprintln(out, "  no simulated series in the report")
	}
	for _, e := range exports {
		fmt.Fprintf(out, "  exported %s\n", e)
	}
	return nil
}
