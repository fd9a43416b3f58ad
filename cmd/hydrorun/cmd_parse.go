package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/engine"
	"github.com/nvandessel/hydrorun/internal/report"
	"github.com/nvandessel/hydrorun/internal/series"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [report]",
		Short: "Extract simulated and observed series from a report",
		Long: `Parse the engine's flat simulation report (default output/gardesim.prn in
the working directory) and summarize the series it holds. With --csv the
series of --variable is written as CSV instead.

Forecast mode and span are read from the tree, so pass the same overrides
the run used.

Examples:
  hydrorun parse
  hydrorun parse --variable streamflow --csv > flow.csv
  hydrorun parse archive/gardesim.prn --variable piezo-level --arrow piezo.arrow`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings(cmd)
			if err != nil {
				return err
			}
			dir, err := workingDir(cfg)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, engine.OutputDir, engine.ReportFile)
			if len(args) == 1 {
				path = args[0]
			}

			t, _, err := loadTree(cmd, dir)
			if err != nil {
				return err
			}
			forecast, err := t.ForecastRun()
			if err != nil {
				return err
			}
			span, err := t.ForecastSpan()
			if err != nil {
				return err
			}
			opts := report.Options{Forecast: forecast, Span: span}

			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}
			text, err := codec.DecodeText(cfg.Engine.Charset, raw)
			if err != nil {
				return err
			}

			asCSV, _ := cmd.Flags().GetBool("csv")
			arrowOut, _ := cmd.Flags().GetString("arrow")
			name, _ := cmd.Flags().GetString("variable")
			if asCSV || arrowOut != "" {
				v, err := series.ParseVariable(name)
				if err != nil {
					return err
				}
				s, err := report.ParseVariable(text, v, opts)
				if err != nil {
					return err
				}
				if arrowOut != "" {
					if err := writeArrowFile(arrowOut, s, forecast); err != nil {
						return err
					}
				}
				if asCSV {
					return series.WriteCSV(cmd.OutOrStdout(), s, forecast)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", s.Len(), arrowOut)
				return nil
			}

			out, err := report.Parse(text, opts)
			if err != nil {
				return err
			}
			lines := make([]seriesLine, 0, len(out.Series))
			for _, v := range series.Variables {
				s := out.Get(v)
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
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"path": path, "forecast": forecast, "series": lines})
			}
			if len(lines) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No simulated series in %s\n", path)
				return nil
			}
			rows := make([][]string, 0, len(lines))
			for _, l := range lines {
				rows = append(rows, []string{l.Variable, fmt.Sprint(l.Rows), orDash(l.From), orDash(l.To), yesNo(l.HasForecast)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"VARIABLE", "ROWS", "FROM", "TO", "FORECAST"}, rows))
			return nil
		},
	}
	addTreeFlags(cmd)
	cmd.Flags().String("variable", string(series.Streamflow), "Variable to export: streamflow or piezo-level")
	cmd.Flags().Bool("csv", false, "Write the variable's series as CSV to stdout")
	cmd.Flags().String("arrow", "", "Write the variable's series as an Arrow IPC file")
	return cmd
}

func writeArrowFile(path string, s *series.Series, forecast bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return series.WriteArrow(f, s, forecast)
}
