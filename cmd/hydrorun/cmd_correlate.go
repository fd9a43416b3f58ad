package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/hydrorun/internal/metrics"
	"github.com/nvandessel/hydrorun/internal/report"
)

func newCorrelateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlate <file.prn> <file.prn>...",
		Short: "Correlate input series",
		Long: `Read two or more PRN input files (Date<TAB>Label) and print the
correlation matrix of their values over common dates. Files are labelled
by name without extension.

Examples:
  hydrorun correlate data/my-debit.prn data/my-pluie.prn data/my-etp.prn
  hydrorun correlate --method spearman data/*.prn`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, _ := cmd.Flags().GetString("method")
			data := make([]*report.Data, 0, len(args))
			for _, path := range args {
				d, err := readPRN(path)
				if err != nil {
					return err
				}
				d.Measure.Label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				data = append(data, d)
			}
			m, err := metrics.CorrelationMatrix(strings.ToLower(method), data...)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				values := make([][]*float64, len(m.Values))
				for i, row := range m.Values {
					values[i] = make([]*float64, len(row))
					for j, v := range row {
						values[i][j] = finiteOrNil(v)
					}
				}
				return printJSON(cmd, map[string]any{"method": method, "names": m.Names, "values": values})
			}
			rows := make([][]string, len(m.Names))
			for i, name := range m.Names {
				rows[i] = append([]string{name}, make([]string, len(m.Names))...)
				for j, v := range m.Values[i] {
					rows[i][j+1] = formatNumber(v)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(append([]string{""}, m.Names...), rows))
			return nil
		},
	}
	cmd.Flags().String("method", metrics.PearsonMethod, "Correlation method: pearson or spearman")
	return cmd
}

func readPRN(path string) (*report.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	d, err := report.ReadPRN(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
