package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format of exported series.
const DateLayout = "2006-01-02"

// ExportName returns the base file name of an exported series, without
// extension: river_sim_obs, piezo_sim_obs_frc, ...
func ExportName(v Variable, forecast bool) string {
	name := v.Prefix() + "_sim_obs"
	if forecast {
		name += "_frc"
	}
	return name
}

// Header returns the export column names.
func Header(v Variable, forecast bool) []string {
	p := v.Prefix()
	h := []string{"dt", p + "_sim", p + "_obs"}
	if forecast {
		for _, s := range Scenarios {
			h = append(h, p+"_frc_"+s)
		}
	}
	return h
}

// WriteCSV writes s with a header row. Missing values are empty cells.
func WriteCSV(w io.Writer, s *Series, forecast bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(s.Variable, forecast)); err != nil {
		return err
	}
	for _, r := range s.Rows {
		rec := []string{r.Date.Format(DateLayout), formatValue(r.Simulated), formatValue(r.Observed)}
		if forecast {
			for _, v := range forecastValues(r) {
				rec = append(rec, formatValue(v))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a series written by WriteCSV. Forecast columns are detected
// from the header.
func ReadCSV(r io.Reader, v Variable) (*Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 3 || header[0] != "dt" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	forecast := len(header) > 3
	out := &Series{Variable: v}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		d, err := time.Parse(DateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		vals := make([]float64, len(rec)-1)
		for i, cell := range rec[1:] {
			if vals[i], err = parseValue(cell); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, header[i+1], err)
			}
		}
		row := Row{Date: d, Simulated: at(vals, 0), Observed: at(vals, 1)}
		if forecast && len(vals) > 2 && anyFinite(vals[2:]) {
			f := ForecastFrom(vals[2:])
			row.Forecast = &f
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func forecastValues(r Row) [6]float64 {
	if r.Forecast == nil {
		return [6]float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	}
	return r.Forecast.Values()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return math.NaN()
}

func anyFinite(vals []float64) bool {
	for _, v := range vals {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}
