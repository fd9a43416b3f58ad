// Package series holds the simulated/observed time series produced by a run.
package series

import (
	"fmt"
	"math"
	"time"
)

// Variable is a tracked output of the engine.
type Variable string

const (
	Streamflow Variable = "streamflow"
	PiezoLevel Variable = "piezo-level"
)

// Variables lists every tracked variable in report order.
var Variables = []Variable{Streamflow, PiezoLevel}

// ParseVariable accepts the variable name or its export prefix.
func ParseVariable(s string) (Variable, error) {
	switch s {
	case "streamflow", "river", "debit":
		return Streamflow, nil
	case "piezo-level", "piezo_level", "piezo", "niveau":
		return PiezoLevel, nil
	default:
		return "", fmt.Errorf("unknown variable %q (want streamflow or piezo-level)", s)
	}
}

// Prefix is the short name used in export columns and file names.
func (v Variable) Prefix() string {
	if v == PiezoLevel {
		return "piezo"
	}
	return "river"
}

// Marker is the section suffix the engine writes in its flat report.
func (v Variable) Marker() string {
	if v == PiezoLevel {
		return "Niveau_Aquif"
	}
	return "Débit_Riv"
}

// Scenarios names the forecast columns in the order the engine writes them.
var Scenarios = [6]string{"no-rain", "10%-dry", "20%-dry", "50%", "20%-wet", "10%-wet"}

// Forecast holds the per-scenario values of one forecast step.
type Forecast struct {
	NoRain float64
	Dry10  float64
	Dry20  float64
	Median float64
	Wet20  float64
	Wet10  float64
}

// Values returns the scenarios in Scenarios order.
func (f Forecast) Values() [6]float64 {
	return [6]float64{f.NoRain, f.Dry10, f.Dry20, f.Median, f.Wet20, f.Wet10}
}

// ForecastFrom builds a Forecast from values in Scenarios order. Missing
// trailing values are NaN.
func ForecastFrom(vals []float64) Forecast {
	var v [6]float64
	for i := range v {
		v[i] = math.NaN()
		if i < len(vals) {
			v[i] = vals[i]
		}
	}
	return Forecast{NoRain: v[0], Dry10: v[1], Dry20: v[2], Median: v[3], Wet20: v[4], Wet10: v[5]}
}

// Row is one dated observation. Missing values are NaN. Forecast is nil on
// historical rows.
type Row struct {
	Date      time.Time
	Simulated float64
	Observed  float64
	Forecast  *Forecast
}

// Series is a date-ordered run output for one variable.
type Series struct {
	Variable Variable
	Rows     []Row
}

// Len returns the number of rows.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Empty reports whether s has no rows.
func (s *Series) Empty() bool { return s.Len() == 0 }

// First returns the date of the first row.
func (s *Series) First() time.Time {
	if s.Empty() {
		return time.Time{}
	}
	return s.Rows[0].Date
}

// Last returns the date of the last row.
func (s *Series) Last() time.Time {
	if s.Empty() {
		return time.Time{}
	}
	return s.Rows[len(s.Rows)-1].Date
}

// HasForecast reports whether any row carries forecast values.
func (s *Series) HasForecast() bool {
	if s == nil {
		return false
	}
	for _, r := range s.Rows {
		if r.Forecast != nil {
			return true
		}
	}
	return false
}

// Filter returns a new series with the rows keep accepts.
func (s *Series) Filter(keep func(Row) bool) *Series {
	out := &Series{Variable: s.Variable}
	for _, r := range s.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Columns returns the simulated and observed values.
func (s *Series) Columns() (sim, obs []float64) {
	sim = make([]float64, len(s.Rows))
	obs = make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		sim[i], obs[i] = r.Simulated, r.Observed
	}
	return sim, obs
}

// RunOutput gathers the series a run produced.
type RunOutput struct {
	Forecast bool
	Series   map[Variable]*Series
}

// Get returns the series for v, or nil when the run did not produce it.
func (o *RunOutput) Get(v Variable) *Series {
	if o == nil || o.Series == nil {
		return nil
	}
	return o.Series[v]
}
