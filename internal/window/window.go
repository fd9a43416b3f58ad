// Package window selects the part of a run output a metric or plot should
// look at: after model spin-up, inside the calibration or evaluation
// period, or around the forecast horizon.
package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/nvandessel/hydrorun/internal/series"
)

// ErrNoEvaluationPeriod is returned when the evaluation period is requested
// but no tail years were kept aside.
var ErrNoEvaluationPeriod = errors.New("no data kept aside for an evaluation period")

// Period selects the calibration or evaluation part of a series.
type Period string

const (
	Calibration Period = "calib"
	Evaluation  Period = "eval"
)

// ParsePeriod accepts "calib" or "eval"; empty means calibration.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", Calibration:
		return Calibration, nil
	case Evaluation:
		return Evaluation, nil
	default:
		return "", fmt.Errorf("period %q is not valid, it must either be %q or %q", s, Calibration, Evaluation)
	}
}

// AddYears shifts t by n calendar years. A 29 February that does not exist
// in the target year becomes 28 February.
func AddYears(t time.Time, n int) time.Time {
	y := t.Year() + n
	d := t.Day()
	if t.Month() == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, t.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// emptyLike returns an empty series of the same variable as s, which may
// be nil.
func emptyLike(s *series.Series) *series.Series {
	if s == nil {
		return &series.Series{}
	}
	return &series.Series{Variable: s.Variable}
}

// TrimSpinup drops every row dated before the first date plus n years.
func TrimSpinup(s *series.Series, n int) *series.Series {
	if s.Empty() {
		return emptyLike(s)
	}
	cut := AddYears(s.First(), n)
	return s.Filter(func(r series.Row) bool { return !r.Date.Before(cut) })
}

// SwapDate returns the boundary between calibration and evaluation. A
// non-negative tail counts years back from the last date; a negative tail
// names the last calibration year (-2024 means up to 2024-12-31).
func SwapDate(s *series.Series, tail int) time.Time {
	if tail < 0 {
		return time.Date(-tail, time.December, 31, 0, 0, 0, 0, s.Last().Location())
	}
	return AddYears(s.Last(), -tail)
}

// SplitCalibEval keeps the rows on or before the swap date (calibration) or
// strictly after it (evaluation).
func SplitCalibEval(s *series.Series, tail int, p Period) (*series.Series, error) {
	switch p {
	case Calibration, Evaluation:
	default:
		return nil, fmt.Errorf("period %q is not valid, it must either be %q or %q", p, Calibration, Evaluation)
	}
	if p == Evaluation && tail == 0 {
		return nil, ErrNoEvaluationPeriod
	}
	if s.Empty() {
		return emptyLike(s), nil
	}
	swap := SwapDate(s, tail)
	if p == Calibration {
		return s.Filter(func(r series.Row) bool { return !r.Date.After(swap) }), nil
	}
	return s.Filter(func(r series.Row) bool { return r.Date.After(swap) }), nil
}

// SelectForecastWindow keeps the rows dated after the last date minus depth
// days. A depth of zero or less means span+1 days.
func SelectForecastWindow(s *series.Series, span, depth int) *series.Series {
	if s.Empty() {
		return emptyLike(s)
	}
	if depth <= 0 {
		depth = span + 1
	}
	cut := s.Last().AddDate(0, 0, -depth)
	return s.Filter(func(r series.Row) bool { return r.Date.After(cut) })
}

// Policy bundles the windowing parameters of one tree.
type Policy struct {
	SpinupYears int
	TailYears   int
	Forecast    bool
	Span        int
	// Depth is the forecast display depth in days; zero means Span+1.
	Depth int
}

// Apply runs the windowing chain of a run: spin-up trim then period split
// for a simulation, forecast window then period split for a forecast.
func (p Policy) Apply(s *series.Series, period Period) (*series.Series, error) {
	if p.Forecast {
		s = SelectForecastWindow(s, p.Span, p.Depth)
	} else {
		s = TrimSpinup(s, p.SpinupYears)
	}
	return SplitCalibEval(s, p.TailYears, period)
}
