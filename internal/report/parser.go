// Package report reads the engine's flat text outputs: the simulation
// report with its per-variable sections, and the tab-separated PRN data
// files the engine consumes.
package report

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/hydrorun/internal/series"
)

// ErrSectionNotFound is returned when a variable's start/end marker pair is
// incomplete in the report.
var ErrSectionNotFound = errors.New("section not found")

// ReportDateLayout is the engine's dd/mm/yyyy date format.
const ReportDateLayout = "02/01/2006"

// Options controls how sections are split into rows.
type Options struct {
	// Forecast selects the two-block layout of a forecast run.
	Forecast bool
	// Span is the forecast horizon in time steps.
	Span int
}

// Section locates one variable inside the report. Rows live on lines
// [Begin, End).
type Section struct {
	Variable series.Variable
	Begin    int
	End      int
}

type markers struct {
	end   *regexp.Regexp
	start *regexp.Regexp
}

var sectionMarkers = map[series.Variable]markers{
	series.Streamflow: {
		end:   regexp.MustCompile(`Fin :.*: Débit_Riv$`),
		start: regexp.MustCompile(`: Débit_Riv$`),
	},
	series.PiezoLevel: {
		end:   regexp.MustCompile(`Fin :.*: Niveau_Aquif$`),
		start: regexp.MustCompile(`: Niveau_Aquif$`),
	},
}

// SplitLines splits report text into lines without their terminators.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Locate finds the section of v. The last matching marker of each kind wins.
func Locate(lines []string, v series.Variable) (Section, error) {
	m, ok := sectionMarkers[v]
	if !ok {
		return Section{}, fmt.Errorf("unknown variable %q", v)
	}
	sec := Section{Variable: v, Begin: -1, End: -1}
	for i, l := range lines {
		switch {
		case m.end.MatchString(l):
			sec.End = i
		case m.start.MatchString(l):
			sec.Begin = i + 1
		}
	}
	if sec.Begin < 0 || sec.End < 0 {
		return Section{}, fmt.Errorf("%s: %w", v, ErrSectionNotFound)
	}
	return sec, nil
}

// Parse reads every section present in text. Variables without a complete
// marker pair are left out.
func Parse(text string, opts Options) (*series.RunOutput, error) {
	lines := SplitLines(text)
	out := &series.RunOutput{Forecast: opts.Forecast, Series: map[series.Variable]*series.Series{}}
	for _, v := range series.Variables {
		s, err := parseLines(lines, v, opts)
		if errors.Is(err, ErrSectionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Series[v] = s
	}
	return out, nil
}

// ParseVariable reads the section of v and fails with ErrSectionNotFound
// when it is missing.
func ParseVariable(text string, v series.Variable, opts Options) (*series.Series, error) {
	return parseLines(SplitLines(text), v, opts)
}

func parseLines(lines []string, v series.Variable, opts Options) (*series.Series, error) {
	sec, err := Locate(lines, v)
	if err != nil {
		return nil, err
	}
	out := &series.Series{Variable: v}
	if !opts.Forecast {
		if err := appendRows(out, lines, sec.Begin, sec.End, false); err != nil {
			return nil, err
		}
		return out, nil
	}

	span := opts.Span
	if span < 0 {
		return nil, fmt.Errorf("negative forecast span %d", span)
	}
	topEnd := max(sec.Begin, sec.End-span-2)
	bottomBegin := max(sec.Begin, sec.End-span-1)
	if err := appendRows(out, lines, sec.Begin, topEnd, false); err != nil {
		return nil, err
	}
	if err := appendRows(out, lines, bottomBegin, sec.End, true); err != nil {
		return nil, err
	}
	return out, nil
}

func appendRows(s *series.Series, lines []string, from, to int, forecast bool) error {
	for i := from; i < to && i < len(lines); i++ {
		row, ok, err := parseRow(lines[i], forecast)
		if err != nil {
			return fmt.Errorf("report line %d: %w", i+1, err)
		}
		if ok {
			s.Rows = append(s.Rows, row)
		}
	}
	return nil
}

// parseRow reads "date<TAB>sim<TAB>obs[<TAB>scenario...]". Blank lines are
// skipped; blank cells are NaN.
func parseRow(line string, forecast bool) (series.Row, bool, error) {
	if strings.TrimSpace(line) == "" {
		return series.Row{}, false, nil
	}
	cells := splitCells(line)
	d, err := time.Parse(ReportDateLayout, strings.TrimSpace(cells[0]))
	if err != nil {
		return series.Row{}, false, fmt.Errorf("bad date %q: %w", cells[0], err)
	}
	want := 3
	if forecast {
		want = 3 + len(series.Scenarios)
	}
	vals := make([]float64, want-1)
	for i := range vals {
		vals[i] = math.NaN()
		if i+1 >= len(cells) {
			continue
		}
		if vals[i], err = parseCell(cells[i+1]); err != nil {
			return series.Row{}, false, fmt.Errorf("column %d: %w", i+2, err)
		}
	}
	row := series.Row{Date: d, Simulated: vals[0], Observed: vals[1]}
	if forecast {
		for _, f := range vals[2:] {
			if !math.IsNaN(f) {
				fc := series.ForecastFrom(vals[2:])
				row.Forecast = &fc
				break
			}
		}
	}
	return row, true, nil
}

func splitCells(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Fields(line)
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
