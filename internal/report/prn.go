package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Measure describes one kind of PRN data file: its column label and the
// value the engine reads as missing.
type Measure struct {
	Label   string
	Missing float64
}

// Known measures. Rainfall and PET have no missing-value sentinel.
var (
	Rainfall   = Measure{Label: "Pluie", Missing: math.NaN()}
	PET        = Measure{Label: "ETP", Missing: math.NaN()}
	Discharge  = Measure{Label: "Debit", Missing: -2}
	PiezoLevel = Measure{Label: "Niveau", Missing: 9999}
)

// MeasureFor returns the known measure with the given column label, or a
// measure without sentinel.
func MeasureFor(label string) Measure {
	for _, m := range []Measure{Rainfall, PET, Discharge, PiezoLevel} {
		if m.Label == label {
			return m
		}
	}
	return Measure{Label: label, Missing: math.NaN()}
}

// FileName is the conventional data file name of m: my-debit.prn, ...
func (m Measure) FileName() string {
	return "my-" + strings.ReplaceAll(strings.ToLower(m.Label), " ", "-") + ".prn"
}

// Point is one dated value. Missing values are NaN.
type Point struct {
	Date  time.Time
	Value float64
}

// Data is a single-measure input series.
type Data struct {
	Measure Measure
	Points  []Point
}

// Values returns the values in date order.
func (d *Data) Values() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Value
	}
	return out
}

// ReadPRN reads a tab-separated "Date<TAB>Label" file. Values equal to the
// measure's sentinel become NaN. The label column is taken from the header.
func ReadPRN(r io.Reader) (*Data, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty PRN file")
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	if len(header) < 2 || strings.TrimSpace(header[0]) != "Date" {
		return nil, fmt.Errorf("unexpected PRN header %q", sc.Text())
	}
	d := &Data{Measure: MeasureFor(strings.TrimSpace(header[1]))}
	for n := 2; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		date, err := time.Parse(ReportDateLayout, strings.TrimSpace(cells[0]))
		if err != nil {
			return nil, fmt.Errorf("PRN line %d: %w", n, err)
		}
		v := math.NaN()
		if len(cells) > 1 && strings.TrimSpace(cells[1]) != "" {
			if v, err = strconv.ParseFloat(strings.TrimSpace(cells[1]), 64); err != nil {
				return nil, fmt.Errorf("PRN line %d: %w", n, err)
			}
			if v == d.Measure.Missing {
				v = math.NaN()
			}
		}
		d.Points = append(d.Points, Point{Date: date, Value: v})
	}
	return d, sc.Err()
}

// WritePRN writes d in the engine's input format. Missing values are written
// as the measure's sentinel, or left empty when it has none.
func WritePRN(w io.Writer, d *Data) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Date\t%s\n", d.Measure.Label)
	for _, p := range d.Points {
		v := p.Value
		cell := ""
		switch {
		case !math.IsNaN(v):
			cell = strconv.FormatFloat(v, 'f', -1, 64)
		case !math.IsNaN(d.Measure.Missing):
			cell = strconv.FormatFloat(d.Measure.Missing, 'f', -1, 64)
		}
		fmt.Fprintf(bw, "%s\t%s\n", p.Date.Format(ReportDateLayout), cell)
	}
	return bw.Flush()
}
