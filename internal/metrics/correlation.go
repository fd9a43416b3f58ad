package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/nvandessel/hydrorun/internal/report"
)

// Correlation methods.
const (
	PearsonMethod  = "pearson"
	SpearmanMethod = "spearman"
)

// Matrix is a symmetric correlation matrix over named input series.
type Matrix struct {
	Names  []string
	Values [][]float64
}

// At returns the coefficient between series a and b.
func (m *Matrix) At(a, b string) (float64, bool) {
	i, j := indexOf(m.Names, a), indexOf(m.Names, b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.Values[i][j], true
}

func indexOf(names []string, s string) int {
	for i, n := range names {
		if n == s {
			return i
		}
	}
	return -1
}

// CorrelationMatrix correlates every pair of input series over the dates
// where both hold a value. Pairs without common data are NaN; the diagonal
// is 1.
func CorrelationMatrix(method string, data ...*report.Data) (*Matrix, error) {
	var corr func(a, b []float64) float64
	switch method {
	case PearsonMethod:
		corr = func(a, b []float64) float64 { return stat.Correlation(a, b, nil) }
	case SpearmanMethod:
		corr = spearman
	default:
		return nil, fmt.Errorf("unsupported correlation type %q", method)
	}

	m := &Matrix{Names: make([]string, len(data)), Values: make([][]float64, len(data))}
	for i, d := range data {
		m.Names[i] = d.Measure.Label
		m.Values[i] = make([]float64, len(data))
		for j := range m.Values[i] {
			m.Values[i][j] = math.NaN()
		}
		m.Values[i][i] = 1
	}
	for i := 0; i < len(data); i++ {
		for j := i + 1; j < len(data); j++ {
			a, b := align(data[i], data[j])
			if len(a) < 2 {
				continue
			}
			c := corr(a, b)
			m.Values[i][j], m.Values[j][i] = c, c
		}
	}
	return m, nil
}

func align(a, b *report.Data) ([]float64, []float64) {
	byDate := make(map[time.Time]float64, len(b.Points))
	for _, p := range b.Points {
		if !math.IsNaN(p.Value) {
			byDate[p.Date] = p.Value
		}
	}
	var xa, xb []float64
	for _, p := range a.Points {
		if math.IsNaN(p.Value) {
			continue
		}
		if v, ok := byDate[p.Date]; ok {
			xa = append(xa, p.Value)
			xb = append(xb, v)
		}
	}
	return xa, xb
}

// spearman correlates the ordinal ranks of a and b.
func spearman(a, b []float64) float64 {
	return stat.Correlation(ranks(a), ranks(b), nil)
}

func ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return x[idx[i]] < x[idx[j]] })
	out := make([]float64, len(x))
	for r, i := range idx {
		out[i] = float64(r)
	}
	return out
}
