// Package metrics computes goodness-of-fit scores between observed and
// simulated series.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrUnknownMetric is returned for a metric name not in the registry.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrNoData is returned when no pair of finite values remains.
	ErrNoData = errors.New("no paired observations")
)

// Func scores sim against obs. Both slices have equal length, at least one
// element and no NaN.
type Func func(obs, sim []float64) float64

// Evaluator is the goodness-of-fit collaborator of the runner.
type Evaluator interface {
	Evaluate(obs, sim []float64, metric string, tr Transform) (float64, error)
}

// Registry maps metric names to their implementations.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a registry holding the standard metrics.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{
		"NSE":      NSE,
		"KGE":      KGE,
		"KGEPRIME": KGEPrime,
		"RMSE":     RMSE,
		"MSE":      MSE,
		"MAE":      MAE,
		"MARE":     MARE,
		"BIAS":     Bias,
		"R":        Pearson,
	}}
}

// Register adds or replaces a metric.
func (r *Registry) Register(name string, f Func) {
	r.funcs[strings.ToUpper(name)] = f
}

// Names lists the registered metrics, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Evaluate transforms both series, drops pairs holding a NaN and applies
// the named metric.
func (r *Registry) Evaluate(obs, sim []float64, metric string, tr Transform) (float64, error) {
	f, ok := r.funcs[strings.ToUpper(metric)]
	if !ok {
		return math.NaN(), fmt.Errorf("%w %q (known: %s)", ErrUnknownMetric, metric, strings.Join(r.Names(), ", "))
	}
	if len(obs) != len(sim) {
		return math.NaN(), fmt.Errorf("length mismatch: %d observed, %d simulated", len(obs), len(sim))
	}
	o, s := Paired(obs, sim)
	if len(o) == 0 {
		return math.NaN(), ErrNoData
	}
	o, s, err := tr.Apply(o, s)
	if err != nil {
		return math.NaN(), err
	}
	o, s = Paired(o, s)
	if len(o) == 0 {
		return math.NaN(), ErrNoData
	}
	return f(o, s), nil
}

// Paired returns copies of obs and sim without the positions where either
// is NaN or infinite.
func Paired(obs, sim []float64) ([]float64, []float64) {
	o := make([]float64, 0, len(obs))
	s := make([]float64, 0, len(sim))
	for i := range obs {
		if finite(obs[i]) && finite(sim[i]) {
			o = append(o, obs[i])
			s = append(s, sim[i])
		}
	}
	return o, s
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// NSE is the Nash-Sutcliffe efficiency.
func NSE(obs, sim []float64) float64 {
	return stat.RSquaredFrom(sim, obs, nil)
}

// KGE is the Kling-Gupta efficiency (2009).
func KGE(obs, sim []float64) float64 {
	r := stat.Correlation(obs, sim, nil)
	alpha := stat.StdDev(sim, nil) / stat.StdDev(obs, nil)
	beta := stat.Mean(sim, nil) / stat.Mean(obs, nil)
	return 1 - math.Sqrt(sq(r-1)+sq(alpha-1)+sq(beta-1))
}

// KGEPrime is the modified Kling-Gupta efficiency (2012), using the ratio
// of coefficients of variation instead of standard deviations.
func KGEPrime(obs, sim []float64) float64 {
	r := stat.Correlation(obs, sim, nil)
	mo, ms := stat.Mean(obs, nil), stat.Mean(sim, nil)
	gamma := (stat.StdDev(sim, nil) / ms) / (stat.StdDev(obs, nil) / mo)
	beta := ms / mo
	return 1 - math.Sqrt(sq(r-1)+sq(gamma-1)+sq(beta-1))
}

// MSE is the mean squared error.
func MSE(obs, sim []float64) float64 {
	return sq(floats.Distance(obs, sim, 2)) / float64(len(obs))
}

// RMSE is the root mean squared error.
func RMSE(obs, sim []float64) float64 {
	return math.Sqrt(MSE(obs, sim))
}

// MAE is the mean absolute error.
func MAE(obs, sim []float64) float64 {
	return floats.Distance(obs, sim, 1) / float64(len(obs))
}

// MARE is the mean absolute relative error.
func MARE(obs, sim []float64) float64 {
	return floats.Distance(obs, sim, 1) / floats.Sum(obs)
}

// Bias is the relative volume error, (sum sim - sum obs) / sum obs.
func Bias(obs, sim []float64) float64 {
	so := floats.Sum(obs)
	return (floats.Sum(sim) - so) / so
}

// Pearson is the linear correlation coefficient.
func Pearson(obs, sim []float64) float64 {
	return stat.Correlation(obs, sim, nil)
}

func sq(x float64) float64 { return x * x }
