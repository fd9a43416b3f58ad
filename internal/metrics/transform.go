package metrics

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// TransformKind names a transformation applied to both series before
// scoring.
type TransformKind string

const (
	NoTransform TransformKind = ""
	Log         TransformKind = "log"
	Inverse     TransformKind = "inv"
	Sqrt        TransformKind = "sqrt"
	Pow         TransformKind = "pow"
)

// Transform is a kind plus the exponent used by Pow.
type Transform struct {
	Kind     TransformKind
	Exponent float64
}

// String renders the transform as log, pow(0.5), ... and "" for none.
func (t Transform) String() string {
	if t.Kind == Pow {
		return fmt.Sprintf("pow(%g)", t.Exponent)
	}
	return string(t.Kind)
}

// ParseTransform validates a transform name. pow requires an exponent.
func ParseTransform(kind string, exponent float64) (Transform, error) {
	k := TransformKind(strings.ToLower(strings.TrimSpace(kind)))
	switch k {
	case NoTransform, Log, Inverse, Sqrt:
		return Transform{Kind: k}, nil
	case Pow:
		if exponent == 0 {
			return Transform{}, fmt.Errorf("transform pow requires a non-zero exponent")
		}
		return Transform{Kind: k, Exponent: exponent}, nil
	default:
		return Transform{}, fmt.Errorf("unknown transform %q (want log, inv, sqrt or pow)", kind)
	}
}

// Apply returns transformed copies of obs and sim. Log, inverse and
// negative powers add an epsilon of one hundredth of the observed mean so
// zero flows stay finite.
func (t Transform) Apply(obs, sim []float64) ([]float64, []float64, error) {
	if t.Kind == NoTransform {
		return obs, sim, nil
	}
	eps := stat.Mean(obs, nil) * 0.01
	var f func(float64) float64
	switch t.Kind {
	case Log:
		f = func(x float64) float64 { return math.Log(x + eps) }
	case Inverse:
		f = func(x float64) float64 { return 1 / (x + eps) }
	case Sqrt:
		f = math.Sqrt
	case Pow:
		e := t.Exponent
		if e < 0 {
			f = func(x float64) float64 { return math.Pow(x+eps, e) }
		} else {
			f = func(x float64) float64 { return math.Pow(x, e) }
		}
	default:
		return nil, nil, fmt.Errorf("unknown transform %q", t.Kind)
	}
	return mapValues(obs, f), mapValues(sim, f), nil
}

func mapValues(in []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
