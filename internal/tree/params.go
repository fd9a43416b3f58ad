package tree

import "fmt"

// PhysicalParameter is one calibratable model parameter.
type PhysicalParameter struct {
	Name     string
	Value    float64
	Optimise bool
	Min      float64
	Max      float64
}

var parametersRoot = Path{"physical_parameters"}

// Parameters returns every physical parameter in schema order.
func (t *Tree) Parameters() ([]PhysicalParameter, error) {
	n, err := t.Node(parametersRoot)
	if err != nil {
		return nil, err
	}
	out := make([]PhysicalParameter, 0, len(n.children))
	for _, c := range n.children {
		p, err := t.Parameter(c.key)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Parameter returns the named physical parameter.
func (t *Tree) Parameter(name string) (PhysicalParameter, error) {
	base := parametersRoot.Child(name)
	p := PhysicalParameter{Name: name}
	var err error
	if p.Value, err = t.Float(base.Child("val")); err != nil {
		return p, err
	}
	if p.Optimise, err = t.Bool(base.Child("opt")); err != nil {
		return p, err
	}
	if p.Min, err = t.Float(base.Child("min")); err != nil {
		return p, err
	}
	if p.Max, err = t.Float(base.Child("max")); err != nil {
		return p, err
	}
	return p, nil
}

// Float returns the numeric leaf at path.
func (t *Tree) Float(path Path) (float64, error) {
	v, err := t.Get(path)
	if err != nil {
		return 0, err
	}
	switch v.kind {
	case KindFloat, KindInt:
		return v.AsFloat(), nil
	}
	c, err := v.Coerce(KindFloat)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return c.f, nil
}

// Int returns the integer leaf at path.
func (t *Tree) Int(path Path) (int64, error) {
	v, err := t.Get(path)
	if err != nil {
		return 0, err
	}
	c, err := v.Coerce(KindInt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return c.i, nil
}

// Bool returns the boolean leaf at path.
func (t *Tree) Bool(path Path) (bool, error) {
	v, err := t.Get(path)
	if err != nil {
		return false, err
	}
	c, err := v.Coerce(KindBool)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return c.b, nil
}

// Str returns the leaf at path rendered as text.
func (t *Tree) Str(path Path) (string, error) {
	v, err := t.Get(path)
	if err != nil {
		return "", err
	}
	return v.Text(), nil
}

var (
	forecastRunPath  = Path{"general_settings", "forecast_run"}
	forecastSpanPath = Path{"basin_settings", "time", "forecast", "span"}
	tailYearsPath    = Path{"basin_settings", "model", "calibration", "n_tail_years_to_trim"}
	spinupYearsPath  = Path{"basin_settings", "model", "initialisation", "spinup", "n_years"}
)

// ForecastRun reports whether the engine is configured to produce forecast
// scenarios. Any non-zero flag counts.
func (t *Tree) ForecastRun() (bool, error) {
	v, err := t.Get(forecastRunPath)
	if err != nil {
		return false, err
	}
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindString:
		s := v.s
		return s != "" && s != "0", nil
	default:
		return v.AsFloat() != 0, nil
	}
}

// ForecastSpan returns the forecast horizon in days.
func (t *Tree) ForecastSpan() (int, error) {
	n, err := t.Int(forecastSpanPath)
	return int(n), err
}

// TailYears returns the calibration tail length used to split calibration
// from evaluation.
func (t *Tree) TailYears() (int, error) {
	n, err := t.Int(tailYearsPath)
	return int(n), err
}

// SpinupYears returns the number of leading years discarded as model warm-up.
func (t *Tree) SpinupYears() (int, error) {
	n, err := t.Int(spinupYearsPath)
	return int(n), err
}
