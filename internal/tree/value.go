package tree

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the scalar variant held by a leaf.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a tagged scalar: exactly one of int, float, string or bool.
// The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating-point Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a scalar.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsInt returns the integer held by v, or 0 for other kinds.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float held by v. Integers are widened.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// AsString returns the string held by v, or "" for other kinds.
func (v Value) AsString() string { return v.s }

// AsBool returns the boolean held by v, or false for other kinds.
func (v Value) AsBool() bool { return v.b }

// Interface returns v as a plain Go scalar (int64, float64, string or bool).
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Text renders v the way the engine expects scalars in its settings columns:
// booleans as 0/1, floats in their shortest form with at least one decimal.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.Text()
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// ValueOf converts a Go scalar into a Value. It reports false for
// anything that is not an integer, float, string, bool or Value.
func ValueOf(x any) (Value, bool) {
	switch t := x.(type) {
	case Value:
		return t, t.IsValid()
	case int:
		return Int(int64(t)), true
	case int8:
		return Int(int64(t)), true
	case int16:
		return Int(int64(t)), true
	case int32:
		return Int(int64(t)), true
	case int64:
		return Int(t), true
	case uint:
		return Int(int64(t)), true
	case uint8:
		return Int(int64(t)), true
	case uint16:
		return Int(int64(t)), true
	case uint32:
		return Int(int64(t)), true
	case uint64:
		return Int(int64(t)), true
	case float32:
		return Float(float64(t)), true
	case float64:
		return Float(t), true
	case string:
		return String(t), true
	case bool:
		return Bool(t), true
	default:
		return Value{}, false
	}
}

// Coerce converts v into kind k when the conversion loses nothing:
// integral floats become ints, 0/1 become booleans, numeric text is parsed.
func (v Value) Coerce(k Kind) (Value, error) {
	if v.kind == k {
		return v, nil
	}
	switch k {
	case KindInt:
		switch v.kind {
		case KindFloat:
			if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
				return Int(int64(v.f)), nil
			}
		case KindBool:
			if v.b {
				return Int(1), nil
			}
			return Int(0), nil
		case KindString:
			s := strings.TrimSpace(v.s)
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return Int(n), nil
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
				return Int(int64(f)), nil
			}
		}
	case KindFloat:
		switch v.kind {
		case KindInt:
			return Float(float64(v.i)), nil
		case KindBool:
			if v.b {
				return Float(1), nil
			}
			return Float(0), nil
		case KindString:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
				return Float(f), nil
			}
		}
	case KindBool:
		switch v.kind {
		case KindInt:
			if v.i == 0 || v.i == 1 {
				return Bool(v.i == 1), nil
			}
		case KindFloat:
			if v.f == 0 || v.f == 1 {
				return Bool(v.f == 1), nil
			}
		case KindString:
			if b, err := strconv.ParseBool(strings.TrimSpace(v.s)); err == nil {
				return Bool(b), nil
			}
		}
	case KindString:
		if v.IsValid() {
			return String(v.Text()), nil
		}
	}
	return Value{}, fmt.Errorf("cannot convert %s %s to %s", v.kind, v, k)
}

// formatFloat renders f in its shortest round-trip form, keeping a decimal
// point so integral floats stay distinguishable from integers.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
