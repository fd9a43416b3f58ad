package codec

import (
	"fmt"
	"sort"

	"github.com/nvandessel/hydrorun/internal/tree"
)

// SplitRule says how the legacy separator-based decoder locates a field.
type SplitRule uint8

const (
	splitWhole         SplitRule = iota // entire line
	splitBeforeEquals                   // text before the first '='
	splitAfterOpti                      // text after "Opti="
	splitAfterMax                       // text after "Max ="
	splitBeforeSpacedEq                 // text before the first " = "
)

// Field binds one leaf of the tree to a position in a fixed-layout file.
// Start and End are rune offsets within the line; End < 0 runs to the end of
// the line.
type Field struct {
	Line  int
	Path  tree.Path
	Start int
	End   int
	Split SplitRule
	// Anchored fields follow the first '=' of the line: offsets are laid
	// out for a value ending at column valueEnd and move with it when the
	// value is wider.
	Anchored bool
	// DataRef marks data file references written with a "data/" prefix.
	DataRef bool
}

// LineMap is the complete line to key path table of one file format.
type LineMap struct {
	Name   string
	Lines  int
	Fields []Field
}

// Validate checks the table is injective: every path is claimed once and
// no two fields on a line overlap.
func (m *LineMap) Validate() error {
	seen := make(map[string]int, len(m.Fields))
	byLine := map[int][]Field{}
	for _, f := range m.Fields {
		key := f.Path.String()
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%s: %s mapped on lines %d and %d", m.Name, key, prev+1, f.Line+1)
		}
		seen[key] = f.Line
		if f.Line < 0 || f.Line >= m.Lines {
			return fmt.Errorf("%s: %s mapped outside the file (line %d)", m.Name, key, f.Line+1)
		}
		byLine[f.Line] = append(byLine[f.Line], f)
	}
	for n, fs := range byLine {
		sort.Slice(fs, func(i, j int) bool { return fs[i].Start < fs[j].Start })
		for i := 1; i < len(fs); i++ {
			prev := fs[i-1]
			if prev.End < 0 || prev.End > fs[i].Start {
				return fmt.Errorf("%s: line %d: %s overlaps %s", m.Name, n+1, prev.Path, fs[i].Path)
			}
		}
	}
	return nil
}

// Lookup returns the field bound to path.
func (m *LineMap) Lookup(path tree.Path) (Field, bool) {
	for _, f := range m.Fields {
		if f.Path.Equal(path) {
			return f, true
		}
	}
	return Field{}, false
}

// SecondaryLineMap returns the table for the parameter file.
func SecondaryLineMap() *LineMap {
	m := &LineMap{Name: "secondary", Lines: len(secondaryLayout)}
	for i, l := range secondaryLayout {
		m.Fields = append(m.Fields, l.fields(i)...)
	}
	return m
}

// PrimaryLineMap returns the table for the project file.
func PrimaryLineMap() *LineMap {
	m := &LineMap{Name: "primary", Lines: primaryHeaderLines + len(primaryRefs) + 1}
	m.Fields = append(m.Fields, Field{Line: 0, Path: tree.Path{"description", "project"}, End: -1, Split: splitWhole})
	for i, r := range primaryRefs {
		m.Fields = append(m.Fields, Field{
			Line:    primaryHeaderLines + i,
			Path:    tree.MustParsePath(r.path),
			Start:   0,
			End:     primaryPathWidth,
			Split:   splitBeforeSpacedEq,
			DataRef: true,
		})
	}
	return m
}

// kindFor returns the scalar kind a decoded field carries.
func kindFor(p tree.Path) tree.Kind {
	if len(p) == 0 {
		return tree.KindString
	}
	switch p[0] {
	case "physical_parameters":
		if len(p) == 3 {
			switch p[2] {
			case "val", "min", "max":
				return tree.KindFloat
			case "opt":
				return tree.KindBool
			}
		}
	case "filter_settings", "forecast_settings":
		return tree.KindFloat
	}
	return tree.KindString
}
