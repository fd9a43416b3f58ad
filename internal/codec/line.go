package codec

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nvandessel/hydrorun/internal/tree"
)

type lineKind uint8

const (
	lineFreeText lineKind = iota // whole line is a string leaf
	lineBanner                   // fixed text, not mapped
	lineSetting                  // " %9s=label"
	lineNumber                   // " %9.5f=label"
	lineParam                    // " %9.5f=label Opti= %1d"
	lineBounds                   // " %9.5f=Min : label Max =%10.5f"
)

// valueEnd is the column of the '=' following a "%9.5f" or "%9s" value.
const valueEnd = 10

// line is one entry of a fixed-layout file.
type line struct {
	kind  lineKind
	path  string // free text, setting, number
	name  string // physical parameter name for param and bounds
	label string
}

func freeText(path string) line { return line{kind: lineFreeText, path: path} }

func banner(s string) line { return line{kind: lineBanner, label: s} }

func setting(path, label string) line { return line{kind: lineSetting, path: path, label: label} }

func number(path, label string) line { return line{kind: lineNumber, path: path, label: label} }

func param(name, label string) line { return line{kind: lineParam, name: name, label: label} }

func bounds(name, label string) line { return line{kind: lineBounds, name: name, label: label} }

func paramPath(name, field string) tree.Path {
	return tree.Path{"physical_parameters", name, field}
}

// render produces the text of l from t.
func (l line) render(t *tree.Tree) (string, error) {
	switch l.kind {
	case lineBanner:
		return l.label, nil
	case lineFreeText:
		return t.Str(tree.MustParsePath(l.path))
	case lineSetting:
		v, err := t.Get(tree.MustParsePath(l.path))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(" %9s=%s", v.Text(), l.label), nil
	case lineNumber:
		f, err := t.Float(tree.MustParsePath(l.path))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(" %9.5f=%s", f, l.label), nil
	case lineParam:
		p, err := t.Parameter(l.name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(" %9.5f=%s Opti= %1d", p.Value, l.label, flag(p.Optimise)), nil
	case lineBounds:
		p, err := t.Parameter(l.name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(" %9.5f=Min : %s Max =%10.5f", p.Min, l.label, p.Max), nil
	default:
		return "", fmt.Errorf("unknown line kind %d", l.kind)
	}
}

// fields lists the leaves carried by l at line index n.
func (l line) fields(n int) []Field {
	width := utf8.RuneCountInString(l.label)
	switch l.kind {
	case lineFreeText:
		return []Field{{Line: n, Path: tree.MustParsePath(l.path), Start: 0, End: -1, Split: splitWhole}}
	case lineSetting, lineNumber:
		return []Field{{Line: n, Path: tree.MustParsePath(l.path), Start: 1, End: valueEnd, Split: splitBeforeEquals, Anchored: true}}
	case lineParam:
		return []Field{
			{Line: n, Path: paramPath(l.name, "val"), Start: 1, End: valueEnd, Split: splitBeforeEquals, Anchored: true},
			{Line: n, Path: paramPath(l.name, "opt"), Start: valueEnd + 8 + width, End: -1, Split: splitAfterOpti, Anchored: true},
		}
	case lineBounds:
		return []Field{
			{Line: n, Path: paramPath(l.name, "min"), Start: 1, End: valueEnd, Split: splitBeforeEquals, Anchored: true},
			{Line: n, Path: paramPath(l.name, "max"), Start: valueEnd + 13 + width, End: -1, Split: splitAfterMax, Anchored: true},
		}
	default:
		return nil
	}
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sliceRunes returns runes [start, end) of s, clamped to its length. A
// negative end means the rest of the line.
func sliceRunes(s string, start, end int) (string, bool) {
	r := []rune(s)
	if start >= len(r) {
		return "", false
	}
	if end < 0 || end > len(r) {
		end = len(r)
	}
	return string(r[start:end]), true
}

// anchor shifts the offsets of f by the distance between the first '=' of
// s and valueEnd. The value field keeps its start and ends at the '='.
func anchor(s string, f Field) (start, end int, ok bool) {
	start, end = f.Start, f.End
	if !f.Anchored {
		return start, end, true
	}
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return 0, 0, false
	}
	shift := utf8.RuneCountInString(s[:eq]) - valueEnd
	if start >= valueEnd {
		start += shift
	}
	if end >= 0 {
		end += shift
	}
	return start, end, true
}

func trimField(s string) string { return strings.TrimSpace(s) }
