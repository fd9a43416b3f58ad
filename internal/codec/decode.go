package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nvandessel/hydrorun/internal/tree"
)

// ErrParse matches any *ParseError via errors.Is.
var ErrParse = errors.New("codec parse error")

// ParseError reports a malformed numeric or boolean field.
type ParseError struct {
	Line  int // 1-based
	Path  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d (%s): cannot parse %q: %v", e.Line, e.Path, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Extraction selects how a decoder locates fields within a line.
type Extraction uint8

const (
	// FixedOffsets slices each field at the rune range recorded in the
	// line map, measured from the '=' that ends the leading value.
	FixedOffsets Extraction = iota
	// Separators splits on the '=', "Opti=" and "Max =" markers instead,
	// which tolerates values wider than their column.
	Separators
)

// ParseExtraction maps "offsets" or "separators" to an Extraction.
func ParseExtraction(s string) (Extraction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "offsets", "fixed":
		return FixedOffsets, nil
	case "separators", "legacy":
		return Separators, nil
	default:
		return FixedOffsets, fmt.Errorf("unknown extraction %q (want offsets or separators)", s)
	}
}

// Decoder reads a fixed-layout file back into a partial tree.
type Decoder struct {
	Map        *LineMap
	Extraction Extraction
	// Strict fails on fields whose line is missing. By default a short
	// file simply yields fewer leaves.
	Strict bool
}

// NewSecondaryDecoder returns a decoder for the parameter file.
func NewSecondaryDecoder(e Extraction) *Decoder {
	return &Decoder{Map: SecondaryLineMap(), Extraction: e}
}

// NewPrimaryDecoder returns a decoder for the project file.
func NewPrimaryDecoder(e Extraction) *Decoder {
	return &Decoder{Map: PrimaryLineMap(), Extraction: e}
}

// Decode implements tree.Decoder.
func (d *Decoder) Decode(text string) (tree.Partial, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := tree.Partial{}
	for _, f := range d.Map.Fields {
		if f.Line >= len(lines) {
			if d.Strict {
				return nil, &ParseError{Line: f.Line + 1, Path: f.Path.String(), Err: errors.New("line missing")}
			}
			continue
		}
		raw, ok := d.extract(lines[f.Line], f)
		if !ok {
			if d.Strict {
				return nil, &ParseError{Line: f.Line + 1, Path: f.Path.String(), Field: lines[f.Line], Err: errors.New("field missing")}
			}
			continue
		}
		if f.DataRef {
			raw = strings.TrimPrefix(raw, dataDir)
		}
		v, err := convert(raw, kindFor(f.Path))
		if err != nil {
			return nil, &ParseError{Line: f.Line + 1, Path: f.Path.String(), Field: raw, Err: err}
		}
		out.Set(f.Path, v)
	}
	return out, nil
}

func (d *Decoder) extract(line string, f Field) (string, bool) {
	if d.Extraction == FixedOffsets {
		start, end, ok := anchor(line, f)
		if !ok {
			return "", false
		}
		s, ok := sliceRunes(line, start, end)
		return trimField(s), ok
	}
	switch f.Split {
	case splitBeforeEquals:
		i := strings.Index(line, "=")
		if i < 0 {
			return "", false
		}
		return trimField(line[:i]), true
	case splitBeforeSpacedEq:
		i := strings.Index(line, " = ")
		if i < 0 {
			return "", false
		}
		return trimField(line[:i]), true
	case splitAfterOpti:
		return after(line, "Opti=")
	case splitAfterMax:
		return after(line, "Max =")
	default:
		return trimField(line), true
	}
}

func after(line, marker string) (string, bool) {
	i := strings.LastIndex(line, marker)
	if i < 0 {
		return "", false
	}
	return trimField(line[i+len(marker):]), true
}

func convert(raw string, k tree.Kind) (any, error) {
	switch k {
	case tree.KindFloat:
		return strconv.ParseFloat(raw, 64)
	case tree.KindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// LoadProject rebuilds a tree from a project file and its parameter file.
// Leaves present in both come from the parameter file.
func LoadProject(primary, secondary string, e Extraction) (*tree.Tree, error) {
	p, err := NewPrimaryDecoder(e).Decode(primary)
	if err != nil {
		return nil, fmt.Errorf("decoding project file: %w", err)
	}
	s, err := NewSecondaryDecoder(e).Decode(secondary)
	if err != nil {
		return nil, fmt.Errorf("decoding parameter file: %w", err)
	}
	p.Merge(s)
	return tree.Default(p)
}
