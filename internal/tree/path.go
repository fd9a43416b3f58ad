package tree

import (
	"fmt"
	"strings"
)

// Path addresses a node in the tree as a sequence of keys.
type Path []string

// ParsePath splits a dotted key path such as "physical_parameters.basin_area.val".
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty key path")
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("key path %q has an empty segment", s)
		}
	}
	return Path(parts), nil
}

// MustParsePath is ParsePath for paths known at compile time.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String joins the keys with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Child returns a new path extended by keys. p is never modified.
func (p Path) Child(keys ...string) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

// Equal reports whether both paths name the same node.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}
