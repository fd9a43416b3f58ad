// Package tree holds the hierarchical configuration of one catchment model:
// data file references, engine options, time settings and physical
// parameters, each leaf a typed scalar.
package tree

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tree is a fully populated configuration. Its key set is fixed at creation;
// updates may only change leaf values.
type Tree struct {
	root *Node
}

// Decoder turns engine report text back into a partial tree.
type Decoder interface {
	Decode(text string) (Partial, error)
}

// Create deep-merges the catchment and settings baselines (settings win on
// shared keys) and applies each override in order.
func Create(catchment, settings *Schema, overrides ...Partial) (*Tree, error) {
	if catchment == nil || settings == nil {
		return nil, errors.New("create tree: nil schema")
	}
	t := &Tree{root: merge(catchment.root, settings.root)}
	for _, o := range overrides {
		if err := t.Update(o); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Default builds a tree from the embedded baselines.
func Default(overrides ...Partial) (*Tree, error) {
	return Create(CatchmentSchema(), SettingsSchema(), overrides...)
}

// FromReport rebuilds a tree from engine report text: the default baselines
// overlaid with everything d recovers from text.
func FromReport(text string, d Decoder) (*Tree, error) {
	p, err := d.Decode(text)
	if err != nil {
		return nil, err
	}
	return Default(p)
}

type staged struct {
	node  *Node
	value Value
}

// Update applies p to t. Either every leaf in p is written or none is:
// unknown paths fail with *UnknownKeyError naming all of them, values that
// do not fit their leaf fail with *KindMismatchError.
func (t *Tree) Update(p Partial) error {
	var (
		writes   []staged
		unknown  []string
		mismatch []error
	)
	var rec func(n *Node, m Partial, prefix Path)
	rec = func(n *Node, m Partial, prefix Path) {
		for _, k := range sortedKeys(m) {
			v := m[k]
			path := prefix.Child(k)
			c := n.Child(k)
			if c == nil {
				unknown = append(unknown, path.String())
				continue
			}
			sub, isMap := asMap(v)
			switch {
			case c.leaf && isMap:
				mismatch = append(mismatch, &KindMismatchError{Path: path.String(), Want: c.value.kind.String(), Got: "mapping"})
			case !c.leaf && !isMap:
				mismatch = append(mismatch, &KindMismatchError{Path: path.String(), Want: "mapping", Got: fmt.Sprintf("%T", v)})
			case isMap:
				rec(c, sub, path)
			default:
				sv, ok := ValueOf(v)
				if !ok {
					mismatch = append(mismatch, &KindMismatchError{Path: path.String(), Want: c.value.kind.String(), Got: fmt.Sprintf("%T", v)})
					continue
				}
				cv, err := sv.Coerce(c.value.kind)
				if err != nil {
					mismatch = append(mismatch, &KindMismatchError{Path: path.String(), Want: c.value.kind.String(), Got: sv.kind.String(), Reason: err.Error()})
					continue
				}
				writes = append(writes, staged{node: c, value: cv})
			}
		}
	}
	rec(t.root, p, nil)

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownKeyError{Paths: unknown}
	}
	if len(mismatch) > 0 {
		return errors.Join(mismatch...)
	}
	for _, w := range writes {
		w.node.value = w.value
	}
	return nil
}

// Set writes a single leaf.
func (t *Tree) Set(path Path, v any) error {
	if len(path) == 0 {
		return errors.New("set: empty path")
	}
	p := Partial{}
	p.Set(path, v)
	return t.Update(p)
}

// Node returns the node at path.
func (t *Tree) Node(path Path) (*Node, error) {
	n := t.root
	for i, k := range path {
		n = n.Child(k)
		if n == nil {
			return nil, &UnknownKeyError{Paths: []string{path[:i+1].String()}}
		}
	}
	return n, nil
}

// Get returns the leaf value at path.
func (t *Tree) Get(path Path) (Value, error) {
	n, err := t.Node(path)
	if err != nil {
		return Value{}, err
	}
	if !n.leaf {
		return Value{}, &KindMismatchError{Path: path.String(), Want: "scalar", Got: "mapping"}
	}
	return n.value, nil
}

// Walk visits every leaf in schema order.
func (t *Tree) Walk(fn func(Path, Value) error) error {
	return walk(t.root, nil, fn)
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.clone()}
}

// Equal reports whether t and o have the same keys and leaf values.
func (t *Tree) Equal(o *Tree) bool {
	return nodesEqual(t.root, o.root)
}

func nodesEqual(a, b *Node) bool {
	if a.leaf != b.leaf || a.key != b.key {
		return false
	}
	if a.leaf {
		return a.value.Equal(b.value)
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for _, ac := range a.children {
		bc := b.Child(ac.key)
		if bc == nil || !nodesEqual(ac, bc) {
			return false
		}
	}
	return true
}

// Diff returns the leaf paths whose values differ between t and o.
func (t *Tree) Diff(o *Tree) []Path {
	var out []Path
	_ = t.Walk(func(p Path, v Value) error {
		ov, err := o.Get(p)
		if err != nil || !ov.Equal(v) {
			out = append(out, p)
		}
		return nil
	})
	return out
}

// Partial exports t as a nested override holding every leaf.
func (t *Tree) Partial() Partial {
	out := Partial{}
	_ = t.Walk(func(p Path, v Value) error {
		out.Set(p, v.Interface())
		return nil
	})
	return out
}

// MarshalYAML renders t in schema order.
func (t *Tree) MarshalYAML() (any, error) {
	return toYAML(t.root), nil
}

// Subtree renders the node at path as YAML-compatible output.
func (t *Tree) Subtree(path Path) (*yaml.Node, error) {
	n, err := t.Node(path)
	if err != nil {
		return nil, err
	}
	return toYAML(n), nil
}
