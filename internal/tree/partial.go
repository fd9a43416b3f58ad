package tree

import (
	"fmt"
	"sort"
)

// Partial is a nested override: keys map either to another Partial (or
// map[string]any) or to a scalar.
type Partial map[string]any

// Set stores v at path, creating intermediate mappings as needed.
func (p Partial) Set(path Path, v any) {
	cur := p
	for _, k := range path[:len(path)-1] {
		next, ok := asMap(cur[k])
		if !ok {
			next = Partial{}
			cur[k] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = v
}

// Merge overlays o onto p in place; o wins on conflicts.
func (p Partial) Merge(o Partial) {
	for k, ov := range o {
		om, oIsMap := asMap(ov)
		pm, pIsMap := asMap(p[k])
		if oIsMap && pIsMap {
			pm.Merge(om)
			p[k] = pm
			continue
		}
		p[k] = ov
	}
}

// Leaves returns every scalar path in p, sorted.
func (p Partial) Leaves() []Path {
	var out []Path
	var rec func(Partial, Path)
	rec = func(m Partial, prefix Path) {
		for k, v := range m {
			if sub, ok := asMap(v); ok {
				rec(sub, prefix.Child(k))
				continue
			}
			out = append(out, prefix.Child(k))
		}
	}
	rec(p, nil)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func asMap(v any) (Partial, bool) {
	switch m := v.(type) {
	case Partial:
		return m, true
	case map[string]any:
		return Partial(m), true
	case map[any]any:
		out := make(Partial, len(m))
		for k, vv := range m {
			out[fmt.Sprint(k)] = vv
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedKeys(p Partial) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
