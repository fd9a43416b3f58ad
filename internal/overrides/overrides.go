// Package overrides reads partial configuration trees from YAML and HCL
// files and from key=value assignments.
package overrides

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/hydrorun/internal/tree"
)

// Load reads an override file, choosing the format from its extension.
func Load(path string) (tree.Partial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading override file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".hcl":
		return FromHCL(data, path)
	default:
		return nil, fmt.Errorf("unsupported override file %s (want .yaml, .yml or .hcl)", path)
	}
}

// LoadAll reads every file in order and merges them; later files win.
func LoadAll(paths ...string) (tree.Partial, error) {
	out := tree.Partial{}
	for _, p := range paths {
		part, err := Load(p)
		if err != nil {
			return nil, err
		}
		out.Merge(part)
	}
	return out, nil
}

// FromYAML decodes a YAML mapping into a Partial.
func FromYAML(data []byte) (tree.Partial, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML overrides: %w", err)
	}
	out := tree.Partial{}
	for k, v := range raw {
		out[k] = v
	}
	return out, nil
}

// ParseAssignments turns "a.b.c=value" strings into a Partial. Values are
// read as YAML scalars, so 3 is an integer, 3.5 a float and true a boolean.
func ParseAssignments(assignments []string) (tree.Partial, error) {
	out := tree.Partial{}
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", a)
		}
		path, err := tree.ParsePath(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", a, err)
		}
		v, err := scalar(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", a, err)
		}
		out.Set(path, v)
	}
	return out, nil
}

func scalar(raw string) (any, error) {
	if raw == "" {
		return "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return nil, fmt.Errorf("value must be a scalar")
	case nil:
		return raw, nil
	}
	return v, nil
}
