package tree

import (
	"embed"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Schema is a baseline tree: it fixes the set of keys, their order and the
// kind of every leaf.
type Schema struct {
	root *Node
}

// LoadSchema parses a YAML mapping into a Schema. Scalar kinds follow the
// YAML tags, so 1 is an int, 1.0 a float, "1" a string and true a bool.
func LoadSchema(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parsing schema: empty document")
	}
	root, err := fromYAML("", doc.Content[0], nil)
	if err != nil {
		return nil, err
	}
	if root.leaf {
		return nil, fmt.Errorf("parsing schema: top level must be a mapping")
	}
	return &Schema{root: root}, nil
}

// CatchmentSchema returns the embedded catchment baseline (description and
// data references).
func CatchmentSchema() *Schema { return mustEmbedded("defaults/catchment.yaml") }

// SettingsSchema returns the embedded settings baseline (options, time
// settings and physical parameters).
func SettingsSchema() *Schema { return mustEmbedded("defaults/settings.yaml") }

func mustEmbedded(name string) *Schema {
	data, err := defaultsFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("reading embedded %s: %v", name, err))
	}
	s, err := LoadSchema(data)
	if err != nil {
		panic(fmt.Sprintf("loading embedded %s: %v", name, err))
	}
	return s
}

func fromYAML(key string, n *yaml.Node, path Path) (*Node, error) {
	switch n.Kind {
	case yaml.MappingNode:
		b := newBranch(key)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			c, err := fromYAML(k, n.Content[i+1], path.Child(k))
			if err != nil {
				return nil, err
			}
			b.put(c)
		}
		return b, nil
	case yaml.ScalarNode:
		v, err := scalarFromYAML(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return newLeaf(key, v), nil
	case yaml.AliasNode:
		return fromYAML(key, n.Alias, path)
	default:
		return nil, fmt.Errorf("%s: sequences are not supported", path)
	}
}

func scalarFromYAML(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!null":
		return String(""), nil
	default:
		return String(n.Value), nil
	}
}

// toYAML renders n as a yaml.Node, keeping the kind of every leaf visible
// in its plain form.
func toYAML(n *Node) *yaml.Node {
	if n.leaf {
		v := n.value
		out := &yaml.Node{Kind: yaml.ScalarNode}
		switch v.kind {
		case KindInt:
			out.Tag, out.Value = "!!int", v.Text()
		case KindFloat:
			out.Tag, out.Value = "!!float", formatFloat(v.f)
			switch {
			case math.IsNaN(v.f):
				out.Value = ".nan"
			case math.IsInf(v.f, 1):
				out.Value = ".inf"
			case math.IsInf(v.f, -1):
				out.Value = "-.inf"
			}
		case KindBool:
			out.Tag, out.Value = "!!bool", strconv.FormatBool(v.b)
		default:
			out.Tag, out.Value = "!!str", v.s
		}
		return out
	}
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range n.children {
		out.Content = append(out.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.key},
			toYAML(c))
	}
	return out
}
