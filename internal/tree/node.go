package tree

// Node is either a leaf holding a scalar or an ordered branch of named children.
type Node struct {
	key      string
	leaf     bool
	value    Value
	children []*Node
	index    map[string]int
}

func newBranch(key string) *Node {
	return &Node{key: key, index: map[string]int{}}
}

func newLeaf(key string, v Value) *Node {
	return &Node{key: key, leaf: true, value: v}
}

// Key is the node's name within its parent.
func (n *Node) Key() string { return n.key }

// IsLeaf reports whether n holds a scalar.
func (n *Node) IsLeaf() bool { return n.leaf }

// Value returns the scalar held by a leaf.
func (n *Node) Value() Value { return n.value }

// Children returns the branch's children in schema order.
func (n *Node) Children() []*Node { return n.children }

// Child returns the named child, or nil.
func (n *Node) Child(key string) *Node {
	if n.leaf {
		return nil
	}
	i, ok := n.index[key]
	if !ok {
		return nil
	}
	return n.children[i]
}

func (n *Node) put(c *Node) {
	if i, ok := n.index[c.key]; ok {
		n.children[i] = c
		return
	}
	n.index[c.key] = len(n.children)
	n.children = append(n.children, c)
}

func (n *Node) clone() *Node {
	if n.leaf {
		return newLeaf(n.key, n.value)
	}
	c := newBranch(n.key)
	for _, ch := range n.children {
		c.put(ch.clone())
	}
	return c
}

// merge overlays o onto n. Leaves from o win; branches merge recursively;
// a shape conflict is resolved in favour of o.
func merge(n, o *Node) *Node {
	if n.leaf || o.leaf {
		return o.clone()
	}
	out := n.clone()
	for _, oc := range o.children {
		if nc := out.Child(oc.key); nc != nil {
			out.put(merge(nc, oc))
		} else {
			out.put(oc.clone())
		}
	}
	return out
}

func walk(n *Node, prefix Path, fn func(Path, Value) error) error {
	for _, c := range n.children {
		p := prefix.Child(c.key)
		if c.leaf {
			if err := fn(p, c.value); err != nil {
				return err
			}
			continue
		}
		if err := walk(c, p, fn); err != nil {
			return err
		}
	}
	return nil
}
