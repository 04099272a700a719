package query

import (
	"sort"
	"strings"
)

// FieldRequestNode is one requested field and the fields requested beneath
// it. Children keep the order in which they first appeared; requesting the
// same field twice merges both selections. Nodes are not modified once
// Extract returns them.
type FieldRequestNode struct {
	name     string
	object   bool
	children map[string]*FieldRequestNode
	order    []string
}

func newNode(name string) *FieldRequestNode {
	return &FieldRequestNode{name: name, children: map[string]*FieldRequestNode{}}
}

func (n *FieldRequestNode) Name() string { return n.name }

// HasSelection reports whether the field was written with a { } block.
func (n *FieldRequestNode) HasSelection() bool { return n.object }

// Child returns the requested sub-field called name.
func (n *FieldRequestNode) Child(name string) (*FieldRequestNode, bool) {
	c, ok := n.children[name]
	return c, ok
}

// Children returns the requested sub-fields in request order.
func (n *FieldRequestNode) Children() []*FieldRequestNode {
	out := make([]*FieldRequestNode, len(n.order))
	for i, name := range n.order {
		out[i] = n.children[name]
	}
	return out
}

// Names returns the names of the requested sub-fields in request order.
func (n *FieldRequestNode) Names() []string {
	return append([]string(nil), n.order...)
}

func (n *FieldRequestNode) Len() int { return len(n.order) }

// Lookup resolves a dotted path such as "delivery.address.city" below n.
func (n *FieldRequestNode) Lookup(path string) (*FieldRequestNode, bool) {
	cur := n
	for _, part := range strings.Split(path, ".") {
		next, ok := cur.children[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Has reports whether the dotted path was requested below n.
func (n *FieldRequestNode) Has(path string) bool {
	_, ok := n.Lookup(path)
	return ok
}

// Paths lists the dotted path of every node below n, sorted.
func (n *FieldRequestNode) Paths() []string {
	var out []string
	var walk func(prefix string, node *FieldRequestNode)
	walk = func(prefix string, node *FieldRequestNode) {
		for _, name := range node.order {
			p := name
			if prefix != "" {
				p = prefix + "." + name
			}
			out = append(out, p)
			walk(p, node.children[name])
		}
	}
	walk("", n)
	sort.Strings(out)
	return out
}

// Equal reports whether n and o request the same set of fields at every
// level. Names of the nodes themselves and request order are ignored.
func (n *FieldRequestNode) Equal(o *FieldRequestNode) bool {
	if n == nil || o == nil {
		return n == o
	}
	if len(n.children) != len(o.children) {
		return false
	}
	for name, c := range n.children {
		oc, ok := o.children[name]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}

// String renders the tree as a compact selection set, e.g. "{id delivery{type}}".
func (n *FieldRequestNode) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *FieldRequestNode) write(b *strings.Builder) {
	b.WriteByte('{')
	for i, name := range n.order {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		if c := n.children[name]; c.object || len(c.order) > 0 {
			c.write(b)
		}
	}
	b.WriteByte('}')
}

func (n *FieldRequestNode) add(c *FieldRequestNode) {
	existing, ok := n.children[c.name]
	if !ok {
		n.children[c.name] = c
		n.order = append(n.order, c.name)
		return
	}
	existing.object = existing.object || c.object
	for _, name := range c.order {
		existing.add(c.children[name])
	}
}
