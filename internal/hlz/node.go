// Package hlz is the output tag tree and its markup serializer.
package hlz

import "strings"

// NodeKind distinguishes elements from the two leaf kinds.
type NodeKind int

const (
	KindElement NodeKind = iota
	KindText
	// KindForce marks its parent as never prunable. It renders nothing.
	KindForce
)

// Attr is one attribute; element attributes keep insertion order.
type Attr struct {
	Name  string
	Value string
}

// Node is an element, a text leaf or a force-write marker.
type Node struct {
	Kind        NodeKind
	Name        string
	Attrs       []Attr
	SelfClosing bool
	Text        string
	Children    []*Node
}

// Elem returns a new element.
func Elem(name string, attrs ...Attr) *Node {
	return &Node{Kind: KindElement, Name: name, Attrs: attrs}
}

// Empty returns a self-closing element.
func Empty(name string, attrs ...Attr) *Node {
	return &Node{Kind: KindElement, Name: name, Attrs: attrs, SelfClosing: true}
}

// Text returns a text leaf.
func Text(s string) *Node { return &Node{Kind: KindText, Text: s} }

// Force returns a force-write marker.
func Force() *Node { return &Node{Kind: KindForce} }

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// SetAttr replaces or adds an attribute.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{name, value})
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Forced reports whether n carries a force-write marker.
func (n *Node) Forced() bool {
	for _, c := range n.Children {
		if c.Kind == KindForce {
			return true
		}
	}
	return false
}

// TextContent concatenates all text leaves below n.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.Walk(func(c *Node) {
		if c.Kind == KindText {
			sb.WriteString(c.Text)
		}
	})
	return sb.String()
}

// Walk visits n and its descendants depth-first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}
