// Package ooxml turns raw Office Open XML part text into a generic attributed
// tree. It knows nothing about WordprocessingML semantics beyond collapsing
// markup-compatibility alternate content.
package ooxml

import "strings"

// Attr is one attribute, keyed by its prefixed name (e.g. "w:val").
type Attr struct {
	Name  string
	Value string
}

// Node is either an element (Name set) or a text leaf (Name empty).
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool { return n.Name == "" }

// Local returns the element name without its namespace prefix.
func (n *Node) Local() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Attr returns the value of the named attribute. The name may be given with
// or without prefix; an unprefixed query matches any prefix.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	if !strings.Contains(name, ":") {
		for _, a := range n.Attrs {
			if i := strings.IndexByte(a.Name, ':'); i >= 0 && a.Name[i+1:] == name {
				return a.Value, true
			}
		}
	}
	return "", false
}

// AttrOr returns the attribute value or fallback.
func (n *Node) AttrOr(name, fallback string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return fallback
}

// Child returns the first element child with the given name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Path follows a chain of first-matching children. Missing links yield nil,
// and every accessor on a nil *Node is safe.
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Elements returns the element children, skipping text leaves.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

// ChildrenNamed returns every element child with the given name.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant (depth-first, excluding n) with the name.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// FindAll returns every descendant with the name in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.Walk(func(d *Node) bool {
		if d != n && d.Name == name {
			out = append(out, d)
		}
		return true
	})
	return out
}

// HasDescendant reports whether any descendant matches pred.
func (n *Node) HasDescendant(pred func(*Node) bool) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Children {
		if pred(c) || c.HasDescendant(pred) {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// TextContent concatenates all descendant text leaves.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.Walk(func(d *Node) bool {
		if d.IsText() {
			sb.WriteString(d.Text)
		}
		return true
	})
	return sb.String()
}

// Val returns the w:val (or any-prefix val) attribute, the most common
// property carrier in WordprocessingML.
func (n *Node) Val() string {
	if n == nil {
		return ""
	}
	return n.AttrOr("val", "")
}
