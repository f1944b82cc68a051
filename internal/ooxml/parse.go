package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/hlzconv/internal/failure"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Parse builds the tree for one XML part. part names the source for error
// messages. Alternate-content blocks are collapsed to their fallback branch
// before the tree is returned.
func Parse(part string, data []byte) (*Node, error) {
	data = bytes.TrimPrefix(data, bom)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, failure.Wrap(failure.MalformedXML, err, "parse %s", part)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: qualified(t.Name)}
			if len(t.Attr) > 0 {
				n.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					n.Attrs[i] = Attr{Name: qualified(a.Name), Value: a.Value}
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, failure.New(failure.MalformedXML, "parse %s: multiple root elements", part)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, failure.New(failure.MalformedXML, "parse %s: unexpected close tag </%s>", part, name)
			}
			open := stack[len(stack)-1]
			if open.Name != name {
				return nil, failure.New(failure.MalformedXML, "parse %s: close tag </%s> does not match <%s>", part, name, open.Name)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, failure.New(failure.MalformedXML, "parse %s: text outside root element", part)
				}
				continue
			}
			parent := stack[len(stack)-1]
			if len(bytes.TrimSpace(t)) == 0 && !keepsWhitespace(parent) {
				continue
			}
			parent.Children = append(parent.Children, &Node{Text: string(t)})
		}
	}

	if len(stack) > 0 {
		return nil, failure.New(failure.MalformedXML, "parse %s: unterminated tag <%s>", part, stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, failure.New(failure.MalformedXML, "parse %s: no root element", part)
	}

	root.Children = collapseAlternateContent(root.Children)
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// keepsWhitespace reports whether whitespace-only text inside n is content
// rather than indentation between elements.
func keepsWhitespace(n *Node) bool {
	switch n.Local() {
	case "t", "instrText", "delText":
		return true
	}
	return false
}

// collapseAlternateContent replaces every mc:AlternateContent node with the
// children of its mc:Fallback branch, recursively. A block without a
// fallback disappears.
func collapseAlternateContent(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Local() == "AlternateContent" {
			for _, c := range n.Children {
				if c.Local() == "Fallback" {
					out = append(out, collapseAlternateContent(c.Children)...)
					break
				}
			}
			continue
		}
		if len(n.Children) > 0 {
			n.Children = collapseAlternateContent(n.Children)
		}
		out = append(out, n)
	}
	return out
}

// Markup serializes n back to XML text. Used to carry opaque fragments
// (e.g. OMML) through the pipeline.
func Markup(n *Node) string {
	var sb strings.Builder
	writeMarkup(&sb, n)
	return sb.String()
}

func writeMarkup(sb *strings.Builder, n *Node) {
	if n.IsText() {
		xml.EscapeText(sb, []byte(n.Text))
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.Name)
	for _, a := range n.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		xml.EscapeText(sb, []byte(a.Value))
		sb.WriteByte('"')
	}
	if len(n.Children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteByte('>')
	for _, c := range n.Children {
		writeMarkup(sb, c)
	}
	fmt.Fprintf(sb, "</%s>", n.Name)
}
