package hlz

import (
	"io"
	"strings"
)

// Header is written before the root element.
const Header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&#160;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&#160;", `"`, "&quot;")
)

// EscapeText escapes character data.
func EscapeText(s string) string { return textEscaper.Replace(s) }

// EscapeAttr escapes an attribute value.
func EscapeAttr(s string) string { return attrEscaper.Replace(s) }

// Options controls serialization.
type Options struct {
	// Breaks lists elements followed by a newline, for readable output.
	Breaks map[string]bool
}

// Marshal serializes n, without the XML header.
func Marshal(n *Node, opts Options) string {
	var sb strings.Builder
	write(&sb, n, opts)
	return sb.String()
}

// Write serializes the document rooted at n with the XML header.
func Write(w io.Writer, root *Node, opts Options) error {
	_, err := io.WriteString(w, Header+Marshal(root, opts))
	return err
}

// write renders n. An element whose rendered content is empty is pruned
// unless it is self-closing or force-marked.
func write(sb *strings.Builder, n *Node, opts Options) {
	switch n.Kind {
	case KindText:
		sb.WriteString(EscapeText(n.Text))
		return
	case KindForce:
		return
	}

	var inner strings.Builder
	for _, c := range n.Children {
		write(&inner, c, opts)
	}

	switch {
	case inner.Len() > 0:
		openTag(sb, n)
		sb.WriteByte('>')
		sb.WriteString(inner.String())
		sb.WriteString("</" + n.Name + ">")
	case n.SelfClosing:
		openTag(sb, n)
		sb.WriteString("/>")
	case n.Forced():
		openTag(sb, n)
		sb.WriteString("></" + n.Name + ">")
	default:
		return
	}
	if opts.Breaks[n.Name] {
		sb.WriteByte('\n')
	}
}

func openTag(sb *strings.Builder, n *Node) {
	sb.WriteString("<" + n.Name)
	for _, a := range n.Attrs {
		sb.WriteString(" " + a.Name + `="` + EscapeAttr(a.Value) + `"`)
	}
}
