package docmodel

import "strings"

// PlainText flattens a node to text. Line breaks become "\n", tabs "\t",
// checkboxes their glyph, math its LaTeX.
func PlainText(n Node) string {
	var sb strings.Builder
	writeText(&sb, n)
	return sb.String()
}

func writeText(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Paragraph:
		for _, c := range v.Children {
			writeText(sb, c)
		}
	case *Run:
		for _, c := range v.Children {
			writeText(sb, c)
		}
	case *Text:
		sb.WriteString(v.Value)
	case *Tab:
		sb.WriteByte('\t')
	case *Break:
		if v.Kind == BreakLine {
			sb.WriteByte('\n')
		}
	case *Checkbox:
		sb.WriteString(CheckboxGlyph(v.Checked))
	case *Math:
		sb.WriteString(v.LaTeX)
	case *MathPara:
		for _, m := range v.Children {
			sb.WriteString(m.LaTeX)
		}
	case *Table:
		for _, r := range v.Rows {
			writeText(sb, r)
		}
	case *TableRow:
		for i, c := range v.Cells {
			if i > 0 {
				sb.WriteByte('\t')
			}
			writeText(sb, c)
		}
		sb.WriteByte('\n')
	case *TableCell:
		for _, c := range v.Children {
			writeText(sb, c)
		}
	}
}

// CheckboxGlyph is the text form of a checkbox.
func CheckboxGlyph(checked bool) string {
	if checked {
		return "☑"
	}
	return "☐"
}

// Walk visits n and every descendant depth-first.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch v := n.(type) {
	case *Paragraph:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	case *Run:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	case *MathPara:
		for _, m := range v.Children {
			Walk(m, fn)
		}
	case *Table:
		for _, r := range v.Rows {
			Walk(r, fn)
		}
	case *TableRow:
		for _, c := range v.Cells {
			Walk(c, fn)
		}
	case *TableCell:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	}
}
