package resolve

import (
	"strings"

	"github.com/dgallion1/hlzconv/internal/ooxml"
)

// RunProps is a partial set of run formatting. A nil flag means "not
// specified here", so layers can be merged with the nearer layer winning.
type RunProps struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
	Strike    *bool
	AllCaps   *bool
	SmallCaps *bool
	VertAlign string // "", "superscript", "subscript", "baseline"
	Highlight string // "", color name, or "none"
	StyleID   string // rStyle, direct properties only
}

// ParseRunProps reads a w:rPr element. A nil node yields empty props.
func ParseRunProps(rPr *ooxml.Node) RunProps {
	var p RunProps
	if rPr == nil {
		return p
	}
	for _, c := range rPr.Elements() {
		switch c.Local() {
		case "b":
			p.Bold = onOff(c)
		case "i":
			p.Italic = onOff(c)
		case "u":
			v := c.Val()
			on := v != "none" && v != "0" && v != "false"
			p.Underline = &on
		case "strike", "dstrike":
			p.Strike = onOff(c)
		case "caps":
			p.AllCaps = onOff(c)
		case "smallCaps":
			p.SmallCaps = onOff(c)
		case "vertAlign":
			p.VertAlign = c.Val()
		case "highlight":
			p.Highlight = c.Val()
		case "rStyle":
			p.StyleID = c.Val()
		}
	}
	return p
}

// onOff reads an ST_OnOff toggle: absent val means on.
func onOff(n *ooxml.Node) *bool {
	v, ok := n.Attr("val")
	on := !ok || !(v == "0" || strings.EqualFold(v, "false") || strings.EqualFold(v, "off"))
	return &on
}

// Over returns p layered over under: fields set in p win.
func (p RunProps) Over(under RunProps) RunProps {
	out := under
	if p.Bold != nil {
		out.Bold = p.Bold
	}
	if p.Italic != nil {
		out.Italic = p.Italic
	}
	if p.Underline != nil {
		out.Underline = p.Underline
	}
	if p.Strike != nil {
		out.Strike = p.Strike
	}
	if p.AllCaps != nil {
		out.AllCaps = p.AllCaps
	}
	if p.SmallCaps != nil {
		out.SmallCaps = p.SmallCaps
	}
	if p.VertAlign != "" {
		out.VertAlign = p.VertAlign
	}
	if p.Highlight != "" {
		out.Highlight = p.Highlight
	}
	if p.StyleID != "" {
		out.StyleID = p.StyleID
	}
	return out
}

// Is returns the resolved value of a tri-state flag.
func Is(flag *bool) bool { return flag != nil && *flag }
