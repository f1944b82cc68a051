package mapping

import (
	"strings"

	"github.com/dgallion1/hlzconv/internal/hlz"
	"github.com/dgallion1/hlzconv/internal/sections"
)

// Lines flattens a mapped tree into the text lines used as the generated
// side of the diff: one line per section heading and per paragraph line.
func Lines(root *hlz.Node) []string {
	var out []string
	var walk func(n *hlz.Node)
	walk = func(n *hlz.Node) {
		if n.Kind != hlz.KindElement {
			return
		}
		if sections.IsSection(n.Name) {
			num, _ := n.Attr("num")
			if title, ok := sections.Title(n.Name, num); ok {
				out = append(out, title)
			}
		}
		if (n.Name == "p" || n.Name == "claim-text") && !hasChild(n, "tables") {
			out = append(out, strings.Split(lineText(n), "\n")...)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

func hasChild(n *hlz.Node, name string) bool {
	for _, c := range n.Children {
		if c.Kind == hlz.KindElement && c.Name == name {
			return true
		}
	}
	return false
}

func lineText(n *hlz.Node) string {
	var sb strings.Builder
	n.Walk(func(c *hlz.Node) {
		switch {
		case c.Kind == hlz.KindText:
			sb.WriteString(c.Text)
		case c.Kind == hlz.KindElement && c.Name == "br":
			sb.WriteByte('\n')
		}
	})
	return sb.String()
}

// Breaks is the serializer option that puts block elements on their own
// lines.
var Breaks = map[string]bool{
	RootTag: true, "p": true, "claim-text": true, "tr": true, "table": true,
	"thead": true, "tbody": true, "tables": true,
}

func init() {
	for _, r := range sections.Rules {
		Breaks[r.Tag] = true
	}
	Breaks[sections.TagClaim] = true
	Breaks[sections.TagFigure] = true
}
