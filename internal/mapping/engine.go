// Package mapping classifies the document into patent sections and
// rewrites it as an HLZ tag tree.
package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/hlz"
	"github.com/dgallion1/hlzconv/internal/report"
	"github.com/dgallion1/hlzconv/internal/sections"
)

// RootTag is the document element of an HLZ file.
const RootTag = "PatentCAFDOC"

// Result is the mapped document plus the side tables the bundle writer
// and reports need.
type Result struct {
	Root       *hlz.Node
	Images     []ImageRef
	Maths      []MathRef
	References []sections.Element
	Outline    []OutlineEntry
}

// ImageRef ties an img element to its source image.
type ImageRef struct {
	ID    string
	File  string
	Image *docmodel.Image
}

// MathRef ties a maths element to its source expression. File is empty
// when the expression was not rendered.
type MathRef struct {
	Num  string
	File string
	Math *docmodel.Math
}

// OutlineEntry is one classified heading.
type OutlineEntry struct {
	Depth int
	Tag   string
	Num   string
	Text  string
}

type frame struct {
	node    *hlz.Node
	tag     string
	tier    sections.Tier
	counter int
}

type engine struct {
	sm    *StyleMap
	rep   *report.Context
	res   *Result
	stack []*frame

	refText  strings.Builder
	bodyText strings.Builder
	images   map[string]bool
}

// Map runs section classification and style mapping over doc.
func Map(doc *docmodel.Document, sm *StyleMap, rep *report.Context) *Result {
	if sm == nil {
		sm = DefaultStyleMap()
	}
	root := hlz.Elem(RootTag).Append(hlz.Force())
	e := &engine{
		sm:     sm,
		rep:    rep,
		res:    &Result{Root: root},
		stack:  []*frame{{node: root}},
		images: make(map[string]bool),
	}
	for i, child := range doc.Children {
		pos := fmt.Sprintf("block %d", i+1)
		switch n := child.(type) {
		case *docmodel.Paragraph:
			text := strings.TrimSpace(docmodel.PlainText(n))
			if h, ok := sections.Match(text); ok {
				e.open(h, text)
				continue
			}
			if sections.LooksLikeHeading(text) {
				rep.Recover(pos, failure.New(failure.UnresolvedSectionHeading, "unresolved section heading %q", text))
			}
			e.paragraph(n, pos)
		case *docmodel.Table:
			e.table(n, pos)
		}
	}
	e.finish()
	return e.res
}

func (e *engine) top() *frame { return e.stack[len(e.stack)-1] }

// open closes every section at the same or a deeper tier and opens h.
func (e *engine) open(h sections.Heading, text string) {
	for len(e.stack) > 1 && e.top().tier >= h.Tier {
		e.stack = e.stack[:len(e.stack)-1]
	}
	node := hlz.Elem(h.Tag).Append(hlz.Force())
	if h.Num != "" {
		node.SetAttr("num", h.Num)
	}
	e.top().node.Append(node)
	e.stack = append(e.stack, &frame{node: node, tag: h.Tag, tier: h.Tier})
	e.res.Outline = append(e.res.Outline, OutlineEntry{Depth: len(e.stack) - 2, Tag: h.Tag, Num: h.Num, Text: text})

	switch h.Tag {
	case sections.TagClaim:
		e.rep.AddNumbers(report.CountClaim, h.Num)
	case sections.TagFigure:
		e.rep.AddNumbers(report.CountFigure, h.Num)
	}
}

func (e *engine) inSection(tag string) bool {
	for _, f := range e.stack[1:] {
		if f.tag == tag {
			return true
		}
	}
	return false
}

// numberingFrame returns the nearest section that numbers its paragraphs,
// or nil when a forbidding section is nearer.
func (e *engine) numberingFrame() *frame {
	for i := len(e.stack) - 1; i >= 1; i-- {
		f := e.stack[i]
		if sections.ForbidsNumbers(f.tag) {
			return nil
		}
		if sections.InsertsNumbers(f.tag) {
			return f
		}
	}
	return nil
}

func (e *engine) splits() bool {
	for _, f := range e.stack[1:] {
		if sections.SplitsOnBreak(f.tag) {
			return true
		}
	}
	return false
}

func (e *engine) paragraph(p *docmodel.Paragraph, pos string) {
	tag := e.paragraphTag(p, pos)
	if e.inSection(sections.TagClaim) {
		tag = "claim-text"
	}

	text := docmodel.PlainText(p)
	switch {
	case e.inSection(sections.TagReferenceSignsList):
		e.refText.WriteString(text + "\n")
	case e.inSection(sections.TagDescription):
		e.bodyText.WriteString(text + "\n")
	}

	segments := [][]docmodel.Node{p.Children}
	if e.splits() {
		segments = splitAtBreaks(p.Children)
	}
	for _, seg := range segments {
		node := hlz.Elem(tag).Append(hlz.Force())
		if f := e.numberingFrame(); f != nil {
			f.counter++
			var literal int
			var ok bool
			if seg, literal, ok = stripNumber(seg); ok && literal != f.counter {
				e.rep.Warnf(pos, "paragraph number %04d renumbered to %04d", literal, f.counter)
			}
			node.SetAttr("num", fmt.Sprintf("%04d", f.counter))
		}
		node.Append(e.inlines(seg, pos)...)
		e.top().node.Append(node)
		e.rep.Inc(report.CountParagraph, 1)
	}
}

// paragraphTag checks the paragraph style against the style map.
func (e *engine) paragraphTag(p *docmodel.Paragraph, pos string) string {
	if p.StyleID == "" {
		return "p"
	}
	r, ok := e.sm.Match(ElementParagraph, p.StyleID, p.StyleName, p.Numbering != nil)
	if !ok {
		if !e.sm.IsPassThrough(p.StyleName) {
			e.unresolved(pos, "paragraph", p.StyleID, p.StyleName)
		}
		return "p"
	}
	if r.Tag == "" {
		return "p"
	}
	return r.Tag
}

func (e *engine) unresolved(pos, kind, id, name string) {
	e.rep.Recover(pos, failure.New(failure.UnresolvedStyle, "unresolved %s style %q (id %s)", kind, name, id))
}

// splitAtBreaks splits inline content at line breaks, including breaks
// inside runs. Empty pieces between two breaks are kept as blank lines;
// empty pieces before the first or after the last break are dropped, but at
// least one piece is returned.
func splitAtBreaks(nodes []docmodel.Node) [][]docmodel.Node {
	var out [][]docmodel.Node
	var cur []docmodel.Node
	cut := func() {
		out = append(out, cur)
		cur = nil
	}
	for _, n := range nodes {
		switch v := n.(type) {
		case *docmodel.Run:
			piece := &docmodel.Run{StyleID: v.StyleID, StyleName: v.StyleName, Format: v.Format}
			for _, c := range v.Children {
				if br, ok := c.(*docmodel.Break); ok && br.Kind == docmodel.BreakLine {
					if len(piece.Children) > 0 {
						cur = append(cur, piece)
					}
					cut()
					piece = &docmodel.Run{StyleID: v.StyleID, StyleName: v.StyleName, Format: v.Format}
					continue
				}
				piece.Children = append(piece.Children, c)
			}
			if len(piece.Children) > 0 {
				cur = append(cur, piece)
			}
		case *docmodel.Break:
			if v.Kind == docmodel.BreakLine {
				cut()
				continue
			}
			cur = append(cur, n)
		default:
			cur = append(cur, n)
		}
	}
	cut()
	for len(out) > 0 && emptyInline(out[0]) {
		out = out[1:]
	}
	for len(out) > 0 && emptyInline(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		out = append(out, nil)
	}
	return out
}

func emptyInline(nodes []docmodel.Node) bool {
	for _, n := range nodes {
		switch v := n.(type) {
		case *docmodel.Run:
			if !emptyInline(v.Children) {
				return false
			}
		case *docmodel.Text:
			if strings.TrimSpace(v.Value) != "" {
				return false
			}
		case *docmodel.Tab, *docmodel.Break:
		default:
			return false
		}
	}
	return true
}

var numberPrefix = regexp.MustCompile(`^\s*[【\[](\d{4,5})[】\]]\s*`)

// stripNumber removes a literal 【0001】 prefix from inline content and
// returns the remaining content and the prefix value.
func stripNumber(nodes []docmodel.Node) ([]docmodel.Node, int, bool) {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(docmodel.PlainText(n))
	}
	m := numberPrefix.FindStringSubmatch(sb.String())
	if m == nil {
		return nodes, 0, false
	}
	n, _ := strconv.Atoi(m[1])
	rest, _ := trimLeading(nodes, len(m[0]))
	return rest, n, true
}

// trimLeading drops n bytes of leading plain text and returns the bytes
// still to drop. Nodes emptied by the cut are removed.
func trimLeading(nodes []docmodel.Node, n int) ([]docmodel.Node, int) {
	var out []docmodel.Node
	for i, node := range nodes {
		if n <= 0 {
			return append(out, nodes[i:]...), 0
		}
		switch v := node.(type) {
		case *docmodel.Run:
			v.Children, n = trimLeading(v.Children, n)
			if len(v.Children) > 0 {
				out = append(out, v)
			}
		case *docmodel.Text:
			if len(v.Value) <= n {
				n -= len(v.Value)
				continue
			}
			v.Value = v.Value[n:]
			n = 0
			out = append(out, v)
		case *docmodel.Tab:
			n--
		case *docmodel.Break:
			if v.Kind == docmodel.BreakLine {
				n--
				continue
			}
			out = append(out, v)
		default:
			return append(out, nodes[i:]...), 0
		}
	}
	return out, n
}
