package mapping

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/hlz"
	"github.com/dgallion1/hlzconv/internal/report"
)

// table wraps a section-level table in a paragraph so a table is never a
// direct child of a section.
func (e *engine) table(t *docmodel.Table, pos string) {
	wrapper := hlz.Elem("p").Append(hlz.Force())
	if f := e.numberingFrame(); f != nil {
		f.counter++
		wrapper.SetAttr("num", fmt.Sprintf("%04d", f.counter))
	}
	wrapper.Append(hlz.Elem("tables").Append(e.tableNode(t, pos)))
	e.top().node.Append(wrapper)
}

func (e *engine) tableNode(t *docmodel.Table, pos string) *hlz.Node {
	e.rep.Inc(report.CountTable, 1)
	if t.StyleID != "" {
		if _, ok := e.sm.Match(ElementTable, t.StyleID, t.StyleName, false); !ok && !e.sm.IsPassThrough(t.StyleName) {
			e.unresolved(pos, "table", t.StyleID, t.StyleName)
		}
	}

	node := hlz.Elem("table").Append(hlz.Force())
	header := 0
	for header < len(t.Rows) && t.Rows[header].Header {
		header++
	}
	if header == 0 || header == len(t.Rows) {
		for _, r := range t.Rows {
			node.Append(e.row(r, "td", pos))
		}
		return node
	}
	thead := hlz.Elem("thead")
	for _, r := range t.Rows[:header] {
		thead.Append(e.row(r, "th", pos))
	}
	tbody := hlz.Elem("tbody")
	for _, r := range t.Rows[header:] {
		tbody.Append(e.row(r, "td", pos))
	}
	return node.Append(thead, tbody)
}

// row converts a table row. Vertical-merge continuation cells are covered
// by the rowspan of the cell above and emit nothing.
func (e *engine) row(r *docmodel.TableRow, cellTag, pos string) *hlz.Node {
	tr := hlz.Elem("tr").Append(hlz.Force())
	for _, c := range r.Cells {
		if c.RowSpan == 0 {
			continue
		}
		td := hlz.Elem(cellTag).Append(hlz.Force())
		if c.ColSpan > 1 {
			td.SetAttr("colspan", strconv.Itoa(c.ColSpan))
		}
		if c.RowSpan > 1 {
			td.SetAttr("rowspan", strconv.Itoa(c.RowSpan))
		}
		if c.WidthType == "dxa" && c.WidthTwips > 0 {
			td.SetAttr("width", strconv.Itoa(TwipsToMM(c.WidthTwips)))
		}
		if c.VAlign != "" {
			td.SetAttr("valign", c.VAlign)
		}
		for _, child := range c.Children {
			switch v := child.(type) {
			case *docmodel.Paragraph:
				p := hlz.Elem("p").Append(hlz.Force())
				p.Append(e.inlines(v.Children, pos)...)
				td.Append(p)
			case *docmodel.Table:
				td.Append(hlz.Elem("p").Append(hlz.Force(), hlz.Elem("tables").Append(e.tableNode(v, pos))))
			}
		}
		tr.Append(td)
	}
	return tr
}

// TwipsToMM converts twentieths of a point to whole millimetres, flooring.
func TwipsToMM(twips int) int {
	if twips <= 0 {
		return 0
	}
	return twips * 254 / 14400
}
