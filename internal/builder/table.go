package builder

import (
	"strconv"

	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/ooxml"
)

func (b *Builder) table(tbl *ooxml.Node) *docmodel.Table {
	t := &docmodel.Table{StyleID: tbl.Path("w:tblPr", "w:tblStyle").Val()}
	if s, ok := b.res.Style(t.StyleID); ok {
		t.StyleName = s.Name
	}
	for _, col := range tbl.Path("w:tblGrid").ChildrenNamed("w:gridCol") {
		w, _ := strconv.Atoi(col.AttrOr("w:w", "0"))
		t.GridWidths = append(t.GridWidths, w)
	}

	// gridStart[i][j] is the first grid column of cell j in row i.
	var gridStart [][]int
	header := true
	for _, tr := range rowsOf(tbl) {
		trPr := tr.Child("w:trPr")
		h := trPr.Child("w:tblHeader")
		header = header && h != nil && isOn(h)
		row := &docmodel.TableRow{Header: header}

		col, _ := strconv.Atoi(trPr.Child("w:gridBefore").Val())
		var starts []int
		for _, tc := range cellsOf(tr) {
			cell := b.cell(tc)
			row.Cells = append(row.Cells, cell)
			starts = append(starts, col)
			col += cell.ColSpan
		}
		t.Rows = append(t.Rows, row)
		gridStart = append(gridStart, starts)
	}
	assignRowSpans(t, gridStart)
	return t
}

// rowsOf returns the w:tr children, looking through row-level content
// controls and custom XML wrappers.
func rowsOf(tbl *ooxml.Node) []*ooxml.Node {
	var out []*ooxml.Node
	for _, c := range tbl.Elements() {
		switch c.Name {
		case "w:tr":
			out = append(out, c)
		case "w:sdt":
			out = append(out, rowsOf(c.Child("w:sdtContent"))...)
		case "w:customXml":
			out = append(out, rowsOf(c)...)
		}
	}
	return out
}

func cellsOf(tr *ooxml.Node) []*ooxml.Node {
	var out []*ooxml.Node
	for _, c := range tr.Elements() {
		switch c.Name {
		case "w:tc":
			out = append(out, c)
		case "w:sdt":
			out = append(out, cellsOf(c.Child("w:sdtContent"))...)
		case "w:customXml":
			out = append(out, cellsOf(c)...)
		}
	}
	return out
}

func (b *Builder) cell(tc *ooxml.Node) *docmodel.TableCell {
	tcPr := tc.Child("w:tcPr")
	cell := &docmodel.TableCell{ColSpan: 1, RowSpan: 1}
	if n, err := strconv.Atoi(tcPr.Child("w:gridSpan").Val()); err == nil && n > 1 {
		cell.ColSpan = n
	}
	if vm := tcPr.Child("w:vMerge"); vm != nil {
		cell.VMerge = vm.AttrOr("w:val", "continue")
	}
	if w := tcPr.Child("w:tcW"); w != nil {
		cell.WidthTwips, _ = strconv.Atoi(w.AttrOr("w:w", "0"))
		cell.WidthType = w.AttrOr("w:type", "dxa")
	}
	cell.VAlign = tcPr.Child("w:vAlign").Val()
	b.blocks(tc, func(n docmodel.Node) { cell.Children = append(cell.Children, n) })
	return cell
}

// assignRowSpans sets RowSpan on every vMerge restart cell to the number
// of rows it covers; continuation cells get RowSpan 0.
func assignRowSpans(t *docmodel.Table, gridStart [][]int) {
	for i, row := range t.Rows {
		for j, cell := range row.Cells {
			switch cell.VMerge {
			case "continue":
				cell.RowSpan = 0
			case "restart":
				span := 1
				for k := i + 1; k < len(t.Rows); k++ {
					next := cellAt(t.Rows[k], gridStart[k], gridStart[i][j])
					if next == nil || next.VMerge != "continue" {
						break
					}
					span++
				}
				cell.RowSpan = span
			}
		}
	}
}

func cellAt(row *docmodel.TableRow, starts []int, col int) *docmodel.TableCell {
	for j, s := range starts {
		if s == col {
			return row.Cells[j]
		}
	}
	return nil
}

func isOn(n *ooxml.Node) bool {
	v, ok := n.Attr("val")
	return !ok || !(v == "0" || v == "false" || v == "off")
}
