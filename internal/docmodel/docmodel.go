// Package docmodel is the typed document tree the builder produces from
// WordprocessingML and the mapping engine consumes.
package docmodel

// Node is one of the concrete node types below.
type Node interface {
	node()
}

// Document is the root: one Block per top-level body child.
type Document struct {
	Children []Node // *Paragraph or *Table
}

// Numbering describes a paragraph's list membership.
type Numbering struct {
	NumID     string
	Level     int
	IsOrdered bool
	Format    string
}

// Paragraph is a w:p.
type Paragraph struct {
	StyleID     string
	StyleName   string
	Numbering   *Numbering
	IndentTwips int
	Align       string
	Children    []Node
}

// Format is the resolved formatting of a run.
type Format struct {
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	AllCaps   bool
	SmallCaps bool
	VertAlign string // "", "superscript", "subscript"
	Highlight string // "" or a highlight color name
}

// Run is a w:r with its resolved formatting.
type Run struct {
	StyleID   string
	StyleName string
	Format    Format
	Children  []Node
}

// Text is literal character content.
type Text struct {
	Value string
}

// Tab is a w:tab inside a run.
type Tab struct{}

// BreakKind distinguishes w:br types.
type BreakKind string

const (
	BreakLine   BreakKind = "line"
	BreakPage   BreakKind = "page"
	BreakColumn BreakKind = "column"
)

// Break is a w:br or w:cr.
type Break struct {
	Kind BreakKind
}

// Checkbox is a content-control or legacy form-field checkbox.
type Checkbox struct {
	Checked bool
}

// Image is an embedded or linked picture.
type Image struct {
	RelID       string
	Source      string // package path, or file-system path when External
	External    bool
	ContentType string
	WidthMM     int
	HeightMM    int
	Description string
}

// Math is an inline m:oMath. Markup is the original OMML; LaTeX is its
// linearization; SVG is filled in by the renderer and may stay empty.
type Math struct {
	Markup string
	LaTeX  string
	SVG    string
}

// MathPara is an m:oMathPara display block.
type MathPara struct {
	Children []*Math
}

// Table is a w:tbl. GridWidths are the w:gridCol widths in twips.
type Table struct {
	StyleID    string
	StyleName  string
	GridWidths []int
	Rows       []*TableRow
}

// TableRow is a w:tr. Header is true only when this row and every row
// before it are marked as header rows.
type TableRow struct {
	Header bool
	Cells  []*TableCell
}

// TableCell is a w:tc. VMerge is the raw w:vMerge value ("restart",
// "continue" or "").
type TableCell struct {
	ColSpan    int
	RowSpan    int
	VMerge     string
	WidthTwips int
	WidthType  string
	VAlign     string
	Children   []Node // *Paragraph or *Table
}

func (*Paragraph) node() {}
func (*Run) node()       {}
func (*Text) node()      {}
func (*Tab) node()       {}
func (*Break) node()     {}
func (*Checkbox) node()  {}
func (*Image) node()     {}
func (*Math) node()      {}
func (*MathPara) node()  {}
func (*Table) node()     {}
func (*TableRow) node()  {}
func (*TableCell) node() {}
