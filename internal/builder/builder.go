// Package builder walks a parsed WordprocessingML body into the typed
// document model, resolving styles, numbering, images and math.
package builder

import (
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/ooxml"
	"github.com/dgallion1/hlzconv/internal/report"
	"github.com/dgallion1/hlzconv/internal/resolve"
)

// Builder holds the per-conversion state of one document walk.
type Builder struct {
	res *resolve.Resolver
	rep *report.Context

	// field state: a legacy checkbox field is reported once, at its
	// begin marker, and its result runs are skipped.
	inField      bool
	fieldIsCheck bool
}

// Build converts the document root (w:document) into a Document holding
// one node per content child of w:body. Block content controls (w:sdt) and
// w:customXml are containers, not content: each paragraph or table inside
// them becomes its own top-level node, in document order.
func Build(docRoot *ooxml.Node, res *resolve.Resolver, rep *report.Context) (*docmodel.Document, error) {
	body := docRoot.Child("w:body")
	if body == nil {
		return nil, failure.New(failure.MissingRequiredPart, "document has no w:body")
	}
	b := &Builder{res: res, rep: rep}
	doc := &docmodel.Document{}
	b.blocks(body, func(n docmodel.Node) { doc.Children = append(doc.Children, n) })
	return doc, nil
}

// blocks emits the block-level content of a body, cell or content control.
func (b *Builder) blocks(parent *ooxml.Node, emit func(docmodel.Node)) {
	for _, c := range parent.Elements() {
		switch c.Name {
		case "w:p":
			emit(b.paragraph(c))
		case "w:tbl":
			emit(b.table(c))
		case "w:sdt":
			b.blocks(c.Child("w:sdtContent"), emit)
		case "w:customXml":
			b.blocks(c, emit)
		case "w:sectPr", "w:bookmarkStart", "w:bookmarkEnd", "w:proofErr",
			"w:permStart", "w:permEnd", "w:commentRangeStart", "w:commentRangeEnd", "w:tcPr", "w:sdtPr", "w:sdtEndPr":
		default:
			b.rep.Notef(c.Name, "unsupported block element %s skipped", c.Name)
		}
	}
}

func (b *Builder) paragraph(p *ooxml.Node) *docmodel.Paragraph {
	pPr := p.Child("w:pPr")
	para := &docmodel.Paragraph{StyleID: pPr.Child("w:pStyle").Val()}
	if para.StyleID == "" {
		para.StyleID = b.res.DefaultParagraphStyle()
	}
	if s, ok := b.res.Style(para.StyleID); ok {
		para.StyleName = s.Name
	}

	var levelIndent int
	para.Numbering, levelIndent = b.numbering(pPr, para.StyleID)
	para.IndentTwips = levelIndent
	if ind := pPr.Child("w:ind"); ind != nil {
		v := ind.AttrOr("w:left", ind.AttrOr("w:start", ""))
		if n, err := strconv.Atoi(v); err == nil {
			para.IndentTwips = n
		}
	}
	para.Align = pPr.Child("w:jc").Val()

	base := resolve.ParseRunProps(pPr.Child("w:rPr")).Over(b.res.StyleRunProps(para.StyleID))
	base.StyleID = ""
	b.inField, b.fieldIsCheck = false, false
	b.inlines(p, base, func(n docmodel.Node) { para.Children = append(para.Children, n) })
	return para
}

// numbering resolves direct numPr first, then the style's numbering. A
// direct numId of 0 removes numbering inherited from the style.
func (b *Builder) numbering(pPr *ooxml.Node, styleID string) (*docmodel.Numbering, int) {
	var numID string
	var ilvl int
	if numPr := pPr.Child("w:numPr"); numPr != nil {
		numID = numPr.Child("w:numId").Val()
		ilvl, _ = strconv.Atoi(numPr.Child("w:ilvl").Val())
		if numID == "0" {
			return nil, 0
		}
	}
	if numID == "" {
		var ok bool
		numID, ilvl, ok = b.res.StyleNumbering(styleID)
		if !ok {
			return nil, 0
		}
		if numID == "0" {
			return nil, 0
		}
	}
	lvl, ok := b.res.Level(numID, ilvl)
	if !ok {
		b.rep.Notef("numId "+numID, "numbering level %d of instance %s is not defined", ilvl, numID)
		return nil, 0
	}
	return &docmodel.Numbering{
		NumID:     numID,
		Level:     lvl.Level,
		IsOrdered: lvl.IsOrdered,
		Format:    lvl.Format,
	}, lvl.IndentTwips
}

// inlines emits the inline content of a paragraph or inline container.
func (b *Builder) inlines(parent *ooxml.Node, base resolve.RunProps, emit func(docmodel.Node)) {
	for _, c := range parent.Elements() {
		switch c.Name {
		case "w:r":
			if run := b.run(c, base); run != nil {
				emit(run)
			}
		case "w:hyperlink", "w:ins", "w:smartTag", "w:customXml", "w:fldSimple",
			"w:dir", "w:bdo", "w:moveTo":
			b.inlines(c, base, emit)
		case "w:sdt":
			if cb := sdtCheckbox(c); cb != nil {
				emit(cb)
				continue
			}
			b.inlines(c.Child("w:sdtContent"), base, emit)
		case "m:oMath":
			emit(newMath(c))
		case "m:oMathPara":
			mp := &docmodel.MathPara{}
			for _, m := range c.ChildrenNamed("m:oMath") {
				mp.Children = append(mp.Children, newMath(m))
			}
			emit(mp)
		case "w:del", "w:moveFrom", "w:pPr", "w:bookmarkStart", "w:bookmarkEnd", "w:proofErr",
			"w:commentRangeStart", "w:commentRangeEnd", "w:permStart", "w:permEnd", "w:sdtPr", "w:sdtEndPr":
		default:
			b.rep.Notef(c.Name, "unsupported inline element %s skipped", c.Name)
		}
	}
}

func newMath(n *ooxml.Node) *docmodel.Math {
	return &docmodel.Math{Markup: ooxml.Markup(n), LaTeX: OMMLToLaTeX(n)}
}

// sdtCheckbox returns the checkbox of a w14:checkbox content control.
func sdtCheckbox(sdt *ooxml.Node) *docmodel.Checkbox {
	cb := sdt.Child("w:sdtPr").Child("w14:checkbox")
	if cb == nil {
		return nil
	}
	v := cb.Child("w14:checked").Val()
	return &docmodel.Checkbox{Checked: v == "1" || v == "true"}
}

// run resolves formatting as direct > character style > paragraph mark
// and paragraph style, then converts the run content.
func (b *Builder) run(r *ooxml.Node, base resolve.RunProps) *docmodel.Run {
	direct := resolve.ParseRunProps(r.Child("w:rPr"))
	props := direct.Over(b.res.StyleRunProps(direct.StyleID)).Over(base)

	run := &docmodel.Run{StyleID: direct.StyleID, Format: toFormat(props)}
	if s, ok := b.res.Style(direct.StyleID); ok {
		run.StyleName = s.Name
	}
	for _, c := range r.Elements() {
		if c.Name == "w:fldChar" {
			if cb := b.fieldChar(c); cb != nil {
				run.Children = append(run.Children, cb)
			}
			continue
		}
		if b.inField && b.fieldIsCheck {
			continue
		}
		run.Children = append(run.Children, b.runChild(c)...)
	}
	if len(run.Children) == 0 && (b.inField && b.fieldIsCheck) {
		return nil
	}
	return run
}

func toFormat(p resolve.RunProps) docmodel.Format {
	f := docmodel.Format{
		Bold:      resolve.Is(p.Bold),
		Italic:    resolve.Is(p.Italic),
		Underline: resolve.Is(p.Underline),
		Strike:    resolve.Is(p.Strike),
		AllCaps:   resolve.Is(p.AllCaps),
		SmallCaps: resolve.Is(p.SmallCaps),
	}
	switch p.VertAlign {
	case "superscript", "subscript":
		f.VertAlign = p.VertAlign
	}
	if p.Highlight != "none" {
		f.Highlight = p.Highlight
	}
	return f
}

// fieldChar tracks complex fields. Only legacy checkbox form fields produce
// output; their result text would duplicate the glyph.
func (b *Builder) fieldChar(c *ooxml.Node) *docmodel.Checkbox {
	switch c.AttrOr("w:fldCharType", "") {
	case "begin":
		b.inField = true
		box := c.Child("w:ffData").Child("w:checkBox")
		b.fieldIsCheck = box != nil
		if box == nil {
			return nil
		}
		state := box.Child("w:checked")
		if state == nil {
			state = box.Child("w:default")
		}
		checked := state != nil && state.AttrOr("w:val", "1") != "0" && state.AttrOr("w:val", "1") != "false"
		return &docmodel.Checkbox{Checked: checked}
	case "end":
		b.inField, b.fieldIsCheck = false, false
	}
	return nil
}

func (b *Builder) runChild(c *ooxml.Node) []docmodel.Node {
	switch c.Name {
	case "w:t":
		return []docmodel.Node{&docmodel.Text{Value: c.TextContent()}}
	case "w:tab", "w:ptab":
		return []docmodel.Node{&docmodel.Tab{}}
	case "w:br":
		kind := docmodel.BreakLine
		switch c.AttrOr("w:type", "") {
		case "page":
			kind = docmodel.BreakPage
		case "column":
			kind = docmodel.BreakColumn
		}
		return []docmodel.Node{&docmodel.Break{Kind: kind}}
	case "w:cr":
		return []docmodel.Node{&docmodel.Break{Kind: docmodel.BreakLine}}
	case "w:noBreakHyphen":
		return []docmodel.Node{&docmodel.Text{Value: "‑"}}
	case "w:sym":
		if s := symbolText(c.AttrOr("w:char", "")); s != "" {
			return []docmodel.Node{&docmodel.Text{Value: s}}
		}
		return nil
	case "w:drawing":
		return b.drawing(c)
	case "w:pict", "w:object":
		return b.vmlPicture(c)
	case "m:oMath":
		return []docmodel.Node{newMath(c)}
	case "w:rPr", "w:instrText", "w:delText", "w:lastRenderedPageBreak", "w:softHyphen",
		"w:footnoteReference", "w:endnoteReference", "w:commentReference", "w:annotationRef":
		return nil
	}
	b.rep.Notef(c.Name, "unsupported run element %s skipped", c.Name)
	return nil
}

// symbolText decodes a w:sym character code. Symbol-font codes live in the
// private-use range F000-F0FF.
func symbolText(hex string) string {
	code, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || code == 0 {
		return ""
	}
	if code >= 0xF000 && code <= 0xF0FF {
		code -= 0xF000
	}
	return string(rune(code))
}

func (b *Builder) drawing(d *ooxml.Node) []docmodel.Node {
	var out []docmodel.Node
	for _, frame := range d.Elements() {
		if frame.Name != "wp:inline" && frame.Name != "wp:anchor" {
			continue
		}
		blip := frame.Find("a:blip")
		if blip == nil {
			b.rep.Notef("drawing", "drawing without a picture skipped")
			continue
		}
		img := &docmodel.Image{Description: frame.Child("wp:docPr").AttrOr("descr", "")}
		if ext := frame.Child("wp:extent"); ext != nil {
			cx, _ := strconv.ParseInt(ext.AttrOr("cx", "0"), 10, 64)
			cy, _ := strconv.ParseInt(ext.AttrOr("cy", "0"), 10, 64)
			img.WidthMM, img.HeightMM = EMUToMM(cx), EMUToMM(cy)
		}
		id := blip.AttrOr("r:embed", "")
		if id == "" {
			id = blip.AttrOr("r:link", "")
		}
		b.resolveImage(img, id)
		out = append(out, img)
	}
	return out
}

func (b *Builder) vmlPicture(p *ooxml.Node) []docmodel.Node {
	shape := p.Find("v:shape")
	data := p.Find("v:imagedata")
	if data == nil {
		b.rep.Notef(p.Name, "embedded object without a preview image skipped")
		return nil
	}
	img := &docmodel.Image{}
	if shape != nil {
		style := parseVMLStyle(shape.AttrOr("style", ""))
		img.WidthMM, _ = cssLengthToMM(style["width"])
		img.HeightMM, _ = cssLengthToMM(style["height"])
		img.Description = shape.AttrOr("alt", "")
	}
	b.resolveImage(img, data.AttrOr("r:id", ""))
	return []docmodel.Node{img}
}

func (b *Builder) resolveImage(img *docmodel.Image, relID string) {
	img.RelID = relID
	rel, ok := b.res.Rel(relID)
	if !ok {
		b.rep.Warnf("image "+relID, "image relationship %q not found", relID)
		return
	}
	if rel.External {
		img.External = true
		img.Source = strings.TrimPrefix(strings.TrimPrefix(rel.Target, "file:///"), "file://")
		img.ContentType = mime.TypeByExtension(strings.ToLower(path.Ext(img.Source)))
		return
	}
	img.Source = rel.Target
	img.ContentType = b.res.ContentTypes.Lookup(rel.Target)
	if img.ContentType == "" {
		img.ContentType = mime.TypeByExtension(strings.ToLower(path.Ext(rel.Target)))
	}
}
