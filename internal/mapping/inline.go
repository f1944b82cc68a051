package mapping

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/hlz"
	"github.com/dgallion1/hlzconv/internal/report"
)

// inlines converts paragraph content. Adjacent runs with the same format
// share one set of wrappers.
func (e *engine) inlines(nodes []docmodel.Node, pos string) []*hlz.Node {
	var out []*hlz.Node
	var pending *docmodel.Run
	flush := func() {
		if pending != nil {
			out = append(out, e.run(pending, pos)...)
			pending = nil
		}
	}
	for _, n := range nodes {
		r, ok := n.(*docmodel.Run)
		if !ok {
			flush()
			out = append(out, e.inline(n, pos)...)
			continue
		}
		e.checkRunStyle(r, pos)
		if pending != nil && pending.Format == r.Format {
			pending.Children = append(pending.Children, r.Children...)
			continue
		}
		flush()
		pending = &docmodel.Run{Format: r.Format, Children: append([]docmodel.Node(nil), r.Children...)}
	}
	flush()
	return out
}

func (e *engine) checkRunStyle(r *docmodel.Run, pos string) {
	if r.StyleID == "" {
		return
	}
	if _, ok := e.sm.Match(ElementRun, r.StyleID, r.StyleName, false); ok {
		return
	}
	if !e.sm.IsPassThrough(r.StyleName) {
		e.unresolved(pos, "character", r.StyleID, r.StyleName)
	}
}

func (e *engine) run(r *docmodel.Run, pos string) []*hlz.Node {
	var content []*hlz.Node
	var text strings.Builder
	hasText := false
	flushText := func() {
		if text.Len() == 0 {
			return
		}
		s := text.String()
		if r.Format.AllCaps {
			s = strings.ToUpper(s)
		}
		content = append(content, hlz.Text(s))
		hasText = true
		text.Reset()
	}
	for _, c := range r.Children {
		switch v := c.(type) {
		case *docmodel.Text:
			text.WriteString(v.Value)
		case *docmodel.Tab:
			text.WriteByte('\t')
		case *docmodel.Checkbox:
			text.WriteString(docmodel.CheckboxGlyph(v.Checked))
		default:
			flushText()
			content = append(content, e.inline(c, pos)...)
		}
	}
	flushText()
	if !hasText {
		return content
	}
	tags := e.formatTags(r.Format, pos)
	for i := len(tags) - 1; i >= 0; i-- {
		content = []*hlz.Node{hlz.Elem(tags[i]).Append(content...)}
	}
	return content
}

// formatTags returns the inline wrappers for f, outermost first: highlight,
// b, i, u, then sup or sub.
func (e *engine) formatTags(f docmodel.Format, pos string) []string {
	var tags []string
	if f.Highlight != "" {
		if tag, ok := e.sm.Highlight(f.Highlight); ok {
			tags = append(tags, tag)
		} else {
			e.rep.Warnf(pos, "highlight color %q has no tag", f.Highlight)
		}
	}
	if f.Bold {
		tags = append(tags, "b")
	}
	if f.Italic {
		tags = append(tags, "i")
	}
	if f.Underline {
		tags = append(tags, "u")
	}
	switch f.VertAlign {
	case "superscript":
		tags = append(tags, "sup")
	case "subscript":
		tags = append(tags, "sub")
	}
	return tags
}

// inline converts a non-run inline node.
func (e *engine) inline(n docmodel.Node, pos string) []*hlz.Node {
	switch v := n.(type) {
	case *docmodel.Text:
		return []*hlz.Node{hlz.Text(v.Value)}
	case *docmodel.Tab:
		return []*hlz.Node{hlz.Text("\t")}
	case *docmodel.Checkbox:
		return []*hlz.Node{hlz.Text(docmodel.CheckboxGlyph(v.Checked))}
	case *docmodel.Break:
		if v.Kind == docmodel.BreakLine {
			return []*hlz.Node{hlz.Empty("br")}
		}
		return nil
	case *docmodel.Image:
		return []*hlz.Node{e.image(v)}
	case *docmodel.Math:
		return []*hlz.Node{e.math(v)}
	case *docmodel.MathPara:
		var out []*hlz.Node
		for _, m := range v.Children {
			out = append(out, e.math(m))
		}
		return out
	case *docmodel.Run:
		return e.run(v, pos)
	}
	return nil
}

func (e *engine) image(img *docmodel.Image) *hlz.Node {
	id := fmt.Sprintf("i%04d", len(e.res.Images)+1)
	node := hlz.Empty("img",
		hlz.Attr{Name: "id", Value: id},
		hlz.Attr{Name: "he", Value: strconv.Itoa(img.HeightMM)},
		hlz.Attr{Name: "wi", Value: strconv.Itoa(img.WidthMM)},
	)
	ref := ImageRef{ID: id, Image: img}
	if img.Source != "" {
		ref.File = "images/" + e.uniqueName(path.Base(strings.ReplaceAll(img.Source, `\`, "/")), id)
		node.SetAttr("file", ref.File)
	}
	node.SetAttr("img-format", imageFormat(img))
	e.res.Images = append(e.res.Images, ref)
	e.rep.Inc(report.CountImage, 1)
	return node
}

func (e *engine) uniqueName(name, id string) string {
	if e.images[name] {
		name = id + "_" + name
	}
	e.images[name] = true
	return name
}

var formatByType = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/bmp":     "bmp",
	"image/tiff":    "tif",
	"image/x-emf":   "emf",
	"image/x-wmf":   "wmf",
	"image/svg+xml": "svg",
}

func imageFormat(img *docmodel.Image) string {
	if f, ok := formatByType[img.ContentType]; ok {
		return f
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(img.Source), "."))
	switch ext {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	}
	return ext
}

func (e *engine) math(m *docmodel.Math) *hlz.Node {
	num := fmt.Sprintf("%04d", len(e.res.Maths)+1)
	node := hlz.Empty("maths",
		hlz.Attr{Name: "num", Value: num},
		hlz.Attr{Name: "latex", Value: m.LaTeX},
	)
	ref := MathRef{Num: num, Math: m}
	if m.SVG != "" {
		ref.File = "math/m" + num + ".svg"
		node.SetAttr("file", ref.File)
	}
	e.res.Maths = append(e.res.Maths, ref)
	e.rep.Inc(report.CountMath, 1)
	return node
}
