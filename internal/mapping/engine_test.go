package mapping

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/hlzconv/internal/docmodel"
	"github.com/dgallion1/hlzconv/internal/hlz"
	"github.com/dgallion1/hlzconv/internal/report"
)

func para(texts ...string) *docmodel.Paragraph {
	p := &docmodel.Paragraph{}
	for _, t := range texts {
		p.Children = append(p.Children, &docmodel.Run{Children: []docmodel.Node{&docmodel.Text{Value: t}}})
	}
	return p
}

func doc(nodes ...docmodel.Node) *docmodel.Document {
	return &docmodel.Document{Children: nodes}
}

func mapDoc(t *testing.T, d *docmodel.Document) (*Result, *report.Context, string) {
	t.Helper()
	rep := report.NewContext()
	res := Map(d, nil, rep)
	return res, rep, hlz.Marshal(res.Root, hlz.Options{})
}

func hasMessage(rep *report.Context, kind report.MsgKind, substr string) bool {
	for _, m := range rep.Inspections() {
		if m.Kind == kind && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

func TestMap_NumberingRestartsPerSection(t *testing.T) {
	_, rep, got := mapDoc(t, doc(
		para("【발명의 설명】"), para("a"), para("b"),
		para("【발명의 설명】"), para("c"),
	))
	want := `<PatentCAFDOC><description><p num="0001">a</p><p num="0002">b</p></description>` +
		`<description><p num="0001">c</p></description></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	for _, c := range rep.Counting() {
		if c.Kind == report.CountParagraph && c.Count != 3 {
			t.Errorf("expected 3 paragraphs counted, got %d", c.Count)
		}
	}
}

func TestMap_ForbiddenInsideNumberingSection(t *testing.T) {
	_, _, got := mapDoc(t, doc(
		para("【발명의 설명】"),
		para("【발명의 명칭】"), para("스프링 장치"),
		para("【기술분야】"), para("본 발명은"),
		para("【해결하고자 하는 과제】"), para("과제"),
	))
	want := `<PatentCAFDOC><description>` +
		`<invention-title><p>스프링 장치</p></invention-title>` +
		`<technical-field><p num="0001">본 발명은</p><tech-problem><p num="0002">과제</p></tech-problem></technical-field>` +
		`</description></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestMap_TierStackClosesSiblings(t *testing.T) {
	res, _, _ := mapDoc(t, doc(
		para("【발명의 설명】"),
		para("【발명의 내용】"),
		para("【해결하고자 하는 과제】"),
		para("【발명의 효과】"),
		para("【청구범위】"),
		para("【청구항 1】"),
		para("【청구항 2】"),
	))
	type entry struct {
		depth int
		tag   string
	}
	var got []entry
	for _, o := range res.Outline {
		got = append(got, entry{o.Depth, o.Tag})
	}
	want := []entry{
		{0, "description"}, {1, "summary-of-invention"}, {2, "tech-problem"},
		{2, "advantageous-effects"}, {0, "claims"}, {1, "claim"}, {1, "claim"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMap_BareTitleIsBodyText(t *testing.T) {
	res, _, got := mapDoc(t, doc(
		para("【발명의 설명】"), para("【기술분야】"), para("a"), para("요약"), para("b"),
	))
	want := `<PatentCAFDOC><description><technical-field><p num="0001">a</p><p num="0002">요약</p>` +
		`<p num="0003">b</p></technical-field></description></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if len(res.Outline) != 2 {
		t.Errorf("expected 2 outline entries, got %v", res.Outline)
	}
}

func TestMap_SplitKeepsBlankLineBetweenBreaks(t *testing.T) {
	p := &docmodel.Paragraph{Children: []docmodel.Node{&docmodel.Run{Children: []docmodel.Node{
		&docmodel.Break{Kind: docmodel.BreakLine},
		&docmodel.Text{Value: "a"}, &docmodel.Break{Kind: docmodel.BreakLine},
		&docmodel.Break{Kind: docmodel.BreakLine}, &docmodel.Text{Value: "b"},
		&docmodel.Break{Kind: docmodel.BreakLine},
	}}}}
	_, _, got := mapDoc(t, doc(para("【청구범위】"), para("【청구항 1】"), p))
	want := `<PatentCAFDOC><claims><claim num="1"><claim-text>a</claim-text><claim-text></claim-text>` +
		`<claim-text>b</claim-text></claim></claims></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestMap_SplitOnLineBreak(t *testing.T) {
	withBreak := func() *docmodel.Paragraph {
		return &docmodel.Paragraph{Children: []docmodel.Node{&docmodel.Run{Children: []docmodel.Node{
			&docmodel.Text{Value: "a"}, &docmodel.Break{Kind: docmodel.BreakLine}, &docmodel.Text{Value: "b"},
			&docmodel.Break{Kind: docmodel.BreakLine},
		}}}}
	}
	_, rep, got := mapDoc(t, doc(
		para("【발명의 설명】"), withBreak(),
		para("【청구범위】"), para("【청구항 1】"), withBreak(),
	))
	want := `<PatentCAFDOC><description><p num="0001">a<br/>b<br/></p></description>` +
		`<claims><claim num="1"><claim-text>a</claim-text><claim-text>b</claim-text></claim></claims></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	for _, c := range rep.Counting() {
		if c.Kind == report.CountClaim && (c.Count != 1 || !reflect.DeepEqual(c.Numbers, []string{"1"})) {
			t.Errorf("unexpected claim count %+v", c)
		}
	}
}

func TestMap_InlineWrapperOrder(t *testing.T) {
	f := docmodel.Format{Bold: true, Italic: true, Underline: true, VertAlign: "superscript", Highlight: "yellow"}
	p := &docmodel.Paragraph{Children: []docmodel.Node{
		&docmodel.Run{Format: f, Children: []docmodel.Node{&docmodel.Text{Value: "x"}}},
		&docmodel.Run{Format: f, Children: []docmodel.Node{&docmodel.Text{Value: "y"}}},
		&docmodel.Run{Format: docmodel.Format{VertAlign: "subscript", AllCaps: true}, Children: []docmodel.Node{&docmodel.Text{Value: "z"}}},
	}}
	_, _, got := mapDoc(t, doc(p))
	want := `<PatentCAFDOC><p><hl-yellow><b><i><u><sup>xy</sup></u></i></b></hl-yellow><sub>Z</sub></p></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestMap_EmptyParagraphIsKept(t *testing.T) {
	_, _, got := mapDoc(t, doc(para("【발명의 설명】"), &docmodel.Paragraph{}))
	want := `<PatentCAFDOC><description><p num="0001"></p></description></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestMap_UnresolvedStyles(t *testing.T) {
	p := para("text")
	p.StyleID, p.StyleName = "Weird", "이상한 스타일"
	p.Children = append(p.Children,
		&docmodel.Run{StyleID: "a0", StyleName: "Default Paragraph Font", Children: []docmodel.Node{&docmodel.Text{Value: "x"}}},
		&docmodel.Run{StyleID: "Hyperlink", StyleName: "Hyperlink", Children: []docmodel.Node{&docmodel.Text{Value: "y"}}},
		&docmodel.Run{StyleID: "Odd", StyleName: "Odd Char", Children: []docmodel.Node{&docmodel.Text{Value: "z"}}},
	)
	normal := para("ok")
	normal.StyleID, normal.StyleName = "a", "표준"

	_, rep, got := mapDoc(t, doc(p, normal, para("【알 수 없는 제목】")))
	if !strings.Contains(got, "<p>textxyz</p>") {
		t.Errorf("expected default mapping to keep text, got %s", got)
	}
	if !hasMessage(rep, report.KindWarning, `unresolved paragraph style "이상한 스타일"`) {
		t.Error("expected unresolved paragraph style warning")
	}
	if !hasMessage(rep, report.KindWarning, `unresolved character style "Odd Char"`) {
		t.Error("expected unresolved character style warning")
	}
	if hasMessage(rep, report.KindWarning, "Default Paragraph Font") || hasMessage(rep, report.KindWarning, "표준") {
		t.Error("expected known and pass-through styles to be silent")
	}
	if !hasMessage(rep, report.KindWarning, `unresolved section heading "【알 수 없는 제목】"`) {
		t.Error("expected unresolved heading warning")
	}
}

func TestMap_TableHeadBody(t *testing.T) {
	cell := func(text string, rowSpan int) *docmodel.TableCell {
		return &docmodel.TableCell{ColSpan: 1, RowSpan: rowSpan, Children: []docmodel.Node{para(text)}}
	}
	split := &docmodel.Table{Rows: []*docmodel.TableRow{
		{Header: true, Cells: []*docmodel.TableCell{cell("A", 1), cell("B", 1)}},
		{Cells: []*docmodel.TableCell{cell("C", 2), cell("D", 1)}},
		{Cells: []*docmodel.TableCell{{RowSpan: 0, VMerge: "continue"}, cell("E", 1)}},
	}}
	allHeader := &docmodel.Table{Rows: []*docmodel.TableRow{
		{Header: true, Cells: []*docmodel.TableCell{cell("H", 1)}},
	}}
	res, rep, got := mapDoc(t, doc(split, allHeader))
	want := `<PatentCAFDOC>` +
		`<p><tables><table><thead><tr><th><p>A</p></th><th><p>B</p></th></tr></thead>` +
		`<tbody><tr><td rowspan="2"><p>C</p></td><td><p>D</p></td></tr><tr><td><p>E</p></td></tr></tbody></table></tables></p>` +
		`<p><tables><table><tr><td><p>H</p></td></tr></table></tables></p>` +
		`</PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if len(res.Root.Elements()) != 2 {
		t.Errorf("expected tables wrapped in paragraphs, got %d root elements", len(res.Root.Elements()))
	}
	for _, c := range rep.Counting() {
		if c.Kind == report.CountTable && c.Count != 2 {
			t.Errorf("expected 2 tables, got %d", c.Count)
		}
	}
}

func TestMap_ParagraphNumberPrefix(t *testing.T) {
	_, rep, got := mapDoc(t, doc(
		para("【발명의 설명】"),
		para("【0001】 first"),
		para("【", "0005", "】second"),
	))
	want := `<PatentCAFDOC><description><p num="0001">first</p><p num="0002">second</p></description></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if !hasMessage(rep, report.KindWarning, "paragraph number 0005 renumbered to 0002") {
		t.Error("expected renumbering warning")
	}
	if hasMessage(rep, report.KindWarning, "0001 renumbered") {
		t.Error("expected no warning for matching number")
	}
}

func TestMap_ReferenceSigns(t *testing.T) {
	res, rep, _ := mapDoc(t, doc(
		para("【발명의 설명】"),
		para("【발명을 실시하기 위한 구체적인 내용】"),
		para("커버(10)와 스프링(30)"),
		para("【부호의 설명】"),
		para("상부 커버(10), 봉(2)"),
		para("커버(10)"),
	))
	var got []string
	for _, e := range res.References {
		got = append(got, e.String())
	}
	want := []string{"봉(2)", "커버(10)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	for _, c := range rep.Counting() {
		if c.Kind == report.CountReferenceSign && !reflect.DeepEqual(c.Numbers, []string{"2", "10"}) {
			t.Errorf("expected reference numbers [2 10], got %v", c.Numbers)
		}
	}
	if !hasMessage(rep, report.KindWarning, "reference number 30 is used in the description") {
		t.Error("expected cross-check warning for 30")
	}
	if hasMessage(rep, report.KindWarning, "reference number 10 is used") {
		t.Error("expected no cross-check warning for 10")
	}
}

func TestMap_ReferenceSignsWithoutCommonSuffix(t *testing.T) {
	res, rep, _ := mapDoc(t, doc(
		para("【발명의 설명】"),
		para("【부호의 설명】"),
		para("커버(3)"),
		para("스프링(3)"),
	))
	if len(res.References) != 1 || res.References[0].String() != "스프링(3)" {
		t.Errorf("expected [스프링(3)], got %v", res.References)
	}
	if !hasMessage(rep, report.KindWarning, "labels for reference number 3 share no common suffix") {
		t.Errorf("expected empty-merge warning, got %+v", rep.Inspections())
	}
}

func TestMap_ImagesAndMath(t *testing.T) {
	p := &docmodel.Paragraph{Children: []docmodel.Node{
		&docmodel.Run{Children: []docmodel.Node{&docmodel.Image{Source: "word/media/image1.png", ContentType: "image/png", WidthMM: 25, HeightMM: 10}}},
		&docmodel.Math{LaTeX: `x^{2}`, SVG: "<svg/>"},
		&docmodel.Math{LaTeX: `y`},
	}}
	res, _, got := mapDoc(t, doc(p))
	want := `<PatentCAFDOC><p><img id="i0001" he="10" wi="25" file="images/image1.png" img-format="png"/>` +
		`<maths num="0001" latex="x^{2}" file="math/m0001.svg"/><maths num="0002" latex="y"/></p></PatentCAFDOC>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if len(res.Images) != 1 || res.Images[0].File != "images/image1.png" {
		t.Errorf("unexpected image refs %+v", res.Images)
	}
	if len(res.Maths) != 2 || res.Maths[1].File != "" {
		t.Errorf("unexpected math refs %+v", res.Maths)
	}
}

func TestMap_ClassificationIsIdempotent(t *testing.T) {
	first, _, _ := mapDoc(t, doc(
		para("【발명의 설명】"),
		para("【발명의 명칭】"), para("장치"),
		para("【기술분야】"), para("본 발명은 커버(10)에 관한 것이다."),
		para("【발명의 내용】"),
		para("【해결하고자 하는 과제】"), para("과제"),
		para("【부호의 설명】"), para("커버(10)"),
		para("【청구범위】"),
		para("【청구항 1】"), para("커버를 포함하는 장치."),
		para("【청구항 2】"), para("제1항에 있어서."),
		para("【요약서】"), para("【요약】"), para("요약문"),
		para("【대표도】"), para("도 1"),
		para("【도면】"), para("【도 1】"),
	))
	var again []docmodel.Node
	for _, line := range Lines(first.Root) {
		again = append(again, para(line))
	}
	second, _, _ := mapDoc(t, doc(again...))

	strip := func(o []OutlineEntry) []OutlineEntry {
		out := make([]OutlineEntry, len(o))
		for i, e := range o {
			out[i] = OutlineEntry{Depth: e.Depth, Tag: e.Tag, Num: e.Num}
		}
		return out
	}
	if !reflect.DeepEqual(strip(first.Outline), strip(second.Outline)) {
		t.Errorf("expected same classification, got %v and %v", first.Outline, second.Outline)
	}
	if hlz.Marshal(first.Root, hlz.Options{}) != hlz.Marshal(second.Root, hlz.Options{}) {
		t.Error("expected identical trees after reclassification")
	}
}
