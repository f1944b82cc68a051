package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/hlzconv/internal/config"
	"github.com/dgallion1/hlzconv/internal/diff"
	"github.com/dgallion1/hlzconv/internal/docpkg"
	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/mathrender"
	"github.com/dgallion1/hlzconv/internal/refsource"
	"github.com/dgallion1/hlzconv/internal/report"
	"github.com/dgallion1/hlzconv/internal/sections"
)

const relsNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

const testBody = `
<w:p><w:r><w:t>【발명의 설명】</w:t></w:r></w:p>
<w:p><w:r><w:t>본 발명은 장치(10)에 관한 것이다.</w:t></w:r></w:p>
<w:p><w:r><w:drawing><wp:inline><wp:extent cx="360000" cy="720000"/><a:blip r:embed="rId5"/></wp:inline></w:drawing></w:r></w:p>
<w:p><m:oMath><m:r><m:t>x</m:t></m:r></m:oMath></w:p>
<w:p><w:r><w:t>【청구범위】</w:t></w:r></w:p>
<w:p><w:r><w:t>【청구항 1】</w:t></w:r></w:p>
<w:p><w:r><w:t>장치(10).</w:t></w:r></w:p>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	files := []struct{ name, data string }{
		{"[Content_Types].xml", `<Types><Default Extension="png" ContentType="image/png"/></Types>`},
		{"_rels/.rels", `<Relationships><Relationship Id="rId1" Type="` + relsNS + `/officeDocument" Target="word/document.xml"/></Relationships>`},
		{"word/_rels/document.xml.rels", `<Relationships>
			<Relationship Id="rId1" Type="` + relsNS + `/styles" Target="styles.xml"/>
			<Relationship Id="rId5" Type="` + relsNS + `/image" Target="media/image1.png"/>
		</Relationships>`},
		{"word/styles.xml", `<w:styles xmlns:w="w"><w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style></w:styles>`},
		{"word/document.xml", `<w:document xmlns:w="w" xmlns:m="m" xmlns:wp="wp" xmlns:a="a" xmlns:r="r"><w:body>` + body + `</w:body></w:document>`},
		{"word/media/image1.png", "\x89PNG"},
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("create %s: %v", f.name, err)
		}
		w.Write([]byte(f.data))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, latex string) (string, error) {
	return "<svg>" + latex + "</svg>", nil
}

type stubExtractor struct {
	paras []string
	err   error
}

func (s stubExtractor) Paragraphs(context.Context, []byte) ([]string, error) { return s.paras, s.err }

func hasMessage(r *report.Reports, kind report.MsgKind, substr string) bool {
	for _, m := range r.Inspections {
		if m.Kind == kind && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

func TestConvert_Bundle(t *testing.T) {
	res, err := Convert(context.Background(), buildDocx(t, testBody), "출원서.docx", Options{
		Renderer: stubRenderer{},
		Extractor: stubExtractor{paras: []string{
			"【발명의 설명】", "【0001】 본 발명은 장치(10)에 관한 것이다.", "【청구범위】", "【청구항 1】", "장치(10).",
		}},
		Fin: func(_ context.Context, hlz []byte) ([]byte, error) { return []byte("FIN"), nil },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Name != "출원서" {
		t.Errorf("expected name 출원서, got %q", res.Name)
	}

	hlz := string(res.HLZ)
	for _, want := range []string{
		`<p num="0001">본 발명은 장치(10)에 관한 것이다.</p>`,
		`<img id="i0001" he="20" wi="10" file="images/image1.png" img-format="png"/>`,
		`<maths num="0001" latex="x" file="math/m0001.svg"/>`,
		`<claim num="1">`,
	} {
		if !strings.Contains(hlz, want) {
			t.Errorf("expected HLZ to contain %s, got:\n%s", want, hlz)
		}
	}

	pkg, err := docpkg.Open(res.Bundle)
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	want := []string{"출원서.hlz", "출원서.fin", "images/image1.png", "math/m0001.svg", "report.json", "report.html"}
	if got := pkg.Names(); !slices.Equal(got, want) {
		t.Errorf("expected entries %q, got %q", want, got)
	}
	svg, _ := pkg.Read("math/m0001.svg")
	if string(svg) != "<svg>x</svg>" {
		t.Errorf("expected rendered svg, got %q", svg)
	}

	if res.Reports.DiffStats != (diff.Stats{Same: 5}) {
		t.Errorf("expected 5 same lines, got %+v", res.Reports.DiffStats)
	}
	raw, _ := pkg.Read("report.json")
	var decoded report.Reports
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode report.json: %v", err)
	}
	if len(decoded.Counting) == 0 {
		t.Errorf("expected counting report in bundle")
	}
	if len(res.Outline) == 0 || res.Outline[0].Tag != sections.TagDescription {
		t.Errorf("expected outline to start with description, got %+v", res.Outline)
	}
}

func TestConvert_WithoutCollaborators(t *testing.T) {
	res, err := Convert(context.Background(), buildDocx(t, testBody), "a.docx", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fin != nil {
		t.Errorf("expected no FIN artifact")
	}
	if strings.Contains(string(res.HLZ), "file=\"math/") {
		t.Errorf("expected unrendered math to have no file attribute")
	}
	for _, note := range []string{"no FIN transform", "no math renderer", "diff skipped"} {
		if !hasMessage(res.Reports, report.KindDeveloperNote, note) {
			t.Errorf("expected developer note %q, got %+v", note, res.Reports.Inspections)
		}
	}
	if len(res.Reports.Diff) != 0 {
		t.Errorf("expected empty diff, got %d lines", len(res.Reports.Diff))
	}
}

func TestConvert_ExtractionFailureDegradesDiff(t *testing.T) {
	res, err := Convert(context.Background(), buildDocx(t, testBody), "a.docx", Options{
		Extractor: stubExtractor{err: errors.New("service down")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Reports.Diff) != 0 {
		t.Errorf("expected empty diff, got %d lines", len(res.Reports.Diff))
	}
	if !hasMessage(res.Reports, report.KindWarning, "service down") {
		t.Errorf("expected extraction warning, got %+v", res.Reports.Inspections)
	}
}

func TestConvert_FatalFailures(t *testing.T) {
	noDocument := func() []byte {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create("readme.txt")
		w.Write([]byte("x"))
		zw.Close()
		return buf.Bytes()
	}()

	corruptPart := func() []byte {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		garbage := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
		w, _ := zw.CreateRaw(&zip.FileHeader{
			Name:               "word/document.xml",
			Method:             zip.Deflate,
			CompressedSize64:   uint64(len(garbage)),
			UncompressedSize64: 100,
		})
		w.Write(garbage)
		zw.Close()
		return buf.Bytes()
	}()

	tests := []struct {
		name string
		data []byte
		kind failure.Kind
	}{
		{"empty", nil, failure.InvalidInput},
		{"corrupt document stream", corruptPart, failure.InvalidInput},
		{"not a zip", []byte("hello"), failure.InvalidInput},
		{"no document part", noDocument, failure.MissingRequiredPart},
		{"broken xml", buildDocx(t, `<w:p>`), failure.MalformedXML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(context.Background(), tt.data, "x.docx", Options{})
			var fe *failure.Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *failure.Error, got %v", err)
			}
			if fe.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, fe.Kind)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"출원서.docx", "출원서"},
		{`C:\drafts\특허.docx`, "특허"},
		{"", "document"},
		{"😀.docx", "document"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := baseName(tt.in, report.NewContext()); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(buildDocx(t, testBody), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var tags []string
	for _, o := range a.Mapped.Outline {
		tags = append(tags, o.Tag)
	}
	want := []string{sections.TagDescription, sections.TagClaims, sections.TagClaim}
	if !slices.Equal(tags, want) {
		t.Errorf("expected outline %q, got %q", want, tags)
	}
}

func TestFromConfig(t *testing.T) {
	opts, err := FromConfig(config.Config{MathRenderConcurrency: 3, DiffMaxCells: 10}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Renderer != nil {
		t.Errorf("expected no renderer without a URL")
	}
	if _, ok := opts.Extractor.(refsource.DocxExtractor); !ok {
		t.Errorf("expected local extractor, got %T", opts.Extractor)
	}

	opts, err = FromConfig(config.Config{MathRendererURL: "http://r", ExtractorURL: "http://x"}, mathrender.NewStats(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := opts.Renderer.(*mathrender.Client); !ok {
		t.Errorf("expected renderer client, got %T", opts.Renderer)
	}
	if got := refsource.Describe(opts.Extractor); got != "html http://x, then docx" {
		t.Errorf("unexpected extractor chain %q", got)
	}

	if _, err := FromConfig(config.Config{StyleMapPath: "/nonexistent.yaml"}, nil); err == nil {
		t.Errorf("expected error for missing style map")
	}
}
