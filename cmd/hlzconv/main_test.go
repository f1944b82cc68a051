package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/hlzconv/internal/diff"
	"github.com/dgallion1/hlzconv/internal/docpkg"
	"github.com/dgallion1/hlzconv/internal/mapping"
	"github.com/dgallion1/hlzconv/internal/report"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeDocx(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<w:document xmlns:w="w"><w:body>` +
		`<w:p><w:r><w:t>【발명의 설명】</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>【기술분야】</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>본문</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>【청구범위】</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>【청구항 1】</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>【없는 제목】</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	zw.Close()
	return writeFile(t, dir, "출원.docx", buf.String())
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "【0001】 같은 줄\n장치(10)를 포함한다\n지워진 줄 입니다 아주 길게\n")
	gen := writeFile(t, dir, "gen.txt", "같은 줄\n장치(12)를 포함한다\n")

	out, _, err := run(t, "diff", ref, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "  같은 줄\n~ 장치(1[-0-]{+2+})를 포함한다\n- 지워진 줄 입니다 아주 길게\n"
	if out != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, out)
	}

	out, _, err = run(t, "diff", "--json", ref, gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var lines []diff.Line
	if err := json.Unmarshal([]byte(out), &lines); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lines) != 3 || lines[1].Kind != diff.Modified {
		t.Errorf("unexpected json diff %+v", lines)
	}

	if _, _, err := run(t, "diff", ref); err == nil {
		t.Error("expected argument error")
	}
}

func TestSectionsCommand(t *testing.T) {
	path := writeDocx(t, t.TempDir())
	out, errOut, err := run(t, "sections", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"description", "  technical-field", "claims", "  claim 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected outline to contain %q, got:\n%s", want, out)
		}
	}
	if !strings.Contains(errOut, "없는 제목") {
		t.Errorf("expected unresolved heading warning, got %q", errOut)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir)
	reports := filepath.Join(dir, "reports.json")

	out, _, err := run(t, "convert", path, "--no-diff", "--reports", reports)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bundlePath := filepath.Join(dir, "출원.zip")
	if !strings.Contains(out, "Wrote "+bundlePath) {
		t.Errorf("expected summary to name the bundle, got %q", out)
	}
	pkg, err := docpkg.OpenFile(bundlePath)
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	if !pkg.Has("출원.hlz") {
		t.Errorf("expected 출원.hlz in bundle, got %q", pkg.Names())
	}

	data, err := os.ReadFile(reports)
	if err != nil {
		t.Fatalf("read reports: %v", err)
	}
	var r report.Reports
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(r.Counting) == 0 {
		t.Error("expected counting report")
	}
}

func TestConvertCommand_FatalFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.docx", "not a zip")
	_, _, err := run(t, "convert", path)
	if err == nil || !strings.Contains(err.Error(), "invalid_input") {
		t.Fatalf("expected invalid_input failure, got %v", err)
	}
}

func TestWriteOutline(t *testing.T) {
	var buf bytes.Buffer
	writeOutline(&buf, []mapping.OutlineEntry{
		{Depth: 0, Tag: "claims", Text: "【청구범위】"},
		{Depth: 1, Tag: "claim", Num: "2", Text: " 【청구항 2】 "},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "  claim 2 ") || !strings.HasSuffix(lines[1], "【청구항 2】") {
		t.Errorf("unexpected outline line %q", lines[1])
	}
}
