package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/hlzconv/internal/diff"
)

func TestFreeze_JSONShape(t *testing.T) {
	c := NewContext()
	c.AddNumbers(CountClaim, "1", "2")
	c.Warnf("block 2", "unresolved paragraph style %q", "x")
	r := c.Freeze(nil)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var back map[string]json.RawMessage
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"counting", "inspections", "diff", "diff_stats"} {
		if _, ok := back[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	if string(back["diff"]) != "[]" {
		t.Errorf("expected empty diff array, got %s", back["diff"])
	}
	if !strings.Contains(string(back["counting"]), `"reference_numbers":["1","2"]`) {
		t.Errorf("expected claim numbers in counting, got %s", back["counting"])
	}
}

func TestMarkdown_Sections(t *testing.T) {
	c := NewContext()
	c.Warnf("block 1", "style a|b")
	lines := diff.Compare([]string{"A", "커버는 상부"}, []string{"A", "커버는 하부", "new"}, diff.Options{})
	md := c.Freeze(lines).Markdown("출원서_v2.docx")

	for _, want := range []string{
		"# QC report: 출원서\\_v2.docx",
		"| paragraph | 0 |  |",
		`style a\|b`,
		"1 same, 1 modified, 0 deleted, 1 added.",
		"- **modified**: 커버는 ~~상~~**하**부",
		"- **added**: new",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, md)
		}
	}
}

func TestHTML_Renders(t *testing.T) {
	c := NewContext()
	c.Errorf("math 1", "math rendering failed: <timeout>")
	out, err := c.Freeze(nil).HTML("doc <1>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := string(out)
	if !strings.Contains(page, "<title>doc &lt;1&gt;</title>") {
		t.Errorf("expected escaped title, got %s", page)
	}
	if !strings.Contains(page, "<table>") {
		t.Errorf("expected rendered table, got %s", page)
	}
	if strings.Contains(page, "<timeout>") {
		t.Errorf("expected message to be escaped, got %s", page)
	}
}
