package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/hlzconv/internal/diff"
)

// Reports is the frozen output of one conversion.
type Reports struct {
	Counting    []CountInfo     `json:"counting"`
	Inspections []InspectionMsg `json:"inspections"`
	Diff        []diff.Line     `json:"diff"`
	DiffStats   diff.Stats      `json:"diff_stats"`
}

// Freeze snapshots the context together with the diff report.
func (c *Context) Freeze(lines []diff.Line) *Reports {
	if lines == nil {
		lines = []diff.Line{}
	}
	return &Reports{
		Counting:    c.Counting(),
		Inspections: c.Inspections(),
		Diff:        lines,
		DiffStats:   diff.Summarize(lines),
	}
}

// maxDiffLines caps the changed lines listed in the summary.
const maxDiffLines = 200

// Markdown renders a human-readable QC summary.
func (r *Reports) Markdown(title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# QC report: %s\n\n", mdEscape(title))

	sb.WriteString("## Counts\n\n| Kind | Count | Reference numbers |\n|---|---:|---|\n")
	for _, c := range r.Counting {
		fmt.Fprintf(&sb, "| %s | %d | %s |\n", c.Kind, c.Count, mdEscape(strings.Join(c.Numbers, ", ")))
	}

	sb.WriteString("\n## Inspections\n\n")
	if len(r.Inspections) == 0 {
		sb.WriteString("No findings.\n")
	} else {
		sb.WriteString("| Kind | Position | Message |\n|---|---|---|\n")
		for _, m := range r.Inspections {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", m.Kind, mdEscape(m.Position), mdEscape(m.Message))
		}
	}

	s := r.DiffStats
	fmt.Fprintf(&sb, "\n## Diff\n\n%d same, %d modified, %d deleted, %d added.\n\n", s.Same, s.Modified, s.Deleted, s.Added)
	listed := 0
	for _, l := range r.Diff {
		if l.Kind == diff.Same {
			continue
		}
		if listed == maxDiffLines {
			fmt.Fprintf(&sb, "\n%d more changed lines not shown.\n", s.Modified+s.Deleted+s.Added-listed)
			break
		}
		listed++
		switch l.Kind {
		case diff.Deleted:
			fmt.Fprintf(&sb, "- **deleted**: %s\n", mdEscape(l.Content))
		case diff.Added:
			fmt.Fprintf(&sb, "- **added**: %s\n", mdEscape(l.Content))
		case diff.Modified:
			fmt.Fprintf(&sb, "- **modified**: %s\n", opsMarkdown(l.Ops))
		}
	}
	return sb.String()
}

// opsMarkdown shows deletions struck through and insertions in bold.
func opsMarkdown(ops []diff.Op) string {
	var sb strings.Builder
	for _, op := range ops {
		t := mdEscape(op.Text)
		if strings.TrimSpace(t) == "" {
			sb.WriteString(t)
			continue
		}
		switch op.Kind {
		case diff.OpDelete:
			sb.WriteString("~~" + t + "~~")
		case diff.OpInsert:
			sb.WriteString("**" + t + "**")
		default:
			sb.WriteString(t)
		}
	}
	return sb.String()
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`, "~", `\~`, "\n", " ",
)

func mdEscape(s string) string { return mdEscaper.Replace(s) }

var md = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// HTML renders the Markdown summary as a standalone HTML page.
func (r *Reports) HTML(title string) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown(title)), &body); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title>
<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2px 8px}del{color:#b00}strong{color:#070}</style>
</head><body>
`, html.EscapeString(title))
	out.Write(body.Bytes())
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}
