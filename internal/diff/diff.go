// Package diff compares the reference text of a document with the text
// generated from it, line by line and then within changed lines.
package diff

import (
	"regexp"
	"strings"
	"unicode"
)

// OpKind is the kind of an edit operation.
type OpKind string

const (
	OpDelete OpKind = "delete"
	OpEqual  OpKind = "equal"
	OpInsert OpKind = "insert"
)

// Op is one span of a character- or word-level diff.
type Op struct {
	Kind OpKind `json:"op"`
	Text string `json:"text"`
}

// LineKind classifies a diff line.
type LineKind string

const (
	Same     LineKind = "same"
	Deleted  LineKind = "deleted"
	Added    LineKind = "added"
	Modified LineKind = "modified"
)

// Line is one entry of the diff report. For Modified lines Content is the
// reference line and Ops rebuild both sides.
type Line struct {
	Kind    LineKind `json:"kind"`
	Content string   `json:"content"`
	Ops     []Op     `json:"ops,omitempty"`
}

// DefaultMaxCells bounds the LCS table size.
const DefaultMaxCells = 4_000_000

// Options controls the diff.
type Options struct {
	// MaxCells bounds len(a)*len(b) for one LCS table. Over budget, lines
	// degrade to Deleted+Added and changed lines to word tokens, then to a
	// whole-line replace.
	MaxCells int
	// MinSimilarity is the share of equal characters below which an aligned
	// pair is reported as Deleted+Added rather than Modified.
	MinSimilarity float64
}

func (o Options) withDefaults() Options {
	if o.MaxCells <= 0 {
		o.MaxCells = DefaultMaxCells
	}
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = 0.3
	}
	return o
}

// Compare diffs normalized reference lines against normalized generated
// lines. Output follows reference order with added lines interleaved at
// their alignment position.
func Compare(reference, generated []string, opts Options) []Line {
	opts = opts.withDefaults()
	a, b := Normalize(reference), Normalize(generated)

	var out []Line
	pre := 0
	for pre < len(a) && pre < len(b) && a[pre] == b[pre] {
		out = append(out, Line{Kind: Same, Content: a[pre]})
		pre++
	}
	suf := 0
	for suf < len(a)-pre && suf < len(b)-pre && a[len(a)-1-suf] == b[len(b)-1-suf] {
		suf++
	}
	midA, midB := a[pre:len(a)-suf], b[pre:len(b)-suf]

	if len(midA)*len(midB) > opts.MaxCells {
		for _, l := range midA {
			out = append(out, Line{Kind: Deleted, Content: l})
		}
		for _, l := range midB {
			out = append(out, Line{Kind: Added, Content: l})
		}
	} else {
		out = append(out, alignLines(midA, midB, opts)...)
	}

	for _, l := range a[len(a)-suf:] {
		out = append(out, Line{Kind: Same, Content: l})
	}
	return out
}

// alignLines turns a line-level LCS into diff lines. Within each gap
// between equal lines, deletions and additions are paired in order.
func alignLines(a, b []string, opts Options) []Line {
	var out []Line
	var dels, adds []string
	flush := func() {
		n := min(len(dels), len(adds))
		for i := 0; i < n; i++ {
			out = append(out, pairLines(dels[i], adds[i], opts)...)
		}
		for _, l := range dels[n:] {
			out = append(out, Line{Kind: Deleted, Content: l})
		}
		for _, l := range adds[n:] {
			out = append(out, Line{Kind: Added, Content: l})
		}
		dels, adds = dels[:0], adds[:0]
	}
	for _, e := range lcs(a, b) {
		switch e.kind {
		case OpEqual:
			flush()
			out = append(out, Line{Kind: Same, Content: a[e.ai]})
		case OpDelete:
			dels = append(dels, a[e.ai])
		case OpInsert:
			adds = append(adds, b[e.bi])
		}
	}
	flush()
	return out
}

func pairLines(ref, gen string, opts Options) []Line {
	ops := Chars(ref, gen, opts.MaxCells)
	if similarity(ops, ref, gen) < opts.MinSimilarity {
		return []Line{{Kind: Deleted, Content: ref}, {Kind: Added, Content: gen}}
	}
	return []Line{{Kind: Modified, Content: ref, Ops: ops}}
}

func similarity(ops []Op, a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1
	}
	equal := 0
	for _, op := range ops {
		if op.Kind == OpEqual {
			equal += len([]rune(op.Text))
		}
	}
	return float64(2*equal) / float64(total)
}

// Chars diffs two strings by characters, falling back to word tokens and
// then to a whole replace when the table would exceed maxCells.
func Chars(a, b string, maxCells int) []Op {
	ra, rb := []rune(a), []rune(b)
	if len(ra)*len(rb) <= maxCells {
		return collect(lcs(ra, rb), func(e edit) string {
			if e.kind == OpInsert {
				return string(rb[e.bi])
			}
			return string(ra[e.ai])
		})
	}
	ta, tb := tokenize(a), tokenize(b)
	if len(ta)*len(tb) <= maxCells {
		return collect(lcs(ta, tb), func(e edit) string {
			if e.kind == OpInsert {
				return tb[e.bi]
			}
			return ta[e.ai]
		})
	}
	var ops []Op
	if a != "" {
		ops = append(ops, Op{Kind: OpDelete, Text: a})
	}
	if b != "" {
		ops = append(ops, Op{Kind: OpInsert, Text: b})
	}
	return ops
}

// collect merges consecutive edits of the same kind into spans.
func collect(edits []edit, text func(edit) string) []Op {
	var ops []Op
	for _, e := range edits {
		t := text(e)
		if n := len(ops); n > 0 && ops[n-1].Kind == e.kind {
			ops[n-1].Text += t
			continue
		}
		ops = append(ops, Op{Kind: e.kind, Text: t})
	}
	return ops
}

// tokenize splits s into alternating runs of spaces and non-spaces, so
// concatenating the tokens gives s back.
func tokenize(s string) []string {
	var tokens []string
	start := 0
	prevSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i > 0 && space != prevSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		prevSpace = space
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

var paragraphNumber = regexp.MustCompile(`^[【\[]\d{4,5}[】\]]\s*`)

// Normalize prepares lines for comparison: embedded newlines split lines,
// paragraph-number prefixes are removed, whitespace is collapsed and empty
// lines are dropped.
func Normalize(lines []string) []string {
	var out []string
	for _, l := range lines {
		for _, part := range strings.Split(l, "\n") {
			part = strings.TrimSpace(part)
			part = paragraphNumber.ReplaceAllString(part, "")
			part = strings.Join(strings.Fields(part), " ")
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Reference rebuilds the reference side of a diff.
func Reference(lines []Line) string {
	return side(lines, Added, OpInsert)
}

// Generated rebuilds the generated side of a diff.
func Generated(lines []Line) string {
	return side(lines, Deleted, OpDelete)
}

func side(lines []Line, skipLine LineKind, skipOp OpKind) string {
	var parts []string
	for _, l := range lines {
		switch {
		case l.Kind == skipLine:
		case l.Kind == Modified:
			var sb strings.Builder
			for _, op := range l.Ops {
				if op.Kind != skipOp {
					sb.WriteString(op.Text)
				}
			}
			parts = append(parts, sb.String())
		default:
			parts = append(parts, l.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Stats counts lines per kind.
type Stats struct {
	Same     int `json:"same"`
	Deleted  int `json:"deleted"`
	Added    int `json:"added"`
	Modified int `json:"modified"`
}

// Summarize counts diff lines per kind.
func Summarize(lines []Line) Stats {
	var s Stats
	for _, l := range lines {
		switch l.Kind {
		case Same:
			s.Same++
		case Deleted:
			s.Deleted++
		case Added:
			s.Added++
		case Modified:
			s.Modified++
		}
	}
	return s
}
