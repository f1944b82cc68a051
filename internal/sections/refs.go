package sections

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/hlzconv/internal/refnum"
)

// Element is a labelled part of the invention and its reference number.
type Element struct {
	Label  string
	Number string
}

func (e Element) String() string { return e.Label + "(" + e.Number + ")" }

var refPattern = regexp.MustCompile(`\(\s*(\d+[A-Za-z]?)\s*\)`)

// labelStops end a label when scanning back from its opening parenthesis.
const labelStops = ",.;:)\n\t、，"

// connectives join two labelled parts: "커버(10) 및 스프링(30)".
var connectives = map[string]bool{
	"및": true, "또는": true, "그리고": true, "혹은": true,
}

// Extract returns every "label(number)" occurrence in text, in order. The
// label is the text between the previous delimiter and the parenthesis.
// Directly after another occurrence, a particle glued to its closing
// parenthesis ("커버(10)와 스프링(30)") and a leading connective word are
// not part of the label.
func Extract(text string) []Element {
	var out []Element
	prev := 0
	for _, loc := range refPattern.FindAllStringSubmatchIndex(text, -1) {
		before := text[prev:loc[0]]
		if i := strings.LastIndexAny(before, labelStops); i >= 0 {
			_, size := utf8.DecodeRuneInString(before[i:])
			before = before[i+size:]
		} else if prev > 0 {
			before = trimJoiner(before)
		}
		out = append(out, Element{
			Label:  strings.TrimSpace(before),
			Number: text[loc[2]:loc[3]],
		})
		prev = loc[1]
	}
	return out
}

func trimJoiner(s string) string {
	words := strings.Fields(s)
	if len(words) < 2 {
		return s
	}
	r, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsSpace(r) || connectives[words[0]] {
		return strings.Join(words[1:], " ")
	}
	return s
}

// Numbers returns the distinct reference numbers used in text.
func Numbers(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// MergeResult is the deduplicated, ordered element list. Empty lists the
// numbers whose variant labels share no common suffix; for those the
// longest variant was kept.
type MergeResult struct {
	Elements []Element
	Empty    []string
}

// Merge deduplicates elements by number. The label for a number is the
// longest common trailing substring of all its labels, trimmed. The result
// is in reference-number order.
func Merge(elems []Element) MergeResult {
	var res MergeResult
	variants := make(map[string][]string)
	var numbers []string
	for _, e := range elems {
		if _, ok := variants[e.Number]; !ok {
			numbers = append(numbers, e.Number)
		}
		variants[e.Number] = append(variants[e.Number], e.Label)
	}

	for _, num := range numbers {
		labels := variants[num]
		label := strings.TrimSpace(commonSuffix(labels))
		if label == "" {
			label = longest(labels)
			res.Empty = append(res.Empty, num)
		}
		res.Elements = append(res.Elements, Element{Label: label, Number: num})
	}
	ord := refnum.NewOrder()
	slices.SortStableFunc(res.Elements, func(a, b Element) int {
		return ord.Compare(refnum.Parse(a.Number), refnum.Parse(b.Number))
	})
	return res
}

func commonSuffix(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	suffix := []rune(labels[0])
	for _, l := range labels[1:] {
		r := []rune(l)
		n := 0
		for n < len(suffix) && n < len(r) && suffix[len(suffix)-1-n] == r[len(r)-1-n] {
			n++
		}
		suffix = suffix[len(suffix)-n:]
	}
	return string(suffix)
}

func longest(labels []string) string {
	best := ""
	for _, l := range labels {
		if len([]rune(l)) > len([]rune(best)) {
			best = l
		}
	}
	return best
}
