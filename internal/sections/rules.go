// Package sections holds the patent heading vocabulary: heading titles, the
// output tag each one opens, its tier, and the per-tag paragraph policies.
package sections

import (
	"regexp"
	"strings"
	"unicode"
)

// Tier is the specificity level of a heading: 1 for document parts, 2 for
// major subsections, 3 for minor subsections.
type Tier int

// Rule maps one heading title to its output tag.
type Rule struct {
	Title string
	Tag   string
	Tier  Tier
}

// Heading is a classified heading paragraph. Num is set for numbered
// headings such as claims and figures.
type Heading struct {
	Tag  string
	Tier Tier
	Num  string
}

// Output tags.
const (
	TagDescription            = "description"
	TagClaims                 = "claims"
	TagAbstract               = "abstract"
	TagDrawings               = "drawings"
	TagInventionTitle         = "invention-title"
	TagTechnicalField         = "technical-field"
	TagBackgroundArt          = "background-art"
	TagCitationList           = "citation-list"
	TagSummaryOfInvention     = "summary-of-invention"
	TagDescriptionOfDrawings  = "description-of-drawings"
	TagDescriptionEmbodiments = "description-of-embodiments"
	TagReferenceSignsList     = "reference-signs-list"
	TagIndustrialApplicable   = "industrial-applicability"
	TagSequenceListText       = "sequence-list-text"
	TagClaim                  = "claim"
	TagSummary                = "summary"
	TagAbstractFigure         = "abstract-figure"
	TagFigure                 = "figure"
	TagPatentLiterature       = "patent-literature"
	TagNonPatentLiterature    = "non-patent-literature"
	TagTechProblem            = "tech-problem"
	TagTechSolution           = "tech-solution"
	TagAdvantageousEffects    = "advantageous-effects"
)

// Rules is the heading vocabulary in document order.
var Rules = []Rule{
	{"발명의 설명", TagDescription, 1},
	{"청구범위", TagClaims, 1},
	{"요약서", TagAbstract, 1},
	{"도면", TagDrawings, 1},

	{"발명의 명칭", TagInventionTitle, 2},
	{"기술분야", TagTechnicalField, 2},
	{"발명의 배경이 되는 기술", TagBackgroundArt, 2},
	{"선행기술문헌", TagCitationList, 2},
	{"발명의 내용", TagSummaryOfInvention, 2},
	{"도면의 간단한 설명", TagDescriptionOfDrawings, 2},
	{"발명을 실시하기 위한 구체적인 내용", TagDescriptionEmbodiments, 2},
	{"부호의 설명", TagReferenceSignsList, 2},
	{"산업상 이용가능성", TagIndustrialApplicable, 2},
	{"서열목록 자유텍스트", TagSequenceListText, 2},
	{"요약", TagSummary, 2},
	{"대표도", TagAbstractFigure, 2},

	{"특허문헌", TagPatentLiterature, 3},
	{"비특허문헌", TagNonPatentLiterature, 3},
	{"해결하고자 하는 과제", TagTechProblem, 3},
	{"과제의 해결 수단", TagTechSolution, 3},
	{"발명의 효과", TagAdvantageousEffects, 3},
}

// Numbered headings carry digits plus an optional letter: 청구항 1, 도 2a.
var numbered = []struct {
	pattern *regexp.Regexp
	title   string
	tag     string
}{
	{regexp.MustCompile(`^청구항(\d+[A-Za-z]?)$`), "청구항", TagClaim},
	{regexp.MustCompile(`^도(\d+[A-Za-z]?)$`), "도", TagFigure},
}

var (
	byTitle = make(map[string]Rule, len(Rules))
	byTag   = make(map[string]Rule, len(Rules))
)

func init() {
	for _, r := range Rules {
		byTitle[Canonical(r.Title)] = r
		byTag[r.Tag] = r
	}
	byTag[TagClaim] = Rule{"청구항", TagClaim, 2}
	byTag[TagFigure] = Rule{"도", TagFigure, 2}
}

// Canonical strips whitespace and heading brackets so "【 발명의 설명 】"
// and "발명의설명" compare equal.
func Canonical(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '【', '】', '[', ']', '［', '］':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

var bracketed = regexp.MustCompile(`^\s*[【\[]([^】\]]+)[】\]]\s*$`)

// Match classifies a paragraph's text as a heading.
func Match(text string) (Heading, bool) {
	// Only bracketed titles are headings: a bare "요약" or "도 1" is body
	// text.
	if !bracketed.MatchString(text) {
		return Heading{}, false
	}
	c := Canonical(text)
	if r, ok := byTitle[c]; ok {
		return Heading{Tag: r.Tag, Tier: r.Tier}, true
	}
	for _, n := range numbered {
		if m := n.pattern.FindStringSubmatch(c); m != nil {
			return Heading{Tag: n.tag, Tier: 2, Num: m[1]}, true
		}
	}
	return Heading{}, false
}

// LooksLikeHeading reports whether text has the bracketed heading form but
// is not a paragraph number such as 【0012】.
func LooksLikeHeading(text string) bool {
	m := bracketed.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	for _, r := range strings.TrimSpace(m[1]) {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Title returns the bracketed heading text that opens tag, so a tag tree
// can be turned back into heading paragraphs.
func Title(tag, num string) (string, bool) {
	r, ok := byTag[tag]
	if !ok {
		return "", false
	}
	if num != "" {
		return "【" + r.Title + " " + num + "】", true
	}
	return "【" + r.Title + "】", true
}

// IsSection reports whether tag is opened by a heading.
func IsSection(tag string) bool {
	_, ok := byTag[tag]
	return ok
}

var (
	numberingInside = map[string]bool{
		TagDescription: true,
	}
	numberingForbidden = map[string]bool{
		TagInventionTitle: true,
		TagClaims:         true,
		TagClaim:          true,
		TagAbstract:       true,
		TagDrawings:       true,
		TagFigure:         true,
	}
	splitOnBreak = map[string]bool{
		TagClaim:              true,
		TagReferenceSignsList: true,
		TagAbstract:           true,
	}
)

// InsertsNumbers reports whether paragraphs inside tag get ordinals.
func InsertsNumbers(tag string) bool { return numberingInside[tag] }

// ForbidsNumbers reports whether tag suppresses ordinals even inside a
// numbering ancestor.
func ForbidsNumbers(tag string) bool { return numberingForbidden[tag] }

// SplitsOnBreak reports whether paragraphs inside tag split at line breaks.
func SplitsOnBreak(tag string) bool { return splitOnBreak[tag] }
