package resolve

import (
	"strconv"

	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/ooxml"
)

// StyleKind is the w:type of a style definition.
type StyleKind string

const (
	KindParagraph StyleKind = "paragraph"
	KindCharacter StyleKind = "character"
	KindTable     StyleKind = "table"
	KindNumbering StyleKind = "numbering"
)

// StyleInfo is one style definition from styles.xml.
type StyleInfo struct {
	Kind    StyleKind
	ID      string
	Name    string
	BasedOn string
	Default bool
	Run     RunProps

	// Numbering carried by a paragraph or numbering style's pPr/numPr.
	NumID  string
	ILvl   int
	HasNum bool
}

func parseStyles(root *ooxml.Node) map[string]*StyleInfo {
	styles := make(map[string]*StyleInfo)
	if root == nil {
		return styles
	}
	for _, n := range root.ChildrenNamed("w:style") {
		s := &StyleInfo{
			Kind:    StyleKind(n.AttrOr("w:type", string(KindParagraph))),
			ID:      n.AttrOr("w:styleId", ""),
			Name:    n.Child("w:name").Val(),
			BasedOn: n.Child("w:basedOn").Val(),
			Default: n.AttrOr("w:default", "") == "1",
			Run:     ParseRunProps(n.Child("w:rPr")),
		}
		if numPr := n.Path("w:pPr", "w:numPr"); numPr != nil {
			s.NumID = numPr.Child("w:numId").Val()
			s.ILvl, _ = strconv.Atoi(numPr.Child("w:ilvl").Val())
			s.HasNum = s.NumID != ""
		}
		if s.ID == "" {
			continue
		}
		styles[s.ID] = s
	}
	return styles
}

// buildChains resolves each style's basedOn chain, nearest first. A chain
// that revisits a style is a cycle and fails the whole build.
func buildChains(styles map[string]*StyleInfo) (map[string][]*StyleInfo, error) {
	chains := make(map[string][]*StyleInfo, len(styles))
	for id := range styles {
		seen := map[string]bool{}
		var chain []*StyleInfo
		for cur := id; cur != ""; {
			s, ok := styles[cur]
			if !ok {
				break
			}
			if seen[cur] {
				return nil, failure.New(failure.StyleCycle, "style %q: basedOn chain revisits %q", id, cur)
			}
			seen[cur] = true
			chain = append(chain, s)
			cur = s.BasedOn
		}
		chains[id] = chain
	}
	return chains, nil
}
