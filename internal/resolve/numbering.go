package resolve

import (
	"strconv"

	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/ooxml"
)

// NumberingLevel is one resolved list level.
type NumberingLevel struct {
	IsOrdered     bool
	Level         int
	Format        string // w:numFmt, e.g. "decimal", "bullet"
	Text          string // w:lvlText, e.g. "%1."
	IndentTwips   int
	LinkedStyleID string // w:pStyle of the level, if any
}

type numKey struct {
	numID string
	ilvl  int
}

type abstractNum struct {
	id        string
	styleLink string // w:numStyleLink: defer to a numbering style
	levels    map[int]NumberingLevel
}

// buildNumbering resolves numId -> abstractNumId -> levels. An abstract
// definition that only links to a numbering style is followed through that
// style's numId until a definition with levels is reached; revisiting a
// definition on the way is a cycle.
func buildNumbering(root *ooxml.Node, chains map[string][]*StyleInfo) (map[numKey]NumberingLevel, error) {
	out := make(map[numKey]NumberingLevel)
	if root == nil {
		return out, nil
	}

	abstracts := make(map[string]*abstractNum)
	for _, n := range root.ChildrenNamed("w:abstractNum") {
		a := &abstractNum{
			id:        n.AttrOr("w:abstractNumId", ""),
			styleLink: n.Child("w:numStyleLink").Val(),
			levels:    make(map[int]NumberingLevel),
		}
		for _, lvl := range n.ChildrenNamed("w:lvl") {
			ilvl, _ := strconv.Atoi(lvl.AttrOr("w:ilvl", "0"))
			format := lvl.Child("w:numFmt").Val()
			ind := lvl.Path("w:pPr", "w:ind")
			indent, _ := strconv.Atoi(ind.AttrOr("w:left", ind.AttrOr("w:start", "0")))
			a.levels[ilvl] = NumberingLevel{
				IsOrdered:     format != "" && format != "bullet" && format != "none",
				Level:         ilvl,
				Format:        format,
				Text:          lvl.Child("w:lvlText").Val(),
				IndentTwips:   indent,
				LinkedStyleID: lvl.Child("w:pStyle").Val(),
			}
		}
		abstracts[a.id] = a
	}

	nums := make(map[string]string)
	for _, n := range root.ChildrenNamed("w:num") {
		nums[n.AttrOr("w:numId", "")] = n.Child("w:abstractNumId").Val()
	}

	for numID, absID := range nums {
		a, err := followStyleLinks(absID, abstracts, nums, chains)
		if err != nil {
			return nil, err
		}
		if a == nil {
			continue
		}
		for ilvl, lvl := range a.levels {
			out[numKey{numID, ilvl}] = lvl
		}
	}
	return out, nil
}

func followStyleLinks(absID string, abstracts map[string]*abstractNum, nums map[string]string, chains map[string][]*StyleInfo) (*abstractNum, error) {
	seen := map[string]bool{}
	for {
		a, ok := abstracts[absID]
		if !ok {
			return nil, nil
		}
		if seen[absID] {
			return nil, failure.New(failure.StyleCycle, "numbering definition %q links back to itself", absID)
		}
		seen[absID] = true
		if a.styleLink == "" || len(a.levels) > 0 {
			return a, nil
		}
		numID := ""
		for _, s := range chains[a.styleLink] {
			if s.HasNum {
				numID = s.NumID
				break
			}
		}
		if numID == "" {
			return nil, nil
		}
		absID = nums[numID]
	}
}
