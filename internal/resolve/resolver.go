// Package resolve builds the lookup tables the document builder consumes:
// part locations, relationships, styles with their inheritance chains, and
// list numbering levels.
package resolve

import (
	"github.com/dgallion1/hlzconv/internal/docpkg"
	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/ooxml"
)

// Conventional part paths used when relationships do not lead to a part
// that exists in the package.
const (
	DefaultDocumentPath  = "word/document.xml"
	DefaultStylesPath    = "word/styles.xml"
	DefaultNumberingPath = "word/numbering.xml"
)

// Parts holds the located part paths. Styles and Numbering may be empty.
type Parts struct {
	Document  string
	Styles    string
	Numbering string
}

// Resolver is the read-only lookup state for one package.
type Resolver struct {
	Parts        Parts
	DocumentRels Rels
	ContentTypes ContentTypes

	styles    map[string]*StyleInfo
	byName    map[string]*StyleInfo
	chains    map[string][]*StyleInfo
	numbering map[numKey]NumberingLevel

	defaultParagraph string
	defaultCharacter string
}

// Build locates the document, styles and numbering parts and builds all
// lookup tables. It returns the parsed document part alongside.
func Build(pkg *docpkg.Package) (*Resolver, *ooxml.Node, error) {
	rootRels, err := LoadRels(pkg, "")
	if err != nil {
		return nil, nil, err
	}

	parts := Parts{Document: locate(pkg, rootRels, RelOfficeDocument, DefaultDocumentPath)}
	if parts.Document == "" {
		return nil, nil, failure.New(failure.MissingRequiredPart, "no document part in package")
	}

	docRels, err := LoadRels(pkg, parts.Document)
	if err != nil {
		return nil, nil, err
	}
	parts.Styles = locate(pkg, docRels, RelStyles, DefaultStylesPath)
	parts.Numbering = locate(pkg, docRels, RelNumbering, DefaultNumberingPath)

	ct, err := LoadContentTypes(pkg)
	if err != nil {
		return nil, nil, err
	}

	docRoot, err := parsePart(pkg, parts.Document)
	if err != nil {
		return nil, nil, err
	}
	if docRoot.Child("w:body") == nil {
		return nil, nil, failure.New(failure.MissingRequiredPart, "%s has no w:body", parts.Document)
	}

	stylesRoot, err := parsePart(pkg, parts.Styles)
	if err != nil {
		return nil, nil, err
	}
	numberingRoot, err := parsePart(pkg, parts.Numbering)
	if err != nil {
		return nil, nil, err
	}

	r, err := newResolver(stylesRoot, numberingRoot)
	if err != nil {
		return nil, nil, err
	}
	r.Parts = parts
	r.DocumentRels = docRels
	r.ContentTypes = ct
	return r, docRoot, nil
}

// NewFromParts builds a resolver from already-parsed styles and numbering
// roots; either may be nil.
func NewFromParts(styles, numbering *ooxml.Node) (*Resolver, error) {
	return newResolver(styles, numbering)
}

func newResolver(stylesRoot, numberingRoot *ooxml.Node) (*Resolver, error) {
	styles := parseStyles(stylesRoot)
	chains, err := buildChains(styles)
	if err != nil {
		return nil, err
	}
	numbering, err := buildNumbering(numberingRoot, chains)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		DocumentRels: Rels{},
		styles:       styles,
		byName:       make(map[string]*StyleInfo, len(styles)),
		chains:       chains,
		numbering:    numbering,
	}
	for _, s := range styles {
		r.byName[s.Name] = s
		if s.Default {
			switch s.Kind {
			case KindParagraph:
				r.defaultParagraph = s.ID
			case KindCharacter:
				r.defaultCharacter = s.ID
			}
		}
	}
	return r, nil
}

// locate prefers the relationship target and falls back to the conventional
// path; it returns "" if neither exists in the package.
func locate(pkg *docpkg.Package, rels Rels, relType, fallback string) string {
	if rel, ok := rels.ByType(relType); ok && !rel.External && pkg.Has(rel.Target) {
		real, _ := pkg.Lookup(rel.Target)
		return real
	}
	if real, ok := pkg.Lookup(fallback); ok {
		return real
	}
	return ""
}

func parsePart(pkg *docpkg.Package, part string) (*ooxml.Node, error) {
	if part == "" {
		return nil, nil
	}
	data, err := pkg.Read(part)
	if err != nil {
		return nil, err
	}
	return ooxml.Parse(part, data)
}

// Style returns the style with the given id.
func (r *Resolver) Style(id string) (*StyleInfo, bool) {
	s, ok := r.styles[id]
	return s, ok
}

// StyleByName returns the style with the given display name.
func (r *Resolver) StyleByName(name string) (*StyleInfo, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// DefaultParagraphStyle returns the id of the default paragraph style.
func (r *Resolver) DefaultParagraphStyle() string { return r.defaultParagraph }

// Chain returns the basedOn chain of a style, nearest first.
func (r *Resolver) Chain(id string) []*StyleInfo { return r.chains[id] }

// StyleRunProps merges run properties along a style's basedOn chain.
func (r *Resolver) StyleRunProps(id string) RunProps {
	var out RunProps
	chain := r.chains[id]
	for i := len(chain) - 1; i >= 0; i-- {
		out = chain[i].Run.Over(out)
	}
	out.StyleID = ""
	return out
}

// Level returns the list level for a numbering instance.
func (r *Resolver) Level(numID string, ilvl int) (NumberingLevel, bool) {
	lvl, ok := r.numbering[numKey{numID, ilvl}]
	return lvl, ok
}

// StyleNumbering returns the numbering a paragraph style contributes: the
// nearest numPr along its basedOn chain, or a level whose pStyle links to
// the style or one of its ancestors.
func (r *Resolver) StyleNumbering(styleID string) (numID string, ilvl int, ok bool) {
	chain := r.chains[styleID]
	for _, s := range chain {
		if s.HasNum {
			return s.NumID, s.ILvl, true
		}
	}
	for _, s := range chain {
		for key, lvl := range r.numbering {
			if lvl.LinkedStyleID == s.ID && (!ok || key.numID < numID) {
				numID, ilvl, ok = key.numID, key.ilvl, true
			}
		}
		if ok {
			return numID, ilvl, true
		}
	}
	return "", 0, false
}

// Rel returns a document relationship by id.
func (r *Resolver) Rel(id string) (Rel, bool) {
	rel, ok := r.DocumentRels[id]
	return rel, ok
}
