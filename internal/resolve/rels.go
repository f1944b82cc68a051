package resolve

import (
	"path"
	"strings"

	"github.com/dgallion1/hlzconv/internal/docpkg"
	"github.com/dgallion1/hlzconv/internal/ooxml"
)

// Relationship type suffixes. Transitional and strict schemas share them.
const (
	RelOfficeDocument = "/officeDocument"
	RelStyles         = "/styles"
	RelNumbering      = "/numbering"
	RelImage          = "/image"
)

// Rel is one relationship entry.
type Rel struct {
	ID       string
	Type     string
	Target   string // package path for internal targets, raw target for external
	External bool
}

// Rels is the relationship table of one source part.
type Rels map[string]Rel

// ByType returns the first relationship whose type ends with suffix.
func (r Rels) ByType(suffix string) (Rel, bool) {
	var found Rel
	ok := false
	for _, rel := range r {
		if strings.HasSuffix(rel.Type, suffix) {
			// Map order is random; pick the lowest ID for determinism.
			if !ok || rel.ID < found.ID {
				found, ok = rel, true
			}
		}
	}
	return found, ok
}

// RelsPath returns the relationships part for a source part.
// "word/document.xml" -> "word/_rels/document.xml.rels"; "" -> "_rels/.rels".
func RelsPath(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// LoadRels reads and parses the relationships of part. A missing rels part
// yields an empty table.
func LoadRels(pkg *docpkg.Package, part string) (Rels, error) {
	relsPath := RelsPath(part)
	if !pkg.Has(relsPath) {
		return Rels{}, nil
	}
	data, err := pkg.Read(relsPath)
	if err != nil {
		return nil, err
	}
	root, err := ooxml.Parse(relsPath, data)
	if err != nil {
		return nil, err
	}
	base := path.Dir(part)
	if part == "" {
		base = ""
	}
	rels := Rels{}
	for _, n := range root.Elements() {
		if n.Local() != "Relationship" {
			continue
		}
		rel := Rel{
			ID:       n.AttrOr("Id", ""),
			Type:     n.AttrOr("Type", ""),
			Target:   n.AttrOr("Target", ""),
			External: strings.EqualFold(n.AttrOr("TargetMode", ""), "External"),
		}
		if !rel.External {
			rel.Target = resolveTarget(base, rel.Target)
		}
		rels[rel.ID] = rel
	}
	return rels, nil
}

// resolveTarget turns a relationship target into a package path.
func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	if base == "" || base == "." {
		return path.Clean(target)
	}
	return path.Clean(path.Join(base, target))
}

// ContentTypes maps package paths to MIME types.
type ContentTypes struct {
	defaults  map[string]string
	overrides map[string]string
}

// LoadContentTypes reads [Content_Types].xml; a missing part yields empty maps.
func LoadContentTypes(pkg *docpkg.Package) (ContentTypes, error) {
	ct := ContentTypes{defaults: map[string]string{}, overrides: map[string]string{}}
	const name = "[Content_Types].xml"
	if !pkg.Has(name) {
		return ct, nil
	}
	data, err := pkg.Read(name)
	if err != nil {
		return ct, err
	}
	root, err := ooxml.Parse(name, data)
	if err != nil {
		return ct, err
	}
	for _, n := range root.Elements() {
		switch n.Local() {
		case "Default":
			ct.defaults[strings.ToLower(n.AttrOr("Extension", ""))] = n.AttrOr("ContentType", "")
		case "Override":
			ct.overrides[strings.TrimPrefix(strings.ToLower(n.AttrOr("PartName", "")), "/")] = n.AttrOr("ContentType", "")
		}
	}
	return ct, nil
}

// Lookup returns the content type for a package path, or "".
func (c ContentTypes) Lookup(p string) string {
	p = strings.ToLower(strings.TrimPrefix(p, "/"))
	if v, ok := c.overrides[p]; ok {
		return v
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	return c.defaults[ext]
}
