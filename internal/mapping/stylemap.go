package mapping

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Element is the kind of source node a style rule applies to.
type Element string

const (
	ElementParagraph Element = "paragraph"
	ElementRun       Element = "run"
	ElementTable     Element = "table"
)

// Rule matches a style. Empty fields and a nil InList match anything.
type Rule struct {
	Element   Element `yaml:"element"`
	StyleID   string  `yaml:"style_id,omitempty"`
	StyleName string  `yaml:"style_name,omitempty"`
	InList    *bool   `yaml:"in_list,omitempty"`
	Tag       string  `yaml:"tag,omitempty"`
}

func (r Rule) matches(el Element, id, name string, inList bool) bool {
	if r.Element != el {
		return false
	}
	if r.StyleID != "" && r.StyleID != id {
		return false
	}
	if r.StyleName != "" && r.StyleName != name {
		return false
	}
	if r.InList != nil && *r.InList != inList {
		return false
	}
	return true
}

// StyleMap is the ordered rule list plus the highlight tag table.
type StyleMap struct {
	Rules       []Rule            `yaml:"rules"`
	Highlights  map[string]string `yaml:"highlights"`
	PassThrough []string          `yaml:"pass_through"`
}

//go:embed stylemap.yaml
var defaultStyleMap []byte

// DefaultStyleMap returns the built-in style map.
func DefaultStyleMap() *StyleMap {
	var m StyleMap
	if err := yaml.Unmarshal(defaultStyleMap, &m); err != nil {
		panic(fmt.Sprintf("built-in style map: %v", err))
	}
	return &m
}

// LoadStyleMap reads a YAML style map and layers it over the built-in one:
// its rules are tried first and its highlights override.
func LoadStyleMap(path string) (*StyleMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading style map: %w", err)
	}
	return ParseStyleMap(data)
}

// ParseStyleMap is LoadStyleMap on in-memory YAML.
func ParseStyleMap(data []byte) (*StyleMap, error) {
	var over StyleMap
	if err := yaml.Unmarshal(data, &over); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	for i, r := range over.Rules {
		switch r.Element {
		case ElementParagraph, ElementRun, ElementTable:
		default:
			return nil, fmt.Errorf("rule %d: unknown element %q", i+1, r.Element)
		}
	}
	m := DefaultStyleMap()
	m.Rules = append(over.Rules, m.Rules...)
	for color, tag := range over.Highlights {
		m.Highlights[color] = tag
	}
	m.PassThrough = append(m.PassThrough, over.PassThrough...)
	return m, nil
}

// Match returns the first rule matching the style.
func (m *StyleMap) Match(el Element, id, name string, inList bool) (Rule, bool) {
	for _, r := range m.Rules {
		if r.matches(el, id, name, inList) {
			return r, true
		}
	}
	return Rule{}, false
}

// Highlight returns the inline tag for a highlight color.
func (m *StyleMap) Highlight(color string) (string, bool) {
	tag, ok := m.Highlights[color]
	return tag, ok && tag != ""
}

// IsPassThrough reports whether a style name is silently ignored.
func (m *StyleMap) IsPassThrough(name string) bool {
	for _, n := range m.PassThrough {
		if n == name {
			return true
		}
	}
	return false
}
