// Package report accumulates the quality-control output of one conversion:
// inspection messages, per-kind counts, and the rendered summary.
package report

import (
	"fmt"
	"sync"

	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/dgallion1/hlzconv/internal/refnum"
)

// MsgKind classifies an inspection message.
type MsgKind string

const (
	KindError         MsgKind = "error"
	KindWarning       MsgKind = "warning"
	KindDeveloperNote MsgKind = "developer-note"
)

// InspectionMsg is one finding about the converted document.
type InspectionMsg struct {
	Kind     MsgKind `json:"kind"`
	Message  string  `json:"message"`
	Position string  `json:"position,omitempty"`
	Source   string  `json:"source,omitempty"`
}

// CountKind names a counted structure.
type CountKind string

const (
	CountParagraph     CountKind = "paragraph"
	CountTable         CountKind = "table"
	CountMath          CountKind = "math"
	CountClaim         CountKind = "claim"
	CountFigure        CountKind = "figure"
	CountImage         CountKind = "image"
	CountReferenceSign CountKind = "reference-sign"
)

// countOrder fixes the report order of count kinds.
var countOrder = []CountKind{
	CountParagraph, CountTable, CountMath, CountImage, CountClaim, CountFigure, CountReferenceSign,
}

// CountInfo is one row of the counting report.
type CountInfo struct {
	Kind    CountKind `json:"kind"`
	Count   int       `json:"count"`
	Numbers []string  `json:"reference_numbers"`
}

// Context collects findings for a single conversion. It is safe for
// concurrent use; stages running in parallel share one Context.
type Context struct {
	mu      sync.Mutex
	msgs    []InspectionMsg
	counts  map[CountKind]int
	numbers map[CountKind][]string
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{
		counts:  make(map[CountKind]int),
		numbers: make(map[CountKind][]string),
	}
}

// Add records a message. Messages are never deduplicated here.
func (c *Context) Add(msg InspectionMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// Errorf records an error-kind message.
func (c *Context) Errorf(position, format string, args ...any) {
	c.Add(InspectionMsg{Kind: KindError, Message: fmt.Sprintf(format, args...), Position: position})
}

// Warnf records a warning.
func (c *Context) Warnf(position, format string, args ...any) {
	c.Add(InspectionMsg{Kind: KindWarning, Message: fmt.Sprintf(format, args...), Position: position})
}

// Notef records a developer note.
func (c *Context) Notef(position, format string, args ...any) {
	c.Add(InspectionMsg{Kind: KindDeveloperNote, Message: fmt.Sprintf(format, args...), Position: position})
}

// Recover records a recoverable failure: math rendering failures as
// errors, every other kind as a warning.
func (c *Context) Recover(position string, err error) {
	kind := KindWarning
	if failure.KindOf(err) == failure.MathRenderFailure {
		kind = KindError
	}
	c.Add(InspectionMsg{Kind: kind, Message: failure.Message(err), Position: position})
}

// Inc adds n to the count for kind.
func (c *Context) Inc(kind CountKind, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[kind] += n
}

// AddNumbers records reference numbers for kind. Each number also counts
// once toward the kind's total.
func (c *Context) AddNumbers(kind CountKind, numbers ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numbers[kind] = append(c.numbers[kind], numbers...)
	c.counts[kind] += len(numbers)
}

// Inspections returns messages in emission order with exact (kind, message)
// duplicates removed, keeping the first occurrence.
func (c *Context) Inspections() []InspectionMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	type key struct {
		kind MsgKind
		msg  string
	}
	seen := make(map[key]bool, len(c.msgs))
	out := make([]InspectionMsg, 0, len(c.msgs))
	for _, m := range c.msgs {
		k := key{m.Kind, m.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}

// Counting returns the counting report. Kinds with a zero count and no
// numbers are still listed so the report shape is stable.
func (c *Context) Counting() []CountInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CountInfo, 0, len(countOrder))
	for _, kind := range countOrder {
		nums := append([]string{}, c.numbers[kind]...)
		refnum.Sort(nums)
		out = append(out, CountInfo{Kind: kind, Count: c.counts[kind], Numbers: nums})
	}
	return out
}

// HasErrors reports whether any error-kind message was recorded.
func (c *Context) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.msgs {
		if m.Kind == KindError {
			return true
		}
	}
	return false
}
