package mapping

import (
	"github.com/dgallion1/hlzconv/internal/report"
	"github.com/dgallion1/hlzconv/internal/sections"
)

// finish builds the reference-sign list and cross-checks the numbers used
// in the description against it.
func (e *engine) finish() {
	elems := sections.Extract(e.refText.String())
	if len(elems) == 0 {
		return
	}
	merged := sections.Merge(elems)
	for _, num := range merged.Empty {
		e.rep.Warnf("reference sign "+num, "labels for reference number %s share no common suffix; kept the longest", num)
	}
	known := make(map[string]bool, len(merged.Elements))
	numbers := make([]string, 0, len(merged.Elements))
	for _, el := range merged.Elements {
		known[el.Number] = true
		numbers = append(numbers, el.Number)
	}
	e.rep.AddNumbers(report.CountReferenceSign, numbers...)
	e.res.References = merged.Elements

	for _, num := range sections.Numbers(e.bodyText.String()) {
		if !known[num] {
			e.rep.Warnf("reference sign "+num, "reference number %s is used in the description but missing from the reference signs", num)
		}
	}
}
