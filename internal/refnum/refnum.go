// Package refnum parses and orders reference numbers such as "10", "1a"
// or "12b": a numeric component with an optional alphabetic suffix.
package refnum

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Number is a parsed reference number.
type Number struct {
	Raw   string
	Num   int
	Alpha string
}

var numberRe = regexp.MustCompile(`^(\d+)([A-Za-z]*)$`)

// Parse splits raw into its numeric and alphabetic components. Values that
// do not match keep Num = -1 and Alpha = raw, so they order after numbers.
func Parse(raw string) Number {
	raw = strings.TrimSpace(raw)
	m := numberRe.FindStringSubmatch(raw)
	if m == nil {
		return Number{Raw: raw, Num: -1, Alpha: raw}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Number{Raw: raw, Num: -1, Alpha: raw}
	}
	return Number{Raw: raw, Num: n, Alpha: m[2]}
}

// Order compares reference numbers: numeric component ascending, then the
// alphabetic component under Korean locale collation (empty first), so
// 1 < 1a < 2.
type Order struct {
	col *collate.Collator
}

// NewOrder returns an Order. A Collator is not safe for concurrent use, so
// callers create one per sort.
func NewOrder() *Order {
	return &Order{col: collate.New(language.Korean)}
}

// Compare returns -1, 0 or 1.
func (o *Order) Compare(a, b Number) int {
	switch {
	case a.Num >= 0 && b.Num < 0:
		return -1
	case a.Num < 0 && b.Num >= 0:
		return 1
	case a.Num < b.Num:
		return -1
	case a.Num > b.Num:
		return 1
	}
	if a.Alpha == b.Alpha {
		return 0
	}
	if a.Alpha == "" {
		return -1
	}
	if b.Alpha == "" {
		return 1
	}
	return o.col.CompareString(a.Alpha, b.Alpha)
}

// Sort orders raw reference numbers in place.
func Sort(raw []string) {
	o := NewOrder()
	sort.SliceStable(raw, func(i, j int) bool {
		return o.Compare(Parse(raw[i]), Parse(raw[j])) < 0
	})
}
