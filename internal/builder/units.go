package builder

import (
	"math"
	"strconv"
	"strings"
)

// EMUPerMM is the number of English Metric Units in one millimetre.
const EMUPerMM = 36000

// EMUToMM converts EMU to whole millimetres, flooring.
func EMUToMM(emu int64) int {
	if emu <= 0 {
		return 0
	}
	return int(emu / EMUPerMM)
}

// PointsToMM converts points to whole millimetres (1pt = 254/720 mm),
// flooring.
func PointsToMM(pt float64) int {
	if pt <= 0 {
		return 0
	}
	return int(math.Floor(pt * 254 / 720))
}

// cssLengthToMM converts a VML style length ("28.35pt", "1in", "2.5cm") to
// whole millimetres. Unitless values are treated as points.
func cssLengthToMM(v string) (int, bool) {
	v = strings.TrimSpace(v)
	units := []struct {
		suffix string
		toPt   float64
	}{
		{"pt", 1},
		{"in", 72},
		{"cm", 72 / 2.54},
		{"mm", 72 / 25.4},
		{"px", 0.75},
	}
	toPt := 1.0
	for _, u := range units {
		if strings.HasSuffix(v, u.suffix) {
			v = strings.TrimSuffix(v, u.suffix)
			toPt = u.toPt
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return PointsToMM(f * toPt), true
}

// parseVMLStyle splits "width:28.35pt;height:14pt" into a map.
func parseVMLStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}
