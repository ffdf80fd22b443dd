// Package colorutil parses and compares SVG colour values.
package colorutil

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Parse reads an SVG paint colour: a keyword such as "pink", "#rgb",
// "#rrggbb" or "rgb(r, g, b)" with integer or percentage components.
func Parse(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.RGBA{}, false
	}

	if c, ok := colornames.Map[s]; ok {
		return c, true
	}

	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}

	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return color.RGBA{}, false
		}
		var rgb [3]uint8
		for i, p := range parts {
			v, ok := parseComponent(strings.TrimSpace(p))
			if !ok {
				return color.RGBA{}, false
			}
			rgb[i] = v
		}
		return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
	}

	return color.RGBA{}, false
}

func parseHex(h string) (color.RGBA, bool) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	default:
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

func parseComponent(p string) (uint8, bool) {
	if strings.HasSuffix(p, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp(f * 255 / 100), true
	}
	n, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, false
	}
	return clamp(n), true
}

func clamp(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Equal reports whether two colour values name the same colour. Values that
// do not parse fall back to a case-insensitive comparison.
func Equal(a, b string) bool {
	ca, okA := Parse(a)
	cb, okB := Parse(b)
	if okA && okB {
		return ca == cb
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
