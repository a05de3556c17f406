package vector

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// transparentOpacity is the opacity at or below which a background-colored
// rectangle counts as invisible.
const transparentOpacity = 0.001

// Filter decides which fills are kept.
//
// A rectangle filled with Background at near-zero opacity is always
// dropped. Otherwise only fills equal to Active survive. An empty Active
// keeps every remaining fill.
type Filter struct {
	Active     string
	Background string
}

// NewFilter builds a Filter from user-supplied colors, normalizing them.
// Colors that do not normalize are kept verbatim and will never match.
func NewFilter(active, background string) Filter {
	norm := func(s string) string {
		if h, ok := NormalizeHex(s); ok {
			return h
		}
		return s
	}
	f := Filter{Background: norm(background)}
	if active != "" {
		f.Active = norm(active)
	}
	return f
}

// Keep reports whether a normalized fill at the given opacity passes.
// NaN opacity means "not specified".
func (f Filter) Keep(hex string, opacity float64) bool {
	if hex == f.Background && opacity <= transparentOpacity {
		return false
	}
	return f.Active == "" || hex == f.Active
}

// attrs is a flat attribute map for one element.
type attrs map[string]string

var (
	styleFillRe    = regexp.MustCompile(`(?i)(?:^|;)\s*fill\s*:\s*([^;]+)`)
	styleOpacityRe = regexp.MustCompile(`(?i)(?:^|;)\s*opacity\s*:\s*([^;]+)`)
	leadingNumRe   = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// fill resolves the fill from the attribute first, then the style property.
func (a attrs) fill() (string, bool) {
	if v := a["fill"]; v != "" && v != "none" {
		return v, true
	}
	if m := styleFillRe.FindStringSubmatch(a["style"]); m != nil {
		v := strings.TrimSpace(m[1])
		if v != "" && v != "none" {
			return v, true
		}
	}
	return "", false
}

func (a attrs) opacity() float64 {
	if v, ok := a["opacity"]; ok {
		return leadingFloat(v)
	}
	if m := styleOpacityRe.FindStringSubmatch(a["style"]); m != nil {
		return leadingFloat(m[1])
	}
	return math.NaN()
}

// length parses a numeric attribute, ignoring a trailing unit. Missing or
// unparseable values are 0.
func (a attrs) length(name string) float64 {
	v := leadingFloat(a[name])
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func leadingFloat(s string) float64 {
	m := leadingNumRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// rect builds a Rect from a <rect> element's attributes, or reports false
// when the element is filtered out or has no area.
func (a attrs) rect(f Filter) (Rect, bool) {
	raw, ok := a.fill()
	if !ok {
		return Rect{}, false
	}
	hex, ok := NormalizeHex(raw)
	if !ok {
		return Rect{}, false
	}
	if !f.Keep(hex, a.opacity()) {
		return Rect{}, false
	}
	w, h := a.length("width"), a.length("height")
	if w <= 0 || h <= 0 {
		return Rect{}, false
	}
	c, ok := ParseColor(hex)
	if !ok {
		return Rect{}, false
	}
	return Rect{X: a.length("x"), Y: a.length("y"), W: w, H: h, Color: c}, true
}

// parseViewBox reads "minX minY width height" separated by commas or
// whitespace. Extra numbers are ignored; any non-number rejects the box.
func parseViewBox(s string) (Space, bool) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) < 4 {
		return Space{}, false
	}
	var nums [4]float64
	for i := range fields {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Space{}, false
		}
		if i < 4 {
			nums[i] = v
		}
	}
	return Space{OriginX: nums[0], OriginY: nums[1], Width: nums[2], Height: nums[3]}, true
}
