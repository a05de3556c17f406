// Package vector extracts filled rectangles from SVG-like markup.
//
// Only axis-aligned <rect> elements are modeled. Paths, transforms,
// gradients and strokes are ignored. Each kept rectangle carries its fill
// color and, when the markup tags it, a group id used for atomic removal
// downstream.
//
// Two parsers are provided. [XMLParser] walks the element tree and resolves
// group ids from ancestors. [ScanParser] is a tolerant regular-expression
// scan that works on markup the XML decoder rejects, at the cost of group
// information. [Parse] tries them in that order.
package vector

import (
	"fmt"
	"image/color"
)

// RGB is an opaque 8-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// NRGBA converts the color to an opaque image/color value.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Rect is one filled rectangle in source coordinates.
type Rect struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Color RGB     `json:"color"`
	Group string  `json:"group,omitempty"`
}

// Space is the coordinate space declared by a view box.
type Space struct {
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Document is the result of parsing one markup string.
type Document struct {
	Rects []Rect `json:"rects"`
	// Space is nil when the root element declares no usable view box.
	Space *Space `json:"space,omitempty"`
	// Method names the parser that produced Rects.
	Method string `json:"method"`
	// Err holds the structured parser's failure when the scan fallback ran.
	Err error `json:"-"`
}

// Groups returns the distinct group ids in encounter order.
func (d Document) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Rects {
		if r.Group == "" || seen[r.Group] {
			continue
		}
		seen[r.Group] = true
		out = append(out, r.Group)
	}
	return out
}
