// Package geom computes the extent of a rectangle set and the scale that
// maps its coordinate space onto a canvas.
package geom

import (
	"math"

	"github.com/matzehuels/reefgrid/pkg/vector"
)

// Bounds is the axis-aligned box enclosing a set of rectangles.
// Width and Height are floored at 1 so they are always safe divisors.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Width      float64
	Height     float64
}

// Scale maps source units to canvas pixels per axis. The two factors are
// independent; non-uniform scaling is allowed.
type Scale struct {
	X, Y float64
}

// ComputeBounds returns the enclosing box of rects, or false for an empty
// list.
func ComputeBounds(rects []vector.Rect) (Bounds, bool) {
	if len(rects) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, r := range rects {
		b.MinX = math.Min(b.MinX, r.X)
		b.MinY = math.Min(b.MinY, r.Y)
		b.MaxX = math.Max(b.MaxX, r.X+r.W)
		b.MaxY = math.Max(b.MaxY, r.Y+r.H)
	}
	b.Width = math.Max(1, b.MaxX-b.MinX)
	b.Height = math.Max(1, b.MaxY-b.MinY)
	return b, true
}

// ResolveSpace picks the coordinate space that tiles are laid out in.
//
// With no view box the bounds box is used. A view box keeps its origin,
// but a non-positive width or height falls back to the bounds extent on
// that axis.
func ResolveSpace(space *vector.Space, b Bounds) vector.Space {
	if space == nil {
		return vector.Space{OriginX: b.MinX, OriginY: b.MinY, Width: b.Width, Height: b.Height}
	}
	out := *space
	if out.Width <= 0 {
		out.Width = b.Width
	}
	if out.Height <= 0 {
		out.Height = b.Height
	}
	return out
}

// ComputeScale returns canvas/space per axis.
func ComputeScale(space vector.Space, canvasW, canvasH float64) Scale {
	w, h := space.Width, space.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return Scale{X: canvasW / w, Y: canvasH / h}
}
