// Package grid builds the tile set the simulation removes from.
//
// There are two strategies. The vector strategy emits exactly one tile per
// parsed rectangle, mapped into canvas pixels, and records group
// membership. The raster strategy draws an image into a small cols x rows
// buffer and emits one tile per sufficiently opaque, non-white cell; it
// has no groups.
//
// Tiles are returned in build order. That order is significant: hit
// testing picks the first matching tile.
package grid

import (
	"github.com/matzehuels/reefgrid/pkg/geom"
	"github.com/matzehuels/reefgrid/pkg/vector"
)

// Tile is one removable cell in canvas pixels.
type Tile struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	W     float64    `json:"w"`
	H     float64    `json:"h"`
	Dead  bool       `json:"dead"`
	Color vector.RGB `json:"color"`
	Group string     `json:"group,omitempty"`
}

// Contains reports whether the point lies inside the tile. Edges are
// inclusive on all four sides.
func (t Tile) Contains(x, y float64) bool {
	return x >= t.X && x <= t.X+t.W && y >= t.Y && y <= t.Y+t.H
}

// GroupIndex maps a group id to the indices of its tiles. Ids keep their
// first-seen order.
type GroupIndex struct {
	order   []string
	members map[string][]int
}

// NewGroupIndex returns an empty index.
func NewGroupIndex() *GroupIndex {
	return &GroupIndex{members: make(map[string][]int)}
}

// Add appends tile index i to group id. Empty ids are ignored.
func (g *GroupIndex) Add(id string, i int) {
	if id == "" {
		return
	}
	if _, ok := g.members[id]; !ok {
		g.order = append(g.order, id)
	}
	g.members[id] = append(g.members[id], i)
}

// Members returns the tile indices of a group, or nil for an unknown id.
func (g *GroupIndex) Members(id string) []int {
	if g == nil {
		return nil
	}
	return g.members[id]
}

// IDs returns all group ids in first-seen order.
func (g *GroupIndex) IDs() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.order...)
}

// Len returns the number of groups.
func (g *GroupIndex) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// BuildFromVectors maps every rectangle into canvas space:
// position (p - origin) * scale, size * scale. Grouped rectangles are
// registered in the returned index in encounter order.
func BuildFromVectors(rects []vector.Rect, space vector.Space, scale geom.Scale) ([]Tile, *GroupIndex) {
	tiles := make([]Tile, 0, len(rects))
	groups := NewGroupIndex()
	for i, r := range rects {
		tiles = append(tiles, Tile{
			X:     (r.X - space.OriginX) * scale.X,
			Y:     (r.Y - space.OriginY) * scale.Y,
			W:     r.W * scale.X,
			H:     r.H * scale.Y,
			Color: r.Color,
			Group: r.Group,
		})
		groups.Add(r.Group, i)
	}
	return tiles, groups
}
