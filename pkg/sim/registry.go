package sim

import (
	"math/rand/v2"

	"github.com/matzehuels/reefgrid/pkg/grid"
)

// Registry owns one generation of tiles, their group index and the removal
// state. Tiles are only ever flipped from live to dead; nothing is removed
// from the list.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	tiles      []grid.Tile
	groups     *grid.GroupIndex
	deadGroups map[string]bool
	state      State
	// collapsed is set by the kill that tripped the latch and cleared by
	// the caller that reports it.
	collapsed bool
}

// NewRegistry takes ownership of tiles. When groups is nil the index is
// built from the tiles' Group fields.
func NewRegistry(tiles []grid.Tile, groups *grid.GroupIndex, threshold float64) *Registry {
	if groups == nil {
		groups = grid.NewGroupIndex()
		for i, t := range tiles {
			groups.Add(t.Group, i)
		}
	}
	return &Registry{
		tiles:      tiles,
		groups:     groups,
		deadGroups: make(map[string]bool),
		state:      State{Total: len(tiles), Threshold: threshold},
	}
}

// KillTile kills tile i. It returns 1, or 0 when i is out of range or the
// tile is already dead.
func (r *Registry) KillTile(i int) int {
	n := r.killTile(i)
	r.record(n)
	return n
}

// KillGroup kills every live member of a group and marks the group dead.
// It returns the number of tiles killed; an empty, unknown or already dead
// group kills nothing.
func (r *Registry) KillGroup(id string) int {
	n := r.killGroup(id)
	r.record(n)
	return n
}

// KillTileAt kills the first live tile, in build order, whose closed box
// contains the point. A grouped hit removes the whole group.
func (r *Registry) KillTileAt(x, y float64) int {
	for i, t := range r.tiles {
		if t.Dead || !t.Contains(x, y) {
			continue
		}
		n := r.killMember(i)
		r.record(n)
		return n
	}
	return 0
}

// KillRandomTile kills a uniformly chosen live tile, or its whole group.
// It returns 0 when no tile is alive.
func (r *Registry) KillRandomTile(rng *rand.Rand) int {
	live := make([]int, 0, r.Live())
	for i, t := range r.tiles {
		if !t.Dead {
			live = append(live, i)
		}
	}
	if len(live) == 0 {
		return 0
	}
	n := r.killMember(live[rng.IntN(len(live))])
	r.record(n)
	return n
}

// killMember kills tile i, or its group when it has one.
func (r *Registry) killMember(i int) int {
	if g := r.tiles[i].Group; g != "" {
		return r.killGroup(g)
	}
	return r.killTile(i)
}

func (r *Registry) killTile(i int) int {
	if i < 0 || i >= len(r.tiles) || r.tiles[i].Dead {
		return 0
	}
	r.tiles[i].Dead = true
	return 1
}

func (r *Registry) killGroup(id string) int {
	if id == "" || r.deadGroups[id] {
		return 0
	}
	members := r.groups.Members(id)
	if len(members) == 0 {
		return 0
	}
	n := 0
	for _, i := range members {
		n += r.killTile(i)
	}
	r.deadGroups[id] = true
	return n
}

func (r *Registry) record(n int) {
	if r.state.record(n) {
		r.collapsed = true
	}
}

// takeCollapse reports, once, that the latch was set since the last call.
func (r *Registry) takeCollapse() bool {
	c := r.collapsed
	r.collapsed = false
	return c
}

// State returns a copy of the removal state.
func (r *Registry) State() State { return r.state }

// Len returns the total number of tiles.
func (r *Registry) Len() int { return len(r.tiles) }

// Live returns the number of live tiles.
func (r *Registry) Live() int { return len(r.tiles) - r.state.Removed }

// Tiles returns a copy of all tiles in build order.
func (r *Registry) Tiles() []grid.Tile {
	return append([]grid.Tile(nil), r.tiles...)
}

// Groups returns the group ids in first-seen order.
func (r *Registry) Groups() []string { return r.groups.IDs() }

// GroupDead reports whether a group has been killed.
func (r *Registry) GroupDead(id string) bool { return r.deadGroups[id] }
