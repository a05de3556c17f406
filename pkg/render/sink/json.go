package sink

import (
	"encoding/json"

	"github.com/matzehuels/reefgrid/pkg/sim"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	seed   uint64
	source string
}

// WithJSONSeed records the removal seed so a run can be replayed.
func WithJSONSeed(seed uint64) JSONOption { return func(r *jsonRenderer) { r.seed = seed } }

// WithJSONSource records the name of the source file.
func WithJSONSource(name string) JSONOption { return func(r *jsonRenderer) { r.source = name } }

type jsonOutput struct {
	Source     string     `json:"source,omitempty"`
	Seed       uint64     `json:"seed,omitempty"`
	Strategy   string     `json:"strategy"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Background string     `json:"background"`
	Overlay    float64    `json:"overlay"`
	Collapsed  bool       `json:"collapsed"`
	Threshold  float64    `json:"threshold"`
	Banner     string     `json:"banner,omitempty"`
	Panel      sim.Panel  `json:"panel"`
	Tiles      []jsonTile `json:"tiles"`
}

type jsonTile struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Color string  `json:"color"`
	Dead  bool    `json:"dead,omitempty"`
	Group string  `json:"group,omitempty"`
}

// RenderJSON exports the snapshot as indented JSON. Tile colors are the
// tile's own color regardless of state; Dead says how it is drawn.
func RenderJSON(snap sim.Snapshot, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Source:     r.source,
		Seed:       r.seed,
		Strategy:   string(snap.Strategy),
		Width:      snap.Width,
		Height:     snap.Height,
		Background: snap.Background,
		Overlay:    snap.Overlay,
		Collapsed:  snap.Collapsed,
		Threshold:  snap.Threshold,
		Banner:     snap.BannerText,
		Panel:      snap.Panel,
		Tiles:      make([]jsonTile, len(snap.Tiles)),
	}
	for i, t := range snap.Tiles {
		out.Tiles[i] = jsonTile{
			X: t.X, Y: t.Y, W: t.W, H: t.H,
			Color: t.Color.Hex(),
			Dead:  t.Dead,
			Group: t.Group,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
