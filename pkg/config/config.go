// Package config holds the tunable constants of the tile engine and loads
// them from TOML files.
//
// Every field has a default matching the reference behavior, so a missing
// config file is not an error. A file only needs to set the values it
// changes:
//
//	[simulation]
//	threshold = 0.8
//	target_actions = 20
//
//	[colors]
//	active = "#00ff88"
package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/reefgrid/pkg/errors"
)

// FileName is the name looked up in the working directory by LoadDefault.
const FileName = "reefgrid.toml"

// Config is the full engine configuration.
type Config struct {
	Simulation Simulation `toml:"simulation" json:"simulation"`
	Grid       Grid       `toml:"grid" json:"grid"`
	Colors     Colors     `toml:"colors" json:"colors"`
	Canvas     Canvas     `toml:"canvas" json:"canvas"`
	Overlay    Overlay    `toml:"overlay" json:"overlay"`
}

// Simulation controls removal pacing and the collapse latch.
type Simulation struct {
	TargetActions int     `toml:"target_actions" json:"target_actions"`
	Threshold     float64 `toml:"threshold" json:"threshold"`
	UnitMin       int     `toml:"unit_min" json:"unit_min"`
	UnitMax       int     `toml:"unit_max" json:"unit_max"`
	MeanUnit      float64 `toml:"mean_unit" json:"mean_unit"`
	BatchCap      int     `toml:"batch_cap" json:"batch_cap"`
}

// Grid controls the raster sampling strategy.
type Grid struct {
	TargetTilePx   int `toml:"target_tile_px" json:"target_tile_px"`
	MaxTiles       int `toml:"max_tiles" json:"max_tiles"`
	WhiteThreshold int `toml:"white_threshold" json:"white_threshold"`
}

// Colors are #rrggbb hex strings.
type Colors struct {
	// Active is the only fill color the vector parser keeps.
	Active string `toml:"active" json:"active"`
	// Background is the color treated as transparent at zero opacity.
	Background string `toml:"background" json:"background"`
	// Desktop is painted behind the tiles.
	Desktop string `toml:"desktop" json:"desktop"`
	// Dead is the fill of removed tiles.
	Dead string `toml:"dead" json:"dead"`
	// Banner is the collapse banner text color.
	Banner string `toml:"banner" json:"banner"`
}

// Canvas bounds the drawing surface.
type Canvas struct {
	MaxWidth int `toml:"max_width" json:"max_width"`
	// DefaultAspect is height/width of the canvas used when no size is known.
	DefaultAspect float64 `toml:"default_aspect" json:"default_aspect"`
}

// Overlay is the whitening ramp applied as progress approaches collapse.
type Overlay struct {
	Start float64 `toml:"start" json:"start"`
	End   float64 `toml:"end" json:"end"`
	Min   float64 `toml:"min" json:"min"`
	Max   float64 `toml:"max" json:"max"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Simulation: Simulation{
			TargetActions: 30,
			Threshold:     1.0,
			UnitMin:       3000,
			UnitMax:       4000,
			MeanUnit:      15,
			BatchCap:      7000,
		},
		Grid: Grid{
			TargetTilePx:   12,
			MaxTiles:       12000,
			WhiteThreshold: 30,
		},
		Colors: Colors{
			Active:     "#ffe100",
			Background: "#ffffff",
			Desktop:    "#5599ec",
			Dead:       "#ffffff",
			Banner:     "#ffea00",
		},
		Canvas: Canvas{
			MaxWidth:      1728,
			DefaultAspect: 0.6,
		},
		Overlay: Overlay{
			Start: 0.6,
			End:   0.8,
			Min:   8,
			Max:   32,
		},
	}
}

// DefaultCanvas returns the canvas size used when neither an image nor a
// caller supplies one.
func (c Config) DefaultCanvas() (w, h float64) {
	w = float64(c.Canvas.MaxWidth)
	return w, math.Round(w * c.Canvas.DefaultAspect)
}

// Load reads a TOML file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDefault loads the first config file found in the search path, or the
// defaults when there is none. It returns the path that was used.
func LoadDefault() (Config, string, error) {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return Default(), "", nil
}

// SearchPaths lists candidate config files in priority order.
func SearchPaths() []string {
	paths := []string{FileName}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "reefgrid", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reefgrid", "config.toml"))
	}
	return paths
}

// Save writes the configuration as TOML, creating parent directories.
func (c Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := c.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	s := c.Simulation
	switch {
	case s.TargetActions <= 0:
		return invalid("simulation.target_actions must be positive, got %d", s.TargetActions)
	case s.Threshold <= 0 || s.Threshold > 1:
		return invalid("simulation.threshold must be in (0, 1], got %v", s.Threshold)
	case s.UnitMin <= 0 || s.UnitMax < s.UnitMin:
		return invalid("simulation unit range [%d, %d] is invalid", s.UnitMin, s.UnitMax)
	case s.MeanUnit <= 0:
		return invalid("simulation.mean_unit must be positive, got %v", s.MeanUnit)
	case s.BatchCap <= 0:
		return invalid("simulation.batch_cap must be positive, got %d", s.BatchCap)
	}

	g := c.Grid
	switch {
	case g.TargetTilePx <= 0:
		return invalid("grid.target_tile_px must be positive, got %d", g.TargetTilePx)
	case g.MaxTiles < 100:
		return invalid("grid.max_tiles must be at least 100, got %d", g.MaxTiles)
	case g.WhiteThreshold < 0 || g.WhiteThreshold > 765:
		return invalid("grid.white_threshold must be in [0, 765], got %d", g.WhiteThreshold)
	}

	for field, v := range map[string]string{
		"colors.active":     c.Colors.Active,
		"colors.background": c.Colors.Background,
		"colors.desktop":    c.Colors.Desktop,
		"colors.dead":       c.Colors.Dead,
		"colors.banner":     c.Colors.Banner,
	} {
		if err := errors.ValidateHexColor(field, v); err != nil {
			return err
		}
	}

	if c.Canvas.MaxWidth <= 0 {
		return invalid("canvas.max_width must be positive, got %d", c.Canvas.MaxWidth)
	}
	if c.Canvas.DefaultAspect <= 0 {
		return invalid("canvas.default_aspect must be positive, got %v", c.Canvas.DefaultAspect)
	}

	o := c.Overlay
	if o.End <= o.Start {
		return invalid("overlay.end (%v) must be greater than overlay.start (%v)", o.End, o.Start)
	}
	if o.Min < 0 || o.Max > 255 || o.Max < o.Min {
		return invalid("overlay intensity range [%v, %v] must lie within [0, 255]", o.Min, o.Max)
	}
	return nil
}

func (c *Config) normalize() {
	for _, p := range []*string{
		&c.Colors.Active, &c.Colors.Background, &c.Colors.Desktop, &c.Colors.Dead, &c.Colors.Banner,
	} {
		*p = strings.ToLower(strings.TrimSpace(*p))
	}
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}
