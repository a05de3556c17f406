package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reefgrid/pkg/cache"
	"github.com/matzehuels/reefgrid/pkg/config"
	"github.com/matzehuels/reefgrid/pkg/sim"
)

const reefSVG = `<svg viewBox="0 0 200 100">
  <rect x="10" y="10" width="20" height="20" fill="#ffe100"/>
  <g id="coral">
    <rect x="100" y="10" width="10" height="10" fill="#ffe100"/>
    <rect x="120" y="10" width="10" height="10" fill="#ffe100"/>
  </g>
</svg>`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(&bytes.Buffer{}))
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		formats []string
		wantErr bool
	}{
		{nil, false},
		{[]string{"svg", "png", "json"}, false},
		{[]string{"svg", "pdf"}, true},
		{[]string{"SVG"}, true},
	}
	for _, tt := range tests {
		if err := ValidateFormats(tt.formats); (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Scale != DefaultScale || opts.Config == nil || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}

	bad := []Options{
		{Width: -1},
		{Actions: -2},
		{Scale: -1},
		{Formats: []string{"gif"}},
		{Config: &config.Config{}},
	}
	for _, o := range bad {
		if err := o.Validate(); err == nil {
			t.Errorf("Validate(%+v) error = nil", o)
		}
	}
}

func TestExecuteVector(t *testing.T) {
	path := writeFile(t, "reef.svg", []byte(reefSVG))
	r := quietRunner(nil)

	var stages []string
	result, err := r.Execute(context.Background(), Options{
		Source:   path,
		Width:    400,
		Height:   200,
		Seed:     3,
		Kills:    1,
		Formats:  []string{"svg", "json", "png"},
		Progress: func(stage string) { stages = append(stages, stage) },
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Stats.Strategy != sim.StrategyVector {
		t.Errorf("Strategy = %v, want vector", result.Stats.Strategy)
	}
	if result.Stats.Parser != "xml" {
		t.Errorf("Parser = %q, want xml", result.Stats.Parser)
	}
	if got := strings.Join(stages, ","); got != "load,simulate,render" {
		t.Errorf("stages = %s, want load,simulate,render", got)
	}
	if result.Stats.TileCount != 3 || result.Stats.GroupCount != 1 {
		t.Errorf("Stats = %+v, want 3 tiles in 1 group", result.Stats)
	}
	if result.Stats.Removed < 1 {
		t.Errorf("Removed = %d, want >= 1", result.Stats.Removed)
	}
	for _, f := range []string{"svg", "json", "png"} {
		if len(result.Artifacts[f]) == 0 {
			t.Errorf("artifact %s is empty", f)
		}
	}
	if !strings.Contains(string(result.Artifacts["svg"]), `viewBox="0 0 400.0 200.0"`) {
		t.Errorf("svg canvas wrong:\n%s", result.Artifacts["svg"])
	}
}

func TestExecuteMissingSource(t *testing.T) {
	r := quietRunner(nil)
	result, err := r.Execute(context.Background(), Options{Source: filepath.Join(t.TempDir(), "nope.svg")})
	if err != nil {
		t.Fatalf("Execute() error = %v, want degraded result", err)
	}
	if result.Stats.Strategy != sim.StrategyNone || result.Stats.TileCount != 0 || result.Stats.Parser != "" {
		t.Errorf("Stats = %+v, want empty grid", result.Stats)
	}
}

func TestExecuteRasterImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 48, 24))
	for y := range 24 {
		for x := range 24 {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, "reef.png", buf.Bytes())

	result, err := quietRunner(nil).Execute(context.Background(), Options{Image: path, Formats: []string{"json"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Stats.Strategy != sim.StrategyRaster {
		t.Errorf("Strategy = %v, want raster", result.Stats.Strategy)
	}
	if result.Stats.TileCount == 0 {
		t.Error("TileCount = 0, want raster tiles")
	}
	if w, h := result.Engine.Canvas(); w != 48 || h != 24 {
		t.Errorf("Canvas() = %vx%v, want 48x24", w, h)
	}
}

func TestExecuteUntilCollapse(t *testing.T) {
	path := writeFile(t, "reef.svg", []byte(reefSVG))
	result, err := quietRunner(nil).Execute(context.Background(), Options{Source: path, UntilCollapse: true, Seed: 9})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Stats.Collapsed || result.Stats.Removed != result.Stats.TileCount {
		t.Errorf("Stats = %+v, want collapsed with everything removed", result.Stats)
	}
	if !strings.Contains(string(result.Artifacts["svg"]), "REEF COLLAPSE") {
		t.Error("svg missing collapse banner")
	}
}

func TestExecuteCaches(t *testing.T) {
	path := writeFile(t, "reef.svg", []byte(reefSVG))
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(c)
	opts := Options{Source: path, Seed: 5, Formats: []string{"svg"}}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.DocumentHit || first.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.DocumentHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}

	opts.Refresh = true
	third, _ := r.Execute(context.Background(), opts)
	if third.CacheInfo.DocumentHit {
		t.Error("Refresh still hit the document cache")
	}
}

func TestRenderFormatUnsupported(t *testing.T) {
	if _, err := RenderFormat(sim.Snapshot{}, "pdf", 0, Options{}); err == nil {
		t.Error("RenderFormat(pdf) error = nil")
	}
}

func TestSimulateBounded(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Threshold = 1
	e := sim.NewEngine(cfg, sim.Inputs{}, sim.WithSeed(1))

	done := make(chan struct{})
	go func() {
		Simulate(e, Options{UntilCollapse: true})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Simulate() did not return on an empty grid")
	}
	if e.State().Actions != 0 {
		t.Errorf("Actions = %d, want 0 for empty grid", e.State().Actions)
	}
}
