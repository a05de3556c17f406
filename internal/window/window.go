// Package window plays the simulation in a desktop window with ebiten.
//
// Left click removes the tile (or group) under the cursor, space acts with
// a random magnitude, X removes one random tile and R rebuilds the grid.
// Resizing the window resizes the canvas, which rebuilds the grid. When
// the reef collapses the banner fades in.
package window

import (
	"image/color"
	"math"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/matzehuels/reefgrid/pkg/render/sink"
	"github.com/matzehuels/reefgrid/pkg/sim"
	"github.com/matzehuels/reefgrid/pkg/vector"
)

// bannerFadeSeconds is how long the collapse banner takes to appear.
const bannerFadeSeconds = 0.8

// Input is one frame of user input.
type Input struct {
	Click  bool
	X, Y   float64
	Act    bool
	Random bool
	Reset  bool
	Quit   bool
}

// Game implements ebiten.Game over a simulation engine.
type Game struct {
	engine *sim.Engine
	logger *log.Logger

	pixel  *ebiten.Image // 1×1 white, scaled for every rectangle
	banner *ebiten.Image

	fade        *gween.Tween
	bannerAlpha float32
	collapsed   bool

	layoutW, layoutH int
}

// New creates a game for e.
func New(e *sim.Engine, logger *log.Logger) *Game {
	if logger == nil {
		logger = log.Default()
	}
	return &Game{engine: e, logger: logger}
}

// Update polls ebiten's input state and advances the game one tick.
func (g *Game) Update() error {
	in := Input{
		Act:    inpututil.IsKeyJustPressed(ebiten.KeySpace),
		Random: inpututil.IsKeyJustPressed(ebiten.KeyX),
		Reset:  inpututil.IsKeyJustPressed(ebiten.KeyR),
		Quit:   inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ),
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		in.Click, in.X, in.Y = true, float64(x), float64(y)
	}
	if g.Handle(in, 1/float32(ebiten.TPS())) {
		return ebiten.Termination
	}
	return nil
}

// Handle applies one frame of input and advances the banner fade by dt
// seconds. It reports whether the game should quit.
func (g *Game) Handle(in Input, dt float32) bool {
	if in.Quit {
		return true
	}
	switch {
	case in.Reset:
		g.engine.Reset()
		g.logger.Info("reset", "tiles", g.engine.State().Total)
	case in.Click:
		if n := g.engine.KillAt(in.X, in.Y); n > 0 {
			g.logger.Debug("click", "x", in.X, "y", in.Y, "killed", n)
		}
	case in.Act:
		mag, n := g.engine.Act()
		g.logger.Debug("act", "magnitude", math.Round(mag), "killed", n)
	case in.Random:
		g.engine.KillRandom()
	}

	collapsed := g.engine.State().Collapsed
	switch {
	case collapsed && !g.collapsed:
		g.fade = gween.New(0, 1, bannerFadeSeconds, ease.OutQuad)
		g.bannerAlpha = 0
	case !collapsed:
		g.fade = nil
		g.bannerAlpha = 0
	}
	g.collapsed = collapsed

	if g.fade != nil {
		v, done := g.fade.Update(dt)
		g.bannerAlpha = v
		if done {
			g.fade = nil
		}
	}
	return false
}

// BannerAlpha is the current banner opacity in [0, 1].
func (g *Game) BannerAlpha() float32 { return g.bannerAlpha }

// Layout keeps the canvas in step with the window. A size change resizes
// the engine, which rebuilds the grid.
func (g *Game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW <= 0 || outsideH <= 0 {
		return max(g.layoutW, 1), max(g.layoutH, 1)
	}
	if outsideW != g.layoutW || outsideH != g.layoutH {
		cw, ch := g.engine.Canvas()
		if int(math.Round(cw)) != outsideW || int(math.Round(ch)) != outsideH {
			g.engine.Resize(float64(outsideW), float64(outsideH))
			g.logger.Debug("resized", "width", outsideW, "height", outsideH, "tiles", g.engine.State().Total)
		}
		g.layoutW, g.layoutH = outsideW, outsideH
	}
	return outsideW, outsideH
}

// Draw paints the current snapshot.
func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.engine.Snapshot()
	screen.Fill(vector.MustColor(snap.Background).NRGBA())

	dead := vector.MustColor(snap.DeadColor).NRGBA()
	for _, t := range snap.Tiles {
		c := t.Color.NRGBA()
		if t.Dead {
			c = dead
		}
		g.fillRect(screen, t.X, t.Y, t.W+0.5, t.H+0.5, c)
	}

	if snap.Overlay > 0 {
		g.fillRect(screen, 0, 0, snap.Width, snap.Height, color.NRGBA{255, 255, 255, uint8(min(snap.Overlay, 255))})
	}

	if snap.Collapsed && g.bannerAlpha > 0 {
		if img := g.bannerImage(snap); img != nil {
			op := &ebiten.DrawImageOptions{}
			b := img.Bounds()
			op.GeoM.Translate((snap.Width-float64(b.Dx()))/2, (snap.Height-float64(b.Dy()))/2)
			op.ColorScale.ScaleAlpha(g.bannerAlpha)
			screen.DrawImage(img, op)
		}
	}

	ebitenutil.DebugPrintAt(screen, snap.Panel.String(), 8, 8)
}

func (g *Game) fillRect(dst *ebiten.Image, x, y, w, h float64, c color.Color) {
	if g.pixel == nil {
		g.pixel = ebiten.NewImage(1, 1)
		g.pixel.Fill(color.White)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	dst.DrawImage(g.pixel, op)
}

// bannerImage renders the banner text once with gg.
func (g *Game) bannerImage(snap sim.Snapshot) *ebiten.Image {
	if g.banner != nil {
		return g.banner
	}
	face, err := sink.BannerFace()
	if err != nil {
		g.logger.Warn("banner font", "err", err)
		return nil
	}
	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	w, h := measure.MeasureString(snap.BannerText)

	dc := gg.NewContext(int(math.Ceil(w))+16, int(math.Ceil(h))+24)
	dc.SetFontFace(face)
	dc.SetHexColor(snap.BannerHex)
	dc.DrawStringAnchored(snap.BannerText, float64(dc.Width())/2, float64(dc.Height())/2, 0.5, 0.5)
	g.banner = ebiten.NewImageFromImage(dc.Image())
	return g.banner
}

// Run opens a window sized to the engine's canvas and blocks until it is
// closed.
func Run(e *sim.Engine, title string, logger *log.Logger) error {
	w, h := e.Canvas()
	ebiten.SetWindowSize(int(math.Round(w)), int(math.Round(h)))
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err := ebiten.RunGame(New(e, logger))
	if err == ebiten.Termination {
		return nil
	}
	return err
}
