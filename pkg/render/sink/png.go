package sink

import (
	"bytes"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/sim"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
	panel bool
}

// WithScale sets the PNG scale factor (default 1).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithPNGPanel draws the numeric panel in the top-left corner.
func WithPNGPanel() PNGOption { return func(r *pngRenderer) { r.panel = true } }

var (
	boldFont = sync.OnceValues(func() (*truetype.Font, error) { return truetype.Parse(gobold.TTF) })
	monoFont = sync.OnceValues(func() (*truetype.Font, error) { return truetype.Parse(gomono.TTF) })
)

// RenderPNG rasterizes the snapshot.
func RenderPNG(snap sim.Snapshot, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}

	w := int(math.Ceil(snap.Width * r.scale))
	h := int(math.Ceil(snap.Height * r.scale))
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "canvas %gx%g has no area", snap.Width, snap.Height)
	}

	dc := gg.NewContext(w, h)
	dc.Scale(r.scale, r.scale)
	dc.SetHexColor(snap.Background)
	dc.Clear()

	for _, t := range snap.Tiles {
		c := fillOf(t, snap)
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(t.X, t.Y, t.W+seamPad, t.H+seamPad)
		dc.Fill()
	}

	if snap.Overlay > 0 {
		dc.SetRGBA255(255, 255, 255, int(math.Round(min(snap.Overlay, 255))))
		dc.DrawRectangle(0, 0, snap.Width, snap.Height)
		dc.Fill()
	}

	if snap.Collapsed && snap.BannerText != "" {
		face, err := newFace(boldFont, BannerSize)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
		dc.SetHexColor(snap.BannerHex)
		dc.DrawStringAnchored(snap.BannerText, snap.Width/2, snap.Height/2, 0.5, 0.5)
	}

	if r.panel {
		face, err := newFace(monoFont, 14)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
		dc.SetRGB(1, 1, 1)
		dc.DrawString(snap.Panel.String(), 12, 24)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// BannerFace returns the bold face the collapse banner is drawn with.
func BannerFace() (font.Face, error) { return newFace(boldFont, BannerSize) }

func newFace(load func() (*truetype.Font, error), size float64) (font.Face, error) {
	f, err := load()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse font")
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
