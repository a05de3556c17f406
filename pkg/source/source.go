// Package source loads the inputs of the tile engine from disk or memory.
//
// An .svg file is used twice: its text feeds the vector parser and its
// rendering feeds the raster strategy. Bitmap formats (PNG, JPEG, GIF, BMP,
// TIFF, WebP) only provide a raster.
package source

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/grid"
)

// Source is a loaded input.
type Source struct {
	// Name is the file name the data came from.
	Name string
	// Markup is the vector text; empty for bitmaps.
	Markup string
	// Raster renders the image for the raster strategy; nil when the data
	// could not be decoded as an image.
	Raster grid.Rasterizer
	// RasterErr records why Raster is nil.
	RasterErr error
	// Data is the raw file content.
	Data []byte
}

// IsVector reports whether the source carries vector markup.
func (s *Source) IsVector() bool { return s != nil && s.Markup != "" }

// Load reads and decodes a file. Only an unreadable file is an error;
// undecodable content yields a Source with a nil Raster.
func Load(path string) (*Source, error) {
	if err := errors.ValidateFilePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "read %s", path)
	}
	return Decode(filepath.Base(path), data), nil
}

// Decode interprets data by the extension of name, falling back to
// content sniffing for names without a known extension.
func Decode(name string, data []byte) *Source {
	src := &Source{Name: name, Data: data}
	if isSVG(name, data) {
		src.Markup = string(data)
		if r, err := NewSVGRaster(data); err != nil {
			src.RasterErr = err
		} else {
			src.Raster = r
		}
		return src
	}
	if r, err := NewBitmapRaster(data); err != nil {
		src.RasterErr = err
	} else {
		src.Raster = r
	}
	return src
}

func isSVG(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".svg":
		return true
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return false
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// =============================================================================
// Bitmaps
// =============================================================================

// BitmapRaster resamples a decoded bitmap with bilinear filtering.
type BitmapRaster struct {
	img image.Image
}

// NewBitmapRaster decodes any registered image format.
func NewBitmapRaster(data []byte) (*BitmapRaster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "decode image")
	}
	return &BitmapRaster{img: img}, nil
}

// NewBitmapRasterFromImage wraps an already decoded image.
func NewBitmapRasterFromImage(img image.Image) *BitmapRaster {
	return &BitmapRaster{img: img}
}

// Size implements grid.Rasterizer.
func (r *BitmapRaster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// Rasterize implements grid.Rasterizer.
func (r *BitmapRaster) Rasterize(cols, rows int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), r.img, r.img.Bounds(), xdraw.Over, nil)
	return dst
}

// =============================================================================
// SVG
// =============================================================================

// Intrinsic size of an SVG with no usable view box.
const (
	defaultSVGWidth  = 300
	defaultSVGHeight = 150
)

// SVGRaster renders SVG markup with oksvg. Unlike the vector parser it
// draws every supported element, not just rectangles.
type SVGRaster struct {
	icon *oksvg.SvgIcon
	w, h int
}

// NewSVGRaster parses SVG markup for rendering. Unsupported elements are
// skipped rather than treated as errors.
func NewSVGRaster(data []byte) (*SVGRaster, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "render svg")
	}
	w := int(math.Round(icon.ViewBox.W))
	h := int(math.Round(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		w, h = defaultSVGWidth, defaultSVGHeight
	}
	return &SVGRaster{icon: icon, w: w, h: h}, nil
}

// Size implements grid.Rasterizer.
func (r *SVGRaster) Size() (int, int) { return r.w, r.h }

// Rasterize implements grid.Rasterizer.
func (r *SVGRaster) Rasterize(cols, rows int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows))
	r.icon.SetTarget(0, 0, float64(cols), float64(rows))
	scanner := rasterx.NewScannerGV(cols, rows, dst, dst.Bounds())
	r.icon.Draw(rasterx.NewDasher(cols, rows, scanner), 1)
	return dst
}
