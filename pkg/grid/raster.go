package grid

import (
	"image"
	"image/color"
	"math"

	"github.com/matzehuels/reefgrid/pkg/vector"
)

const (
	// minGridDim is the smallest column or row count GridSize returns.
	minGridDim = 10
	// minAlpha is the alpha at or below which a cell is empty.
	minAlpha = 8
)

// Rasterizer draws an image into a buffer of exactly cols x rows pixels.
type Rasterizer interface {
	// Size returns the natural size of the image in pixels.
	Size() (w, h int)
	// Rasterize draws the whole image scaled to cols x rows. Pixels the
	// image does not cover are fully transparent.
	Rasterize(cols, rows int) image.Image
}

// RasterOptions configures BuildFromRaster.
type RasterOptions struct {
	Cols, Rows       int
	CanvasW, CanvasH float64
	// WhiteThreshold is the Manhattan distance to pure white at or below
	// which a cell counts as white.
	WhiteThreshold int
	// IncludeWhite keeps near-white cells.
	IncludeWhite bool
}

// GridSize picks the sampling resolution for an image: about one cell per
// targetTilePx pixels, at least 10 per axis, shrunk proportionally when the
// cell count would exceed maxTiles.
func GridSize(imgW, imgH, targetTilePx, maxTiles int) (cols, rows int) {
	if targetTilePx <= 0 {
		targetTilePx = 1
	}
	cols = max(minGridDim, int(math.Round(float64(imgW)/float64(targetTilePx))))
	rows = max(minGridDim, int(math.Round(float64(imgH)/float64(targetTilePx))))

	total := cols * rows
	if maxTiles > 0 && total > maxTiles {
		ratio := math.Sqrt(float64(maxTiles) / float64(total))
		cols = max(minGridDim, int(math.Round(float64(cols)*ratio)))
		rows = max(minGridDim, int(math.Round(float64(rows)*ratio)))
	}
	return cols, rows
}

// BuildFromRaster samples src into tiles. When the first pass keeps no
// cells and IncludeWhite was off, it samples once more with white cells
// included; fallback reports whether that second pass ran.
func BuildFromRaster(src Rasterizer, opts RasterOptions) (tiles []Tile, fallback bool) {
	if src == nil || opts.Cols <= 0 || opts.Rows <= 0 {
		return nil, false
	}
	img := src.Rasterize(opts.Cols, opts.Rows)
	if img == nil {
		return nil, false
	}

	tiles = Sample(img, opts)
	if len(tiles) == 0 && !opts.IncludeWhite {
		opts.IncludeWhite = true
		return Sample(img, opts), true
	}
	return tiles, false
}

// Sample converts an already rasterized cols x rows image into tiles in
// row-major order.
func Sample(img image.Image, opts RasterOptions) []Tile {
	tw := opts.CanvasW / float64(opts.Cols)
	th := opts.CanvasH / float64(opts.Rows)
	b := img.Bounds()

	var tiles []Tile
	for r := 0; r < opts.Rows; r++ {
		for c := 0; c < opts.Cols; c++ {
			px := color.NRGBAModel.Convert(img.At(b.Min.X+c, b.Min.Y+r)).(color.NRGBA)
			if px.A <= minAlpha {
				continue
			}
			if !opts.IncludeWhite && whiteDistance(px) <= opts.WhiteThreshold {
				continue
			}
			tiles = append(tiles, Tile{
				X:     float64(c) * tw,
				Y:     float64(r) * th,
				W:     tw,
				H:     th,
				Color: vector.RGB{R: px.R, G: px.G, B: px.B},
			})
		}
	}
	return tiles
}

func whiteDistance(c color.NRGBA) int {
	return (255 - int(c.R)) + (255 - int(c.G)) + (255 - int(c.B))
}
