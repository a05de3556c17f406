package grid

import (
	"image"
	"image/color"
	"testing"

	"github.com/matzehuels/reefgrid/pkg/geom"
	"github.com/matzehuels/reefgrid/pkg/vector"
)

func TestBuildFromVectors(t *testing.T) {
	rects := []vector.Rect{
		{X: 10, Y: 10, W: 20, H: 20, Group: "a"},
		{X: 50, Y: 0, W: 10, H: 10},
		{X: 0, Y: 50, W: 5, H: 5, Group: "b"},
		{X: 60, Y: 60, W: 5, H: 5, Group: "a"},
	}
	space := vector.Space{Width: 200, Height: 100}
	scale := geom.ComputeScale(space, 400, 200)

	tiles, groups := BuildFromVectors(rects, space, scale)
	if len(tiles) != len(rects) {
		t.Fatalf("len(tiles) = %d, want %d", len(tiles), len(rects))
	}

	want := Tile{X: 20, Y: 20, W: 40, H: 40, Group: "a"}
	if tiles[0] != want {
		t.Errorf("tiles[0] = %+v, want %+v", tiles[0], want)
	}
	for i, tile := range tiles {
		if tile.Dead {
			t.Errorf("tiles[%d].Dead = true, want false", i)
		}
	}

	if ids := groups.IDs(); len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("IDs() = %v, want [a b]", ids)
	}
	if m := groups.Members("a"); len(m) != 2 || m[0] != 0 || m[1] != 3 {
		t.Errorf("Members(a) = %v, want [0 3]", m)
	}
	if m := groups.Members("missing"); m != nil {
		t.Errorf("Members(missing) = %v, want nil", m)
	}
}

func TestBuildFromVectorsOrigin(t *testing.T) {
	rects := []vector.Rect{{X: 15, Y: 25, W: 10, H: 10}}
	space := vector.Space{OriginX: 10, OriginY: 20, Width: 100, Height: 100}

	tiles, _ := BuildFromVectors(rects, space, geom.Scale{X: 2, Y: 3})
	want := Tile{X: 10, Y: 15, W: 20, H: 30}
	if tiles[0] != want {
		t.Errorf("tiles[0] = %+v, want %+v", tiles[0], want)
	}
}

func TestTileContains(t *testing.T) {
	tile := Tile{X: 10, Y: 10, W: 5, H: 5}
	tests := []struct {
		x, y float64
		want bool
	}{
		{12, 12, true},
		{10, 10, true},
		{15, 15, true},
		{15.01, 12, false},
		{9.99, 12, false},
	}
	for _, tt := range tests {
		if got := tile.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		cols, rows int
	}{
		{"typical", 240, 120, 20, 10},
		{"floored at ten", 12, 12, 10, 10},
		{"capped", 1728, 1728, 110, 110},
		{"under cap", 6000, 120, 500, 10},
		{"capped wide", 18000, 120, 1342, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := GridSize(tt.w, tt.h, 12, 12000)
			if cols != tt.cols || rows != tt.rows {
				t.Errorf("GridSize(%d, %d) = %d x %d, want %d x %d", tt.w, tt.h, cols, rows, tt.cols, tt.rows)
			}
		})
	}
}

// imageRaster serves a fixed image regardless of the requested size.
type imageRaster struct {
	img   image.Image
	calls int
}

func (r *imageRaster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *imageRaster) Rasterize(cols, rows int) image.Image {
	r.calls++
	return r.img
}

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestBuildFromRaster(t *testing.T) {
	img := fill(4, 2, color.NRGBA{0, 0, 0, 0})
	img.SetNRGBA(1, 0, color.NRGBA{0xff, 0xe1, 0x00, 0xff})
	img.SetNRGBA(3, 1, color.NRGBA{10, 20, 30, 200})
	img.SetNRGBA(2, 1, color.NRGBA{250, 250, 250, 255}) // near white
	img.SetNRGBA(0, 1, color.NRGBA{10, 10, 10, 8})      // too transparent

	src := &imageRaster{img: img}
	tiles, fallback := BuildFromRaster(src, RasterOptions{
		Cols: 4, Rows: 2, CanvasW: 400, CanvasH: 100, WhiteThreshold: 30,
	})
	if fallback {
		t.Error("fallback = true, want false")
	}
	if len(tiles) != 2 {
		t.Fatalf("len(tiles) = %d, want 2", len(tiles))
	}
	want0 := Tile{X: 100, Y: 0, W: 100, H: 50, Color: vector.RGB{0xff, 0xe1, 0x00}}
	if tiles[0] != want0 {
		t.Errorf("tiles[0] = %+v, want %+v", tiles[0], want0)
	}
	want1 := Tile{X: 300, Y: 50, W: 100, H: 50, Color: vector.RGB{10, 20, 30}}
	if tiles[1] != want1 {
		t.Errorf("tiles[1] = %+v, want %+v", tiles[1], want1)
	}
}

func TestBuildFromRasterWhiteFallback(t *testing.T) {
	src := &imageRaster{img: fill(3, 3, color.NRGBA{255, 255, 255, 255})}

	tiles, fallback := BuildFromRaster(src, RasterOptions{
		Cols: 3, Rows: 3, CanvasW: 30, CanvasH: 30, WhiteThreshold: 30,
	})
	if !fallback {
		t.Error("fallback = false, want true")
	}
	if len(tiles) != 9 {
		t.Errorf("len(tiles) = %d, want 9", len(tiles))
	}
	if src.calls != 1 {
		t.Errorf("Rasterize calls = %d, want 1", src.calls)
	}
}

func TestBuildFromRasterFullyTransparent(t *testing.T) {
	src := &imageRaster{img: fill(3, 3, color.NRGBA{255, 0, 0, 0})}

	tiles, fallback := BuildFromRaster(src, RasterOptions{
		Cols: 3, Rows: 3, CanvasW: 30, CanvasH: 30, WhiteThreshold: 30,
	})
	if !fallback {
		t.Error("fallback = false, want true")
	}
	if len(tiles) != 0 {
		t.Errorf("len(tiles) = %d, want 0", len(tiles))
	}
}

func TestBuildFromRasterIncludeWhiteNoRetry(t *testing.T) {
	src := &imageRaster{img: fill(2, 2, color.NRGBA{0, 0, 0, 0})}
	_, fallback := BuildFromRaster(src, RasterOptions{
		Cols: 2, Rows: 2, CanvasW: 2, CanvasH: 2, IncludeWhite: true,
	})
	if fallback {
		t.Error("fallback = true, want false when white is already included")
	}
}
