package vector

import (
	"math"
	"testing"

	"github.com/matzehuels/reefgrid/pkg/errors"
)

var yellow = NewFilter("#ffe100", "#ffffff")

func TestParseViewBoxAndRect(t *testing.T) {
	markup := `<svg viewBox="0 0 200 100"><rect x="10" y="10" width="20" height="20" fill="#ffe100"/></svg>`

	doc := Parse(markup, yellow)
	if doc.Method != "xml" {
		t.Errorf("Method = %q, want xml", doc.Method)
	}
	if doc.Space == nil {
		t.Fatal("Space = nil, want view box")
	}
	if *doc.Space != (Space{0, 0, 200, 100}) {
		t.Errorf("Space = %+v, want {0 0 200 100}", *doc.Space)
	}
	if len(doc.Rects) != 1 {
		t.Fatalf("len(Rects) = %d, want 1", len(doc.Rects))
	}
	want := Rect{X: 10, Y: 10, W: 20, H: 20, Color: RGB{0xff, 0xe1, 0x00}}
	if doc.Rects[0] != want {
		t.Errorf("Rects[0] = %+v, want %+v", doc.Rects[0], want)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name string
		rect string
		keep bool
	}{
		{"active fill", `<rect width="1" height="1" fill="#ffe100"/>`, true},
		{"active short upper", `<rect width="1" height="1" fill="#FE0"/>`, false},
		{"active via style", `<rect width="1" height="1" style="stroke:red; fill: #FFE100"/>`, true},
		{"fill none falls back to style", `<rect width="1" height="1" fill="none" style="fill:#ffe100"/>`, true},
		{"fill none", `<rect width="1" height="1" fill="none"/>`, false},
		{"no fill", `<rect width="1" height="1"/>`, false},
		{"other color", `<rect width="1" height="1" fill="#123456"/>`, false},
		{"named color", `<rect width="1" height="1" fill="yellow"/>`, false},
		{"white opaque", `<rect width="1" height="1" fill="#ffffff" opacity="1"/>`, false},
		{"white transparent", `<rect width="1" height="1" fill="#fff" opacity="0"/>`, false},
		{"zero width", `<rect width="0" height="1" fill="#ffe100"/>`, false},
		{"negative height", `<rect width="1" height="-4" fill="#ffe100"/>`, false},
		{"missing height", `<rect width="1" fill="#ffe100"/>`, false},
		{"unit suffix", `<rect width="3px" height="2px" fill="#ffe100"/>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(`<svg>`+tt.rect+`</svg>`, yellow)
			if got := len(doc.Rects) == 1; got != tt.keep {
				t.Errorf("kept = %v, want %v (rects %+v)", got, tt.keep, doc.Rects)
			}
		})
	}
}

func TestParseShortHexMatchesActive(t *testing.T) {
	f := NewFilter("#ff0", "#fff")
	doc := Parse(`<svg><rect width="1" height="1" fill="#FF0"/></svg>`, f)
	if len(doc.Rects) != 1 {
		t.Fatalf("len(Rects) = %d, want 1", len(doc.Rects))
	}
	if got := doc.Rects[0].Color.Hex(); got != "#ffff00" {
		t.Errorf("Color = %s, want #ffff00", got)
	}
}

func TestParseGroups(t *testing.T) {
	markup := `<svg viewBox="0 0 10 10">
  <g id="outer">
    <g data-group="coral">
      <g id="inner">
        <rect width="1" height="1" fill="#ffe100"/>
      </g>
    </g>
    <rect width="1" height="1" fill="#ffe100"/>
    <rect id="self" width="1" height="1" fill="#ffe100"/>
  </g>
  <rect width="1" height="1" fill="#ffe100"/>
</svg>`

	doc := Parse(markup, yellow)
	want := []string{"coral", "outer", "self", ""}
	if len(doc.Rects) != len(want) {
		t.Fatalf("len(Rects) = %d, want %d", len(doc.Rects), len(want))
	}
	for i, g := range want {
		if doc.Rects[i].Group != g {
			t.Errorf("Rects[%d].Group = %q, want %q", i, doc.Rects[i].Group, g)
		}
	}
	if got := doc.Groups(); len(got) != 3 || got[0] != "coral" || got[2] != "self" {
		t.Errorf("Groups() = %v, want [coral outer self]", got)
	}
}

func TestParseFallsBackToScan(t *testing.T) {
	// Undefined entities and unclosed elements are rejected by the XML decoder.
	markup := `<svg viewBox="5,5,50,50"><g data-group="a"><rect x="1" y="2" width="3" height="4" fill="#ffe100">&nbsp;</svg>`

	doc := Parse(markup, yellow)
	if doc.Method != "scan" {
		t.Fatalf("Method = %q, want scan", doc.Method)
	}
	if !errors.Is(doc.Err, errors.ErrCodeParseMalformed) {
		t.Errorf("Err = %v, want PARSE_MALFORMED", doc.Err)
	}
	if len(doc.Rects) != 1 {
		t.Fatalf("len(Rects) = %d, want 1", len(doc.Rects))
	}
	if doc.Rects[0].Group != "" {
		t.Errorf("Group = %q, want empty from scan", doc.Rects[0].Group)
	}
	if doc.Space == nil || doc.Space.OriginX != 5 || doc.Space.Width != 50 {
		t.Errorf("Space = %+v, want origin 5 width 50", doc.Space)
	}
}

func TestParseEmpty(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"blank", "   "},
		{"no rects", `<svg viewBox="0 0 1 1"><circle r="4"/></svg>`},
		{"garbage", "not markup at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.markup, yellow)
			if len(doc.Rects) != 0 {
				t.Errorf("len(Rects) = %d, want 0", len(doc.Rects))
			}
		})
	}
}

func TestParseBadViewBox(t *testing.T) {
	tests := []string{
		`viewBox="0 0 10"`,
		`viewBox="0 0 ten 10"`,
		`viewBox=""`,
	}
	for _, vb := range tests {
		doc := Parse(`<svg `+vb+`><rect width="1" height="1" fill="#ffe100"/></svg>`, yellow)
		if doc.Space != nil {
			t.Errorf("%s: Space = %+v, want nil", vb, *doc.Space)
		}
	}
}

func TestXMLParserCharset(t *testing.T) {
	markup := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<svg><rect id=\"caf\xe9\" width=\"1\" height=\"1\" fill=\"#ffe100\"/></svg>"
	doc, err := XMLParser{}.Parse(markup, yellow)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Rects) != 1 || doc.Rects[0].Group != "café" {
		t.Errorf("Rects = %+v, want one rect in group café", doc.Rects)
	}
}

func TestFilterEmptyActiveKeepsAll(t *testing.T) {
	f := NewFilter("", "#ffffff")
	tests := []struct {
		hex     string
		opacity float64
		want    bool
	}{
		{"#123456", math.NaN(), true},
		{"#ffffff", 1, true},
		{"#ffffff", 0.0005, false},
	}
	for _, tt := range tests {
		if got := f.Keep(tt.hex, tt.opacity); got != tt.want {
			t.Errorf("Keep(%s, %v) = %v, want %v", tt.hex, tt.opacity, got, tt.want)
		}
	}
}
