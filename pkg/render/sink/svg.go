package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/reefgrid/pkg/sim"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	panel  bool
	groups bool
}

// WithPanel draws the numeric panel in the top-left corner.
func WithPanel() SVGOption { return func(r *svgRenderer) { r.panel = true } }

// WithGroupAttrs tags grouped tiles with a data-group attribute.
func WithGroupAttrs() SVGOption { return func(r *svgRenderer) { r.groups = true } }

// RenderSVG renders the snapshot as a standalone SVG document.
func RenderSVG(snap sim.Snapshot, opts ...SVGOption) []byte {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		snap.Width, snap.Height, snap.Width, snap.Height)
	fmt.Fprintf(&buf, `  <rect class="desktop" width="100%%" height="100%%" fill="%s"/>`+"\n", snap.Background)

	buf.WriteString(`  <g class="tiles">` + "\n")
	for _, t := range snap.Tiles {
		class := "tile"
		if t.Dead {
			class = "tile dead"
		}
		fmt.Fprintf(&buf, `    <rect class="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"`,
			class, t.X, t.Y, t.W+seamPad, t.H+seamPad, fillOf(t, snap).Hex())
		if r.groups && t.Group != "" {
			fmt.Fprintf(&buf, ` data-group="%s"`, html.EscapeString(t.Group))
		}
		buf.WriteString("/>\n")
	}
	buf.WriteString("  </g>\n")

	if snap.Overlay > 0 {
		fmt.Fprintf(&buf, `  <rect class="overlay" width="100%%" height="100%%" fill="#ffffff" fill-opacity="%.3f"/>`+"\n",
			snap.Overlay/255)
	}
	if snap.Collapsed && snap.BannerText != "" {
		fmt.Fprintf(&buf, `  <text class="banner" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" `+
			`font-family="sans-serif" font-weight="bold" font-size="%d" fill="%s">%s</text>`+"\n",
			snap.Width/2, snap.Height/2, BannerSize, snap.BannerHex, html.EscapeString(snap.BannerText))
	}
	if r.panel {
		fmt.Fprintf(&buf, `  <text class="panel" x="12" y="24" font-family="monospace" font-size="14" fill="#ffffff">%s</text>`+"\n",
			html.EscapeString(snap.Panel.String()))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
