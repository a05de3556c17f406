package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/reefgrid/pkg/sim"
	"github.com/matzehuels/reefgrid/pkg/vector"
)

// headerLines is the number of terminal rows above the canvas.
const headerLines = 2

var (
	helpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	statusStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// playModel - Interactive terminal simulation
// =============================================================================

// playModel draws the engine's tiles with half-block characters, two
// canvas samples per terminal cell.
type playModel struct {
	engine *sim.Engine
	title  string
	width  int // terminal columns
	height int // terminal rows
	status string
}

func newPlayModel(e *sim.Engine, title string) playModel {
	return playModel{engine: e, title: title, width: 80, height: 24}
}

func (m playModel) Init() tea.Cmd { return nil }

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			mag, killed := m.engine.Act()
			m.status = fmt.Sprintf("act %.0f units: %d tiles", mag, killed)
		case "x":
			m.status = fmt.Sprintf("random kill: %d tiles", m.engine.KillRandom())
		case "r":
			m.engine.Reset()
			m.status = "reset"
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if x, y, ok := m.canvasPoint(msg.X, msg.Y); ok {
				m.status = fmt.Sprintf("click %.0f,%.0f: %d tiles", x, y, m.engine.KillAt(x, y))
			}
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

// canvasSize is the canvas area in terminal cells.
func (m playModel) canvasSize() (cols, rows int) {
	return max(m.width, 1), max(m.height-headerLines, 1)
}

// canvasPoint maps a terminal cell to the canvas point at its center.
func (m playModel) canvasPoint(cellX, cellY int) (x, y float64, ok bool) {
	cols, rows := m.canvasSize()
	cy := cellY - headerLines
	if cellX < 0 || cellX >= cols || cy < 0 || cy >= rows {
		return 0, 0, false
	}
	w, h := m.engine.Canvas()
	return (float64(cellX) + 0.5) * w / float64(cols), (float64(cy) + 0.5) * h / float64(rows), true
}

func (m playModel) View() string {
	snap := m.engine.Snapshot()
	cols, rows := m.canvasSize()

	var b strings.Builder
	title := StyleTitle.Render(m.title)
	if snap.Collapsed {
		title += "  " + StyleCollapsed.Render(snap.BannerText)
	}
	b.WriteString(title + "  " + panelLine(snap.Panel) + "\n")
	b.WriteString(helpStyle.Render("space act  x random  click kill  r reset  q quit"))
	if m.status != "" {
		b.WriteString("  " + statusStyle.Render(m.status))
	}
	b.WriteString("\n")

	samples := sampleSnapshot(snap, cols, rows*2)
	for y := 0; y < rows; y++ {
		writeHalfBlocks(&b, samples[2*y], samples[2*y+1])
		if y < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// writeHalfBlocks writes one terminal row: top samples as foreground,
// bottom samples as background of "▀". Runs of equal pairs share a style.
func writeHalfBlocks(b *strings.Builder, top, bottom []vector.RGB) {
	for x := 0; x < len(top); {
		end := x + 1
		for end < len(top) && top[end] == top[x] && bottom[end] == bottom[x] {
			end++
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(top[x].Hex())).
			Background(lipgloss.Color(bottom[x].Hex()))
		b.WriteString(style.Render(strings.Repeat("▀", end-x)))
		x = end
	}
}

// sampleSnapshot samples the frame on a w×h grid of points at cell
// centers. Tiles later in the slice win overlaps; the overlay is blended
// over everything.
func sampleSnapshot(snap sim.Snapshot, w, h int) [][]vector.RGB {
	bg := vector.MustColor(snap.Background)
	dead := vector.MustColor(snap.DeadColor)

	out := make([][]vector.RGB, h)
	for y := range out {
		out[y] = make([]vector.RGB, w)
		for x := range out[y] {
			out[y][x] = bg
		}
	}
	if snap.Width <= 0 || snap.Height <= 0 || w == 0 || h == 0 {
		return out
	}

	sx := float64(w) / snap.Width
	sy := float64(h) / snap.Height
	for _, t := range snap.Tiles {
		c := t.Color
		if t.Dead {
			c = dead
		}
		// Sample i sits at canvas coordinate (i+0.5)/s.
		x0 := max(0, int(math.Ceil(t.X*sx-0.5)))
		x1 := min(w-1, int(math.Floor((t.X+t.W)*sx-0.5)))
		y0 := max(0, int(math.Ceil(t.Y*sy-0.5)))
		y1 := min(h-1, int(math.Floor((t.Y+t.H)*sy-0.5)))
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				out[y][x] = c
			}
		}
	}

	if a := snap.Overlay / 255; a > 0 {
		for y := range out {
			for x := range out[y] {
				out[y][x] = blendWhite(out[y][x], a)
			}
		}
	}
	return out
}

func blendWhite(c vector.RGB, a float64) vector.RGB {
	mix := func(v uint8) uint8 { return uint8(math.Round(float64(v)*(1-a) + 255*a)) }
	return vector.RGB{R: mix(c.R), G: mix(c.G), B: mix(c.B)}
}
