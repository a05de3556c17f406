package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/reefgrid/pkg/pipeline"
	"github.com/matzehuels/reefgrid/pkg/sim"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, collapse
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	StyleCollapsed = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Stats Display
// =============================================================================

// statsLine renders run statistics as one dim, dot-separated line.
func statsLine(s pipeline.Stats, cached bool) string {
	parts := []string{
		string(s.Strategy),
		fmt.Sprintf("%d tiles", s.TileCount),
	}
	if s.Parser != "" {
		parts = append(parts, s.Parser+" parser")
	}
	if s.GroupCount > 0 {
		parts = append(parts, fmt.Sprintf("%d groups", s.GroupCount))
	}
	if s.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", s.Removed))
	}
	if s.Actions > 0 {
		parts = append(parts, fmt.Sprintf("%d actions", s.Actions))
	}

	rendered := make([]string, 0, len(parts)+2)
	for _, p := range parts {
		rendered = append(rendered, StyleDim.Render(p))
	}
	if s.Collapsed {
		rendered = append(rendered, StyleCollapsed.Render("collapsed"))
	}
	if cached {
		rendered = append(rendered, styleCached.Render(iconCached))
	} else {
		rendered = append(rendered, styleComputed.Render(iconFresh))
	}
	return "  " + strings.Join(rendered, StyleDim.Render(" · "))
}

func printStats(s pipeline.Stats, cached bool) {
	fmt.Println(statsLine(s, cached))
}

// panelLine renders the numeric panel for terminal output.
func panelLine(p sim.Panel) string {
	return fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		StyleDim.Render("tiles"), StyleNumber.Render(fmt.Sprint(p.TilesTotal)),
		StyleDim.Render("removed"), StyleNumber.Render(fmt.Sprint(p.TilesRemoved)),
		StyleDim.Render("progress"), StyleNumber.Render(fmt.Sprintf("%.1f%%", p.ProgressPercent)),
		StyleDim.Render("actions"), StyleNumber.Render(fmt.Sprint(p.Actions)))
}
