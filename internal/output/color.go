// ABOUTME: Terminal palette and lipgloss styles for moody output.
// ABOUTME: Color is switched off when stdout is not a terminal or NO_COLOR is set.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Palette shared by every renderer.
var (
	ColorPrimary = lipgloss.Color("#64b5f6")
	ColorUp      = lipgloss.Color("#66bb6a")
	ColorDown    = lipgloss.Color("#ef5350")
	ColorMuted   = lipgloss.Color("#888888")
)

// Styles used by the renderers.
var (
	StyleHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleUp     = lipgloss.NewStyle().Foreground(ColorUp)
	StyleDown   = lipgloss.NewStyle().Foreground(ColorDown)
	StyleMuted  = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold   = lipgloss.NewStyle().Bold(true)
)

var noColor bool

// SetNoColor turns styling off (or back on) for lipgloss and fatih/color.
func SetNoColor(disabled bool) {
	noColor = disabled
	color.NoColor = disabled
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleUp = plain
		StyleDown = plain
		StyleMuted = plain
		StyleBold = plain
	}
}

// IsNoColor reports whether styling is off.
func IsNoColor() bool {
	return noColor
}

// Detect disables color unless f is a terminal and NO_COLOR is unset.
func Detect(f *os.File) {
	if os.Getenv("NO_COLOR") != "" {
		SetNoColor(true)
		return
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		SetNoColor(true)
	}
}
