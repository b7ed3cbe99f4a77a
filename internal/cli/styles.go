package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Adaptive colors work in both light and dark terminals.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#58A6FF"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#008000", Dark: "#3FB950"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#CC6600", Dark: "#D29922"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#8B949E"}
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
	styleNumber  = styleCell.Align(lipgloss.Right)
	styleTotal   = styleNumber.Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleKey     = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
)

// paint renders text with s unless plain output was requested.
func paint(s lipgloss.Style, plain bool, text string) string {
	if plain {
		return text
	}
	return s.Render(text)
}

func keyValue(plain bool, key, value string) string {
	if plain {
		return key + ": " + value
	}
	return styleKey.Render(key) + " " + value
}

// plain reports whether output to w should skip styling: --no-color was given or w
// is not a terminal.
func (f *rootFlags) plain(w io.Writer) bool {
	if f.noColor {
		return true
	}
	file, ok := w.(*os.File)
	return !ok || !term.IsTerminal(int(file.Fd()))
}
