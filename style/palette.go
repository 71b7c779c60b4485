package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Text    = lipgloss.Color("#cdd6f4")
	Subtext = lipgloss.Color("#a6adc8")
	Overlay = lipgloss.Color("#6c7086")
	Surface = lipgloss.Color("#313244")

	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")
	Yellow   = lipgloss.Color("#f9e2af")
	Green    = lipgloss.Color("#a6e3a1")
	Teal     = lipgloss.Color("#94e2d5")
	Sky      = lipgloss.Color("#89dceb")
	Blue     = lipgloss.Color("#89b4fa")
	Lavender = lipgloss.Color("#b4befe")

	AccentColor  = Mauve
	SuccessColor = Green
	WarningColor = Yellow
	ErrorColor   = Red
	FaintColor   = Overlay
	BorderColor  = Surface
)

// StateColor picks the colour used when printing a playback state name.
func StateColor(name string) lipgloss.Color {
	switch name {
	case "started":
		return SuccessColor
	case "paused", "preparing", "completed":
		return WarningColor
	case "error":
		return ErrorColor
	case "end", "stopped":
		return FaintColor
	default:
		return Sky
	}
}
