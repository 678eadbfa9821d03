package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorPink    = lipgloss.AdaptiveColor{Dark: "#F783AC", Light: "#B83280"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the top bar and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps overlay panels such as help and the AI prompt.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is used for rows of the tag and project lists.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the selected list row.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// OverdueStyle highlights due dates in the past.
var OverdueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// ErrorStyle renders error lines in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// NoteColor maps a palette color to its terminal color.
func NoteColor(c model.Color) lipgloss.TerminalColor {
	switch c {
	case model.ColorYellow:
		return ColorYellow
	case model.ColorRed:
		return ColorRed
	case model.ColorBlue:
		return ColorBlue
	case model.ColorGreen:
		return ColorGreen
	case model.ColorPurple:
		return ColorMagenta
	case model.ColorOrange:
		return ColorOrange
	case model.ColorPink:
		return ColorPink
	default:
		return ColorGray
	}
}

// NoteBorder returns the frame of a note card. The focused note gets a
// thick border, locked notes a square one.
func NoteBorder(n model.Note, focused bool) lipgloss.Border {
	switch {
	case focused:
		return lipgloss.ThickBorder()
	case n.Locked:
		return lipgloss.NormalBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

// NoteFrameStyle colors a note's frame.
func NoteFrameStyle(n model.Note) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(NoteColor(n.Color))
}

// NoteTitleStyle renders a note's title.
func NoteTitleStyle(n model.Note) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(NoteColor(n.Color))
}

// PriorityStyle returns a color-coded style for the given priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityCritical:
		return base.Foreground(ColorRed)
	case model.PriorityHigh:
		return base.Foreground(ColorOrange)
	case model.PriorityMedium:
		return base.Foreground(ColorYellow)
	case model.PriorityLow:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// StatusStyle returns a color-coded style for a note's workflow status.
func StatusStyle(s model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch s {
	case model.StatusTodo:
		return base.Foreground(ColorBlue)
	case model.StatusInProgress:
		return base.Foreground(ColorYellow)
	case model.StatusDone:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}
