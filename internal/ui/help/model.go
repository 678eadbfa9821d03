package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/theme"
)

var gestures = [][2]string{
	{"drag", "move a note"},
	{"click", "bring to front"},
	{"double click", "edit"},
	{"hold", "edit without moving"},
	{"wheel", "pan the canvas"},
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the keyboard and mouse reference.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Mouse"),
		m.renderGestures(),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func (m Model) renderGestures() string {
	keyStyle := m.help.Styles.FullKey
	descStyle := m.help.Styles.FullDesc

	var keyCol, descCol []string
	for _, g := range gestures {
		keyCol = append(keyCol, keyStyle.Render(g[0]))
		descCol = append(descCol, descStyle.Render(g[1]))
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, keyCol...),
		"  ",
		lipgloss.JoinVertical(lipgloss.Left, descCol...),
	)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
