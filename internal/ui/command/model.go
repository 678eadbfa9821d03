package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// Kind identifies a palette command.
type Kind string

const (
	KindArrange  Kind = "arrange"
	KindView     Kind = "view"
	KindClear    Kind = "clear"
	KindRefresh  Kind = "refresh"
	KindTags     Kind = "tags"
	KindProjects Kind = "projects"
	KindHelp     Kind = "help"
	KindQuit     Kind = "quit"
)

// Command is a parsed palette line.
type Command struct {
	Kind   Kind
	Layout canvas.Layout
	Mode   model.ViewMode
}

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg struct {
	Command Command
}

// CloseMsg signals the parent to close the palette.
type CloseMsg struct{}

// Parse reads a palette line such as "arrange circle" or "view today".
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	kind, args := Kind(fields[0]), fields[1:]

	switch kind {
	case KindArrange:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: arrange <%s>", joinLayouts())
		}
		layout := canvas.Layout(strings.ReplaceAll(args[0], "-", "_"))
		if !layout.Valid() {
			return Command{}, fmt.Errorf("unknown layout %q", args[0])
		}
		return Command{Kind: kind, Layout: layout}, nil

	case KindView:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: view <%s>", joinModes())
		}
		mode := model.ViewMode(args[0])
		if !mode.Valid() {
			return Command{}, fmt.Errorf("unknown view %q", args[0])
		}
		return Command{Kind: kind, Mode: mode}, nil

	case KindClear, KindRefresh, KindTags, KindProjects, KindHelp, KindQuit:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", kind)
		}
		return Command{Kind: kind}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", fields[0])
}

func joinLayouts() string {
	names := make([]string, len(canvas.Layouts))
	for i, l := range canvas.Layouts {
		names[i] = string(l)
	}
	return strings.Join(names, "|")
}

func joinModes() string {
	names := make([]string, len(model.ViewModes))
	for i, v := range model.ViewModes {
		names[i] = string(v)
	}
	return strings.Join(names, "|")
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "arrange grid, view today, clear..."
	ti.Prompt = ": "
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.Reset()
			return m, func() tea.Msg { return CloseMsg{} }
		case "enter":
			c, err := Parse(m.input.Value())
			if err != nil {
				m.err = err
				return m, nil
			}
			m.Reset()
			return m, func() tea.Msg { return CommandMsg{Command: c} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command"), m.input.View()}
	if m.err != nil {
		parts = append(parts, "", theme.ErrorStyle.Render(m.err.Error()))
	}
	parts = append(parts, "",
		theme.HelpStyle.Render("arrange <"+joinLayouts()+">"),
		theme.HelpStyle.Render("view <"+joinModes()+">"),
		theme.HelpStyle.Render("clear | refresh | tags | projects | help | quit"),
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Reset clears the input and any parse error.
func (m *Model) Reset() {
	m.input.Reset()
	m.err = nil
}
