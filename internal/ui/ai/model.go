package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aiservice "github.com/nhle/plotta/internal/ai"
	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// PanelCloseMsg signals the parent to close the AI panel.
type PanelCloseMsg struct{}

// ResponseMsg carries the assistant's answer to one request.
type ResponseMsg struct {
	Action aiservice.Action
	Text   string
	Err    error
}

// CreateDraftMsg asks the parent to add a generated note to the canvas.
type CreateDraftMsg struct {
	Draft model.NoteDraft
}

// Source supplies the notes of the canvas the panel works on.
type Source interface {
	ProjectID() string
	Notes() []model.Note
	Placer() *canvas.Placer
}

var actions = []aiservice.Action{
	aiservice.ActionSearch,
	aiservice.ActionInsights,
	aiservice.ActionGenerate,
}

// Model is the AI panel: pick an action, type a prompt, read the answer,
// and for generated notes, drop the result on the canvas.
type Model struct {
	ctx       context.Context
	assistant *aiservice.Assistant
	source    Source
	input     textarea.Model
	viewport  viewport.Model
	actionIdx int
	response  string
	responded aiservice.Action
	waiting   bool
	err       error
	width     int
	height    int
}

// New creates a new AI panel model. If assistant is nil (no API key),
// the panel displays a configuration prompt instead.
func New(
	ctx context.Context,
	assistant *aiservice.Assistant,
	source Source,
	width, height int,
) Model {
	ta := textarea.New()
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vp := viewport.New(width-4, max(height-10, 4))
	vp.Style = lipgloss.NewStyle()

	m := Model{
		ctx:       ctx,
		assistant: assistant,
		source:    source,
		input:     ta,
		viewport:  vp,
		width:     width,
		height:    height,
	}
	m.updatePlaceholder()
	return m
}

// Init returns the initial command for the AI panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Action returns the selected action.
func (m Model) Action() aiservice.Action { return actions[m.actionIdx] }

// Update handles messages for the AI panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResponseMsg:
		m.waiting = false
		m.err = msg.Err
		m.response = msg.Text
		m.responded = msg.Action
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.waiting {
			return m, nil
		}
		return m, func() tea.Msg { return PanelCloseMsg{} }

	case "tab":
		if m.waiting {
			return m, nil
		}
		m.actionIdx = (m.actionIdx + 1) % len(actions)
		m.updatePlaceholder()
		m.refreshViewport()
		return m, nil

	case "ctrl+s":
		if m.responded != aiservice.ActionGenerate || m.response == "" || m.source == nil {
			return m, nil
		}
		draft := aiservice.DraftFromResponse(m.source.Placer(), m.source.ProjectID(), m.response)
		m.response = ""
		m.responded = ""
		m.input.Reset()
		m.refreshViewport()
		return m, func() tea.Msg { return CreateDraftMsg{Draft: draft} }

	case "enter":
		if m.assistant == nil || m.waiting {
			return m, nil
		}
		prompt := strings.TrimSpace(m.input.Value())
		action := m.Action()
		if prompt == "" && action != aiservice.ActionInsights {
			return m, nil
		}
		m.waiting = true
		m.err = nil
		m.refreshViewport()
		return m, m.ask(action, prompt)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask returns a command that sends the request with the canvas notes.
func (m Model) ask(action aiservice.Action, prompt string) tea.Cmd {
	assistant, ctx := m.assistant, m.ctx
	var notes []model.Note
	if m.source != nil {
		notes = m.source.Notes()
	}
	return func() tea.Msg {
		text, err := assistant.Ask(ctx, action, prompt, notes)
		return ResponseMsg{Action: action, Text: text, Err: err}
	}
}

func (m *Model) updatePlaceholder() {
	switch m.Action() {
	case aiservice.ActionSearch:
		m.input.Placeholder = "What are you looking for? (e.g. notes about marketing ideas)"
	case aiservice.ActionInsights:
		m.input.Placeholder = "Optional focus for the summary"
	case aiservice.ActionGenerate:
		m.input.Placeholder = "What should I create? (e.g. action items from my meeting notes)"
	}
}

// refreshViewport re-renders the response and scrolls to the top.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderResponse())
	m.viewport.GotoTop()
}

func (m Model) renderResponse() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)

	switch {
	case m.waiting:
		return hint.Render("...")
	case m.err != nil:
		return theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.response == "":
		return hint.Render("Tab switches between search, insights and generate.")
	}

	out := lipgloss.NewStyle().Foreground(theme.ColorWhite).Render(m.response)
	if m.responded == aiservice.ActionGenerate {
		out += "\n\n" + hint.Render("ctrl+s adds this note to the canvas")
	}
	return out
}

// View renders the AI panel.
func (m Model) View() string {
	if m.assistant == nil {
		return m.renderNoAPIKey()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var tabs []string
	for i, a := range actions {
		style := theme.HelpStyle
		if i == m.actionIdx {
			style = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
		}
		tabs = append(tabs, style.Render(string(a)))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", max(min(m.width-6, 80), 0)),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("AI Assistant"),
		strings.Join(tabs, "  "),
		m.input.View(),
		separator,
		m.viewport.View(),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// renderNoAPIKey shows a message when the API key is not configured.
func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width - 4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "AI Assistant requires an Anthropic API key.\n\n" +
		"Store it with:\n" +
		"  plotta auth set-ai-key\n\n" +
		"Or set the ANTHROPIC_API_KEY environment variable.\n\n" +
		"Press Esc to go back."

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the AI panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
	m.viewport.Width = width - 4
	m.viewport.Height = max(height-10, 4)
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Reset clears the prompt and the last response.
func (m *Model) Reset() {
	m.response = ""
	m.responded = ""
	m.err = nil
	m.waiting = false
	m.input.Reset()
	m.refreshViewport()
}
