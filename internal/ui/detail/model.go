package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// BackMsg signals the parent to navigate back.
type BackMsg struct{}

// Action names what the parent should do with the shown note.
type Action string

const (
	ActionEdit     Action = "edit"
	ActionCheckbox Action = "checkbox"
	ActionFront    Action = "front"
)

// ActionMsg signals the parent to act on the shown note. Index is the
// checkbox for ActionCheckbox.
type ActionMsg struct {
	Action Action
	NoteID string
	Index  int
}

// Source is the board the detail view reads from.
type Source interface {
	Note(id string) (model.Note, bool)
	Tags() []model.Tag
	NoteTags() map[string][]string
}

// Model shows one note in full, with its body scrollable.
type Model struct {
	noteID   string
	viewport viewport.Model
	source   Source
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(src Source, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		source:   src,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Open shows the note with id from the top.
func (m *Model) Open(id string) {
	m.noteID = id
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// NoteID returns the id of the shown note.
func (m Model) NoteID() string { return m.noteID }

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	// The note may have changed since the last render.
	m.viewport.SetContent(m.renderContent())

	if msg, ok := msg.(tea.KeyMsg); ok {
		n, found := m.source.Note(m.noteID)
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case !found:
			return m, nil

		case key.Matches(msg, m.keys.Edit):
			return m, m.action(ActionEdit, 0)

		case key.Matches(msg, m.keys.Front):
			return m, m.action(ActionFront, 0)

		case len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9':
			i := int(msg.Runes[0] - '1')
			if n.Locked || i >= len(canvas.Checkboxes(n.Content)) {
				return m, nil
			}
			return m, m.action(ActionCheckbox, i)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a Action, index int) tea.Cmd {
	id := m.noteID
	return func() tea.Msg {
		return ActionMsg{Action: a, NoteID: id, Index: index}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if _, ok := m.source.Note(m.noteID); !ok {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("This note was deleted.\n\nPress esc to go back.")
	}

	vp := m.viewport
	vp.SetContent(m.renderContent())
	return vp.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	n, ok := m.source.Note(m.noteID)
	if !ok {
		return ""
	}

	var sections []string

	// Title
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	sections = append(sections, theme.NoteTitleStyle(n).Render(title))

	// Badges line: color + status + priority + flags
	badges := []string{lipgloss.NewStyle().Foreground(theme.NoteColor(n.Color)).Render("● " + string(n.Color))}
	if n.Status != model.StatusNone {
		badges = append(badges, theme.StatusStyle(n.Status).Render(strings.ReplaceAll(string(n.Status), "_", " ")))
	}
	if n.Priority != model.PriorityNone {
		badges = append(badges, theme.PriorityStyle(n.Priority).Render(string(n.Priority)))
	}
	if n.Pinned {
		badges = append(badges, theme.DimmedStyle.Render("pinned"))
	}
	if n.Locked {
		badges = append(badges, theme.DimmedStyle.Render("locked"))
	}
	if n.Hidden {
		badges = append(badges, theme.DimmedStyle.Render("hidden"))
	}
	sections = append(sections, strings.Join(badges, "  "))
	sections = append(sections, "")

	// Metadata table
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-9s", label+":")), value)
	}

	if n.DueDate != nil {
		sections = append(sections, row("Due", n.DueDate.Format("Mon Jan 02 2006")))
	}
	if tags := m.tagNames(n.ID); len(tags) > 0 {
		sections = append(sections, row("Tags", "#"+strings.Join(tags, " #")))
	}
	sections = append(sections,
		row("Position", fmt.Sprintf("%.0f, %.0f", n.PositionX, n.PositionY)),
		row("Size", fmt.Sprintf("%.0f × %.0f", n.Width, n.Height)),
		row("Layer", fmt.Sprintf("%d", n.ZIndex)),
	)
	if !n.CreatedAt.IsZero() {
		sections = append(sections, row("Created", n.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if !n.UpdatedAt.IsZero() {
		sections = append(sections, row("Updated", n.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	sections = append(sections, m.renderBody(n))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderBody numbers the checkbox lines so they can be toggled with 1-9.
func (m Model) renderBody(n model.Note) string {
	if strings.TrimSpace(n.Content) == "" {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No content")
	}

	boxes := canvas.Checkboxes(n.Content)
	byLine := make(map[int]int, len(boxes))
	for i, b := range boxes {
		byLine[b.Line] = i
	}

	lines := strings.Split(n.Content, "\n")
	for i := range lines {
		idx, ok := byLine[i]
		if !ok {
			continue
		}
		b := boxes[idx]
		mark := "☐"
		text := b.Text
		if b.Checked {
			mark = "☑"
			text = theme.DimmedStyle.Render(text)
		}
		label := " "
		if idx < 9 {
			label = fmt.Sprintf("%d", idx+1)
		}
		lines[i] = fmt.Sprintf("%s %s %s", theme.DimmedStyle.Render(label), mark, text)
	}
	return strings.Join(lines, "\n")
}

func (m Model) tagNames(noteID string) []string {
	names := make(map[string]string)
	for _, t := range m.source.Tags() {
		names[t.ID] = t.Name
	}
	var out []string
	for _, id := range m.source.NoteTags()[noteID] {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
