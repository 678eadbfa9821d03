package outline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// NoteChosenMsg is sent when the user picks a note from the outline.
type NoteChosenMsg struct {
	NoteID string
}

// CloseMsg signals the parent to close the outline.
type CloseMsg struct{}

// Source is the board the outline reads from.
type Source interface {
	View(pref model.ViewPreference, now time.Time) []model.Note
	Tags() []model.Tag
	NoteTags() map[string][]string
}

// sortModes defines the available sort modes cycled by Tab. "stack" is
// the canvas order, topmost note first.
var sortModes = []string{
	"stack",
	"title",
	"due",
	"priority",
	"updated",
}

// Model lists the visible notes of the canvas as text.
type Model struct {
	list        list.Model
	source      Source
	keys        *keys.KeyMap
	pref        model.ViewPreference
	now         func() time.Time
	sortIndex   int
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new outline model.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Outline"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search notes..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		source:      src,
		keys:        k,
		pref:        model.DefaultViewPreference(),
		now:         time.Now,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Open lists the notes visible under pref.
func (m *Model) Open(pref model.ViewPreference) tea.Cmd {
	m.pref = pref
	m.searchMode = false
	return m.Refresh()
}

// Refresh re-reads the notes from the source, keeping the selection
// where possible.
func (m *Model) Refresh() tea.Cmd {
	var selected string
	if it, ok := m.list.SelectedItem().(NoteItem); ok {
		selected = it.Note.ID
	}

	now := m.now()
	names := make(map[string]string)
	for _, t := range m.source.Tags() {
		names[t.ID] = t.Name
	}
	noteTags := m.source.NoteTags()

	notes := m.source.View(m.pref, now)
	slices.Reverse(notes)
	notes = slices.DeleteFunc(notes, func(n model.Note) bool { return !matches(n, m.query) })
	sortNotes(notes, sortModes[m.sortIndex])

	items := make([]list.Item, len(notes))
	cursor := 0
	for i, n := range notes {
		var tags []string
		for _, id := range noteTags[n.ID] {
			if name, ok := names[id]; ok {
				tags = append(tags, name)
			}
		}
		items[i] = NoteItem{Note: n, Tags: tags, Now: now}
		if n.ID == selected {
			cursor = i
		}
	}
	m.list.Title = "Outline · " + sortModes[m.sortIndex]
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// Update handles messages for the outline.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		return m, m.Refresh()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.Refresh()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.query != "" {
			m.query = ""
			m.searchInput.Reset()
			return m, m.Refresh()
		}
		return m, func() tea.Msg { return CloseMsg{} }

	case msg.String() == "enter":
		item, ok := m.list.SelectedItem().(NoteItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return NoteChosenMsg{NoteID: item.Note.ID}
		}

	case key.Matches(msg, m.keys.Filter):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Next):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		return m, m.Refresh()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the outline.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no notes are listed.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" || m.pref.HasFacets() || m.pref.ViewMode != model.ViewAll {
		return style.Render("No matching notes.\nPress esc to clear the search or change the canvas view.")
	}
	return style.Render("This canvas is empty.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

func matches(n model.Note, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q)
}

// sortNotes orders notes in place. Stack order is kept as given.
func sortNotes(notes []model.Note, mode string) {
	switch mode {
	case "title":
		slices.SortStableFunc(notes, func(a, b model.Note) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case "due":
		slices.SortStableFunc(notes, func(a, b model.Note) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		})
	case "priority":
		slices.SortStableFunc(notes, func(a, b model.Note) int {
			return cmp.Compare(priorityRank(b.Priority), priorityRank(a.Priority))
		})
	case "updated":
		slices.SortStableFunc(notes, func(a, b model.Note) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}
}

func priorityRank(p model.Priority) int {
	return slices.Index(model.Priorities, p) + 1
}
