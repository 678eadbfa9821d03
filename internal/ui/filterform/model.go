package filterform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// AppliedMsg carries the preference chosen in the form.
type AppliedMsg struct {
	Pref model.ViewPreference
}

// CancelMsg is dispatched when the user leaves the form without applying.
type CancelMsg struct{}

type bindings struct {
	mode       model.ViewMode
	tagIDs     []string
	priorities []model.Priority
	due        []model.DueBucket
}

// Model edits the view mode and facet selections of a view preference.
type Model struct {
	form   *huh.Form
	b      *bindings
	base   model.ViewPreference
	width  int
	height int
}

// New creates a filter form model.
func New(width, height int) Model {
	return Model{b: &bindings{}, width: width, height: height}
}

// Start opens the form on pref, offering tags as the tag facet.
func (m *Model) Start(pref model.ViewPreference, tags []model.Tag) tea.Cmd {
	m.base = pref
	*m.b = bindings{
		mode:       pref.ViewMode,
		tagIDs:     append([]string(nil), pref.SelectedTagIDs...),
		priorities: append([]model.Priority(nil), pref.SelectedPriorities...),
		due:        append([]model.DueBucket(nil), pref.SelectedDueDates...),
	}

	modes := make([]huh.Option[model.ViewMode], len(model.ViewModes))
	for i, v := range model.ViewModes {
		modes[i] = huh.NewOption(label(string(v)), v)
	}
	prios := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		prios[i] = huh.NewOption(label(string(p)), p)
	}
	buckets := make([]huh.Option[model.DueBucket], len(model.DueBuckets))
	for i, d := range model.DueBuckets {
		buckets[i] = huh.NewOption(label(string(d)), d)
	}

	fields := []huh.Field{
		huh.NewSelect[model.ViewMode]().
			Title("View").
			Options(modes...).
			Value(&m.b.mode),
	}
	if len(tags) > 0 {
		opts := make([]huh.Option[string], len(tags))
		for i, t := range tags {
			opts[i] = huh.NewOption(t.Name, t.ID)
		}
		fields = append(fields, huh.NewMultiSelect[string]().
			Title("Tags (any)").
			Options(opts...).
			Value(&m.b.tagIDs))
	}
	fields = append(fields,
		huh.NewMultiSelect[model.Priority]().
			Title("Priority (any)").
			Options(prios...).
			Value(&m.b.priorities),
		huh.NewMultiSelect[model.DueBucket]().
			Title("Due (any)").
			Options(buckets...).
			Value(&m.b.due),
	)

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the filter form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		pref := m.base
		pref.ViewMode = m.b.mode
		pref.SelectedTagIDs = m.b.tagIDs
		pref.SelectedPriorities = m.b.priorities
		pref.SelectedDueDates = m.b.due
		return m, func() tea.Msg { return AppliedMsg{Pref: pref} }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the filter form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Filter Notes")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}

func label(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
