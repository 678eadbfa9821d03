package tagmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// TagListCloseMsg signals the parent to close the tag view.
type TagListCloseMsg struct{}

// TagChangedMsg signals that the project's tags were modified.
type TagChangedMsg struct{}

// Store is the tag persistence the manager edits.
type Store interface {
	GetTags(ctx context.Context, projectID string) ([]model.Tag, error)
	CreateTag(ctx context.Context, tag model.Tag) (model.Tag, error)
	UpdateTag(ctx context.Context, tag model.Tag) error
	DeleteTag(ctx context.Context, id string) error
}

type tagMode int

const (
	modeList tagMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name    string
	color   model.Color
	confirm bool
}

type tagsLoadedMsg struct {
	tags []model.Tag
	err  error
}

type tagSavedMsg struct{ err error }
type tagDeletedMsg struct{ err error }

// Model is the Bubble Tea model for managing one project's tags.
type Model struct {
	ctx         context.Context
	mode        tagMode
	store       Store
	keys        *keys.KeyMap
	projectID   string
	tags        []model.Tag
	selectedIdx int
	editingID   string
	isNew       bool
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new tag manager model.
func New(ctx context.Context, s Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		ctx:   ctx,
		mode:  modeList,
		store: s,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Open shows the tags of projectID.
func (m *Model) Open(projectID string) tea.Cmd {
	if projectID != m.projectID {
		m.selectedIdx = 0
		m.tags = nil
	}
	m.projectID = projectID
	m.mode = modeList
	m.statusMsg = ""
	return m.loadTags()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tagsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.tags = msg.tags
		if m.selectedIdx >= len(m.tags) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.tags) - 1
		}
		return m, nil

	case tagSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Tag saved"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadTags(), func() tea.Msg { return TagChangedMsg{} })

	case tagDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Tag deleted"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadTags(), func() tea.Msg { return TagChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return TagListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.tags) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.tags)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.tags) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.tags)) % len(m.tags)
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.isNew = true
		m.editingID = ""
		m.fb.name = ""
		m.fb.color = model.ColorBlue
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if len(m.tags) == 0 {
			return m, nil
		}
		t := m.tags[m.selectedIdx]
		m.isNew = false
		m.editingID = t.ID
		m.fb.name = t.Name
		m.fb.color = model.Color(t.Color)
		if !m.fb.color.Valid() {
			m.fb.color = model.ColorDefault
		}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.tags) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	colors := make([]huh.Option[model.Color], len(model.Colors))
	for i, c := range model.Colors {
		colors[i] = huh.NewOption(string(c), c)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Tag name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[model.Color]().
				Title("Color").
				Options(colors...).
				Value(&m.fb.color),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.tags) {
		name = m.tags[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete tag %q?", name)).
				Description("The tag will be removed from every note on this canvas.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.saveTag()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.deleteTag(m.tags[m.selectedIdx].ID)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the tag manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Tags"))
	b.WriteString("\n\n")

	if len(m.tags) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No tags yet. Press 'n' to create one."))
	} else {
		for i, t := range m.tags {
			dot := lipgloss.NewStyle().Foreground(theme.NoteColor(model.Color(t.Color))).Render("●")
			label := dot + " " + t.Name

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("n new | e edit | d delete | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func (m Model) loadTags() tea.Cmd {
	s, ctx, projectID := m.store, m.ctx, m.projectID
	return func() tea.Msg {
		tags, err := s.GetTags(ctx, projectID)
		return tagsLoadedMsg{tags: tags, err: err}
	}
}

func (m Model) saveTag() tea.Cmd {
	s, ctx := m.store, m.ctx
	t := model.Tag{
		ID:        m.editingID,
		ProjectID: m.projectID,
		Name:      strings.TrimSpace(m.fb.name),
		Color:     string(m.fb.color),
	}
	isNew := m.isNew
	return func() tea.Msg {
		if isNew {
			_, err := s.CreateTag(ctx, t)
			return tagSavedMsg{err: err}
		}
		return tagSavedMsg{err: s.UpdateTag(ctx, t)}
	}
}

func (m Model) deleteTag(id string) tea.Cmd {
	s, ctx := m.store, m.ctx
	return func() tea.Msg {
		return tagDeletedMsg{err: s.DeleteTag(ctx, id)}
	}
}
