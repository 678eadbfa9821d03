package projectmgr

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

// ProjectListCloseMsg signals the parent to close the project view.
type ProjectListCloseMsg struct{}

// ProjectSelectedMsg asks the parent to open a project's canvas.
type ProjectSelectedMsg struct {
	Project model.Project
}

// ProjectChangedMsg signals that a project was renamed or redescribed.
type ProjectChangedMsg struct {
	Project model.Project
}

// Store is the project persistence the manager edits.
type Store interface {
	GetProjects(ctx context.Context, ownerID string) ([]model.Project, error)
	CreateProject(ctx context.Context, project model.Project) (model.Project, error)
	UpdateProject(ctx context.Context, project model.Project) error
	DeleteProject(ctx context.Context, id string) error
}

type projectMode int

const (
	modeList projectMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	confirm     bool
}

type projectsLoadedMsg struct {
	projects []model.Project
	err      error
}

type projectSavedMsg struct {
	project model.Project
	isNew   bool
	err     error
}

type projectDeletedMsg struct{ err error }

// Model is the Bubble Tea model for listing and switching projects.
type Model struct {
	ctx         context.Context
	mode        projectMode
	store       Store
	keys        *keys.KeyMap
	ownerID     string
	currentID   string
	projects    []model.Project
	selectedIdx int
	editing     model.Project
	isNew       bool
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new project manager for the projects of ownerID.
func New(ctx context.Context, s Store, k *keys.KeyMap, ownerID string, width, height int) Model {
	return Model{
		ctx:     ctx,
		mode:    modeList,
		store:   s,
		keys:    k,
		ownerID: ownerID,
		fb:      &formBindings{},
		width:   width, height: height,
	}
}

// Open shows the project list with currentID marked as open.
func (m *Model) Open(currentID string) tea.Cmd {
	m.currentID = currentID
	m.mode = modeList
	m.statusMsg = ""
	return m.loadProjects()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.projects = msg.projects
		for i, p := range m.projects {
			if p.ID == m.currentID {
				m.selectedIdx = i
			}
		}
		if m.selectedIdx >= len(m.projects) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.projects) - 1
		}
		return m, nil

	case projectSavedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		if msg.isNew {
			p := msg.project
			return m, func() tea.Msg { return ProjectSelectedMsg{Project: p} }
		}
		m.statusMsg = "Project saved"
		p := msg.project
		return m, tea.Batch(m.loadProjects(), func() tea.Msg { return ProjectChangedMsg{Project: p} })

	case projectDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Project deleted"
		}
		m.mode = modeList
		return m, m.loadProjects()

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
		return m, func() tea.Msg { return ProjectListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.projects)) % len(m.projects)
		}
		return m, nil

	case msg.String() == "enter":
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.selectedIdx]
		return m, func() tea.Msg { return ProjectSelectedMsg{Project: p} }

	case key.Matches(msg, m.keys.New):
		m.isNew = true
		m.editing = model.Project{OwnerID: m.ownerID}
		*m.fb = formBindings{}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.selectedIdx]
		m.isNew = false
		m.editing = p
		*m.fb = formBindings{name: p.Name, description: p.Description}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.projects) == 0 {
			return m, nil
		}
		if m.projects[m.selectedIdx].ID == m.currentID {
			m.statusMsg = "The open canvas cannot be deleted"
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
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Project name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Placeholder("What lives on this canvas? (optional)").
				Value(&m.fb.description),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.projects) {
		name = m.projects[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", name)).
				Description("Every note on its canvas will be deleted.").
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
		return m, m.saveProject()
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
			return m, m.deleteProject(m.projects[m.selectedIdx].ID)
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

// View renders the project manager.
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
	b.WriteString(titleStyle.Render("Projects"))
	b.WriteString("\n\n")

	if len(m.projects) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No projects yet. Press 'n' to create one."))
	} else {
		for i, p := range m.projects {
			label := p.Name
			if p.ID == m.currentID {
				label += theme.DimmedStyle.Render("  (open)")
			}
			if p.Description != "" {
				label += "\n" + theme.DimmedStyle.Render(p.Description)
			}

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
	b.WriteString(theme.DimmedStyle.Render("enter open | n new | e edit | d delete | esc back"))

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

func (m Model) loadProjects() tea.Cmd {
	s, ctx, ownerID := m.store, m.ctx, m.ownerID
	return func() tea.Msg {
		projects, err := s.GetProjects(ctx, ownerID)
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

func (m Model) saveProject() tea.Cmd {
	s, ctx := m.store, m.ctx
	p := m.editing
	p.Name = strings.TrimSpace(m.fb.name)
	p.Description = strings.TrimSpace(m.fb.description)
	isNew := m.isNew
	return func() tea.Msg {
		if isNew {
			created, err := s.CreateProject(ctx, p)
			return projectSavedMsg{project: created, isNew: true, err: err}
		}
		return projectSavedMsg{project: p, err: s.UpdateProject(ctx, p)}
	}
}

func (m Model) deleteProject(id string) tea.Cmd {
	s, ctx := m.store, m.ctx
	return func() tea.Msg {
		return projectDeletedMsg{err: s.DeleteProject(ctx, id)}
	}
}
