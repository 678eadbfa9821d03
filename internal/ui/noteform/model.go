package noteform

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

const dateLayout = "2006-01-02"

// NoteCreatedMsg is dispatched when a new note is submitted via the form.
type NoteCreatedMsg struct {
	Draft  model.NoteDraft
	TagIDs []string
}

// NoteUpdatedMsg is dispatched when an existing note is edited. Patch
// holds only the fields the user changed.
type NoteUpdatedMsg struct {
	NoteID     string
	Patch      model.NotePatch
	TagIDs     []string
	TagsEdited bool
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title    string
	content  string
	color    model.Color
	priority model.Priority
	dueDate  string
	status   model.Status
	tagIDs   []string
}

// Model is the Bubble Tea model for the note create/edit form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	editMode  bool
	original  model.Note
	origTags  []string
	projectID string
	tags      []model.Tag
	width     int
	height    int
}

// New creates a new note form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{color: model.ColorYellow},
		width:  width,
		height: height,
	}
}

// SetTags sets the project's tags offered by the tag selector.
func (m *Model) SetTags(tags []model.Tag) {
	m.tags = tags
}

// StartCreate initializes the form for a new note in projectID.
func (m *Model) StartCreate(projectID string) tea.Cmd {
	m.editMode = false
	m.original = model.Note{}
	m.origTags = nil
	m.projectID = projectID
	*m.fb = formBindings{color: model.ColorYellow}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing n, currently tagged tagIDs.
func (m *Model) StartEdit(n model.Note, tagIDs []string) tea.Cmd {
	m.editMode = true
	m.original = n
	m.origTags = slices.Clone(tagIDs)
	m.projectID = n.ProjectID
	*m.fb = formBindings{
		title:    n.Title,
		content:  n.Content,
		color:    n.Color,
		priority: n.Priority,
		status:   n.Status,
		tagIDs:   slices.Clone(tagIDs),
	}
	if n.DueDate != nil {
		m.fb.dueDate = n.DueDate.Format(dateLayout)
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the note form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the note form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Note"
	if m.editMode {
		titleText = "Edit Note"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What is this note about?").
			Value(&m.fb.title),
		huh.NewText().
			Title("Content").
			Placeholder("Use \"- [ ] \" lines for checkboxes").
			Value(&m.fb.content),
		huh.NewSelect[model.Color]().
			Title("Color").
			Options(colorOptions()...).
			Value(&m.fb.color),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(
				huh.NewOption("None", model.PriorityNone),
				huh.NewOption("Low", model.PriorityLow),
				huh.NewOption("Medium", model.PriorityMedium),
				huh.NewOption("High", model.PriorityHigh),
				huh.NewOption("Critical", model.PriorityCritical),
			).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
		huh.NewSelect[model.Status]().
			Title("Status").
			Options(
				huh.NewOption("None", model.StatusNone),
				huh.NewOption("To do", model.StatusTodo),
				huh.NewOption("In progress", model.StatusInProgress),
				huh.NewOption("Done", model.StatusDone),
			).
			Value(&m.fb.status),
	}
	if tagField := m.tagField(); tagField != nil {
		fields = append(fields, tagField)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func colorOptions() []huh.Option[model.Color] {
	opts := make([]huh.Option[model.Color], len(model.Colors))
	for i, c := range model.Colors {
		label := strings.ToUpper(string(c[:1])) + string(c[1:])
		opts[i] = huh.NewOption(label, c)
	}
	return opts
}

func (m *Model) tagField() huh.Field {
	if len(m.tags) == 0 {
		return nil
	}
	opts := make([]huh.Option[string], len(m.tags))
	for i, t := range m.tags {
		opts[i] = huh.NewOption(t.Name, t.ID)
	}
	return huh.NewMultiSelect[string]().
		Title("Tags").
		Options(opts...).
		Value(&m.fb.tagIDs)
}

func (m Model) handleSubmit() tea.Cmd {
	due := parseDate(m.fb.dueDate)
	tagIDs := slices.Clone(m.fb.tagIDs)

	if m.editMode {
		msg := NoteUpdatedMsg{
			NoteID:     m.original.ID,
			Patch:      changedFields(m.original, *m.fb, due),
			TagIDs:     tagIDs,
			TagsEdited: !sameSet(m.origTags, tagIDs),
		}
		return func() tea.Msg { return msg }
	}

	draft := model.NoteDraft{
		ProjectID: m.projectID,
		Title:     strings.TrimSpace(m.fb.title),
		Content:   m.fb.content,
		Color:     m.fb.color,
		Priority:  m.fb.priority,
		DueDate:   due,
		Status:    m.fb.status,
	}
	return func() tea.Msg { return NoteCreatedMsg{Draft: draft, TagIDs: tagIDs} }
}

// changedFields builds a patch of the fields that differ from orig.
func changedFields(orig model.Note, fb formBindings, due *time.Time) model.NotePatch {
	var p model.NotePatch
	if title := strings.TrimSpace(fb.title); title != orig.Title {
		p.Title = &title
	}
	if fb.content != orig.Content {
		content := fb.content
		p.Content = &content
	}
	if fb.color != orig.Color {
		color := fb.color
		p.Color = &color
	}
	if fb.priority != orig.Priority {
		prio := fb.priority
		p.Priority = &prio
	}
	if fb.status != orig.Status {
		status := fb.status
		p.Status = &status
	}
	if !sameDay(orig.DueDate, due) {
		p.DueDate = due
		p.SetDueDate = true
	}
	return p
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(dateLayout) == b.Format(dateLayout)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}

// parseDate reads an optional YYYY-MM-DD date as local midnight.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
