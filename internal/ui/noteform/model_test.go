package noteform

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/model"
)

func TestChangedFields_OnlyEdits(t *testing.T) {
	due := time.Date(2024, 6, 12, 0, 0, 0, 0, time.Local)
	orig := model.Note{
		ID:       "a",
		Title:    "Groceries",
		Content:  "- [ ] milk",
		Color:    model.ColorYellow,
		Priority: model.PriorityLow,
		DueDate:  &due,
	}

	fb := formBindings{
		title:    "  Groceries ",
		content:  "- [ ] milk\n- [ ] eggs",
		color:    model.ColorYellow,
		priority: model.PriorityHigh,
	}
	p := changedFields(orig, fb, parseDate("2024-06-12"))

	assert.Nil(t, p.Title, "whitespace-only change")
	require.NotNil(t, p.Content)
	assert.Equal(t, "- [ ] milk\n- [ ] eggs", *p.Content)
	assert.Nil(t, p.Color)
	require.NotNil(t, p.Priority)
	assert.Equal(t, model.PriorityHigh, *p.Priority)
	assert.False(t, p.SetDueDate)
	assert.Nil(t, p.Status)
}

func TestChangedFields_ClearsDueDate(t *testing.T) {
	due := time.Date(2024, 6, 12, 0, 0, 0, 0, time.Local)
	orig := model.Note{Title: "x", DueDate: &due}

	p := changedFields(orig, formBindings{title: "x"}, nil)
	assert.True(t, p.SetDueDate)
	assert.Nil(t, p.DueDate)
}

func TestParseDate(t *testing.T) {
	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("12/06/2024"))

	d := parseDate(" 2024-06-12 ")
	require.NotNil(t, d)
	assert.Equal(t, time.June, d.Month())
	assert.Equal(t, 12, d.Day())
}

func TestValidateOptionalDate(t *testing.T) {
	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2024-06-12"))
	assert.Error(t, validateOptionalDate("tomorrow"))
}

func TestHandleSubmit_Create(t *testing.T) {
	m := New(80, 24)
	m.projectID = "p1"
	m.fb.title = " Plan "
	m.fb.content = "body"
	m.fb.color = model.ColorBlue
	m.fb.tagIDs = []string{"t1"}

	msg := m.handleSubmit()()
	created, ok := msg.(NoteCreatedMsg)
	require.True(t, ok)
	assert.Equal(t, "p1", created.Draft.ProjectID)
	assert.Equal(t, "Plan", created.Draft.Title)
	assert.Equal(t, model.ColorBlue, created.Draft.Color)
	assert.Nil(t, created.Draft.PositionX, "placement is left to the board")
	assert.Equal(t, []string{"t1"}, created.TagIDs)
}

func TestHandleSubmit_EditReportsTagChange(t *testing.T) {
	m := New(80, 24)
	_ = m.StartEdit(model.Note{ID: "a", ProjectID: "p1", Title: "t", Color: model.ColorRed}, []string{"t1", "t2"})

	m.fb.tagIDs = []string{"t2", "t1"}
	updated := m.handleSubmit()().(NoteUpdatedMsg)
	assert.Equal(t, "a", updated.NoteID)
	assert.False(t, updated.TagsEdited, "same set in another order")
	assert.Equal(t, model.NotePatch{}, updated.Patch)

	m.fb.tagIDs = []string{"t1"}
	updated = m.handleSubmit()().(NoteUpdatedMsg)
	assert.True(t, updated.TagsEdited)
}

func TestUpdate_WithoutFormIsNoop(t *testing.T) {
	m := New(80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
