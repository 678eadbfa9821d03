package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
)

type fakeSource struct {
	notes    map[string]model.Note
	tags     []model.Tag
	noteTags map[string][]string
}

func (f *fakeSource) Note(id string) (model.Note, bool) {
	n, ok := f.notes[id]
	return n, ok
}
func (f *fakeSource) Tags() []model.Tag               { return f.tags }
func (f *fakeSource) NoteTags() map[string][]string { return f.noteTags }

func setup(t *testing.T) (Model, *fakeSource) {
	t.Helper()
	src := &fakeSource{
		notes: map[string]model.Note{
			"n1": {
				ID:        "n1",
				Title:     "Packing",
				Content:   "Trip list\n- [ ] passport\n- [x] charger",
				Color:     model.ColorGreen,
				Priority:  model.PriorityHigh,
				Pinned:    true,
				PositionX: 120,
				PositionY: 40,
				Width:     200,
				Height:    150,
				ZIndex:    7,
			},
			"locked": {ID: "locked", Title: "Frozen", Content: "- [ ] nope", Locked: true},
		},
		tags:     []model.Tag{{ID: "t1", Name: "travel"}},
		noteTags: map[string][]string{"n1": {"t1"}},
	}
	m := New(src, keys.DefaultKeyMap(), 80, 40)
	m.Open("n1")
	return m, src
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_ShowsNote(t *testing.T) {
	m, _ := setup(t)
	out := m.View()

	for _, want := range []string{"Packing", "green", "high", "pinned", "#travel", "120, 40", "200 × 150", "☐ passport", "☑"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "locked")
	assert.Equal(t, "n1", m.NoteID())
}

func TestView_DeletedNote(t *testing.T) {
	m, src := setup(t)
	delete(src.notes, "n1")

	assert.Contains(t, m.View(), "This note was deleted.")

	_, cmd := m.Update(runes("e"))
	assert.Nil(t, cmd)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, BackMsg{}, cmd())
}

func TestActions(t *testing.T) {
	m, _ := setup(t)

	tests := []struct {
		key  tea.KeyMsg
		want ActionMsg
	}{
		{runes("e"), ActionMsg{Action: ActionEdit, NoteID: "n1"}},
		{tea.KeyMsg{Type: tea.KeyEnter}, ActionMsg{Action: ActionEdit, NoteID: "n1"}},
		{runes("f"), ActionMsg{Action: ActionFront, NoteID: "n1"}},
		{runes("1"), ActionMsg{Action: ActionCheckbox, NoteID: "n1", Index: 0}},
		{runes("2"), ActionMsg{Action: ActionCheckbox, NoteID: "n1", Index: 1}},
	}
	for _, tt := range tests {
		_, cmd := m.Update(tt.key)
		require.NotNil(t, cmd, tt.key.String())
		assert.Equal(t, tt.want, cmd(), tt.key.String())
	}
}

func TestCheckbox_IgnoredWhenOutOfRangeOrLocked(t *testing.T) {
	m, _ := setup(t)

	_, cmd := m.Update(runes("3"))
	assert.Nil(t, cmd)

	m.Open("locked")
	_, cmd = m.Update(runes("1"))
	assert.Nil(t, cmd)
}
