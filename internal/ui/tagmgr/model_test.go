package tagmgr

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
	"github.com/nhle/plotta/tests/testutil"
)

func setup(t *testing.T, tagNames ...string) (Model, *store.SQLiteStore, string) {
	t.Helper()
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	p, err := s.CreateProject(ctx, model.Project{Name: "Drafts", OwnerID: "u1"})
	require.NoError(t, err)
	for _, name := range tagNames {
		_, err := s.CreateTag(ctx, model.Tag{ProjectID: p.ID, Name: name, Color: string(model.ColorRed)})
		require.NoError(t, err)
	}

	m := New(ctx, s, keys.DefaultKeyMap(), 80, 24)
	cmd := m.Open(p.ID)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m, s, p.ID
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOpen_ListsProjectTags(t *testing.T) {
	m, _, _ := setup(t, "urgent", "later")

	require.Len(t, m.tags, 2)
	assert.Equal(t, "later", m.tags[0].Name)
	assert.Contains(t, m.View(), "urgent")
}

func TestOpen_EmptyProject(t *testing.T) {
	m, _, _ := setup(t)
	assert.Contains(t, m.View(), "No tags yet")
}

func TestListKeys_WrapSelection(t *testing.T) {
	m, _, _ := setup(t, "a", "b")

	m, _ = m.Update(runes("k"))
	assert.Equal(t, 1, m.selectedIdx)
	m, _ = m.Update(runes("j"))
	assert.Equal(t, 0, m.selectedIdx)
}

func TestEdit_PrefillsForm(t *testing.T) {
	m, _, _ := setup(t, "urgent")

	m, cmd := m.Update(runes("e"))
	assert.NotNil(t, cmd)
	assert.Equal(t, modeForm, m.mode)
	assert.Equal(t, "urgent", m.fb.name)
	assert.Equal(t, model.ColorRed, m.fb.color)
	assert.False(t, m.isNew)
}

func TestSaveTag_CreatesInProjectAndSignalsChange(t *testing.T) {
	m, s, pid := setup(t)

	m.isNew = true
	m.fb.name = "  someday "
	m.fb.color = model.ColorGreen
	m, cmd := m.Update(m.saveTag()())
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Tag saved", m.statusMsg)
	assert.Contains(t, collect(cmd), tea.Msg(TagChangedMsg{}))

	tags, err := s.GetTags(context.Background(), pid)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "someday", tags[0].Name)
	assert.Equal(t, string(model.ColorGreen), tags[0].Color)
}

func TestDeleteTag_RemovesIt(t *testing.T) {
	m, s, pid := setup(t, "urgent")

	m, cmd := m.Update(m.deleteTag(m.tags[0].ID)())
	assert.Equal(t, "Tag deleted", m.statusMsg)

	var reloaded []model.Tag
	for _, msg := range collect(cmd) {
		if loaded, ok := msg.(tagsLoadedMsg); ok {
			reloaded = loaded.tags
		}
	}
	assert.Empty(t, reloaded)

	tags, err := s.GetTags(context.Background(), pid)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestBack_Closes(t *testing.T) {
	m, _, _ := setup(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, TagListCloseMsg{}, cmd())
}
