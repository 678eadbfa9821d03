package projectmgr

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

func setup(t *testing.T) (Model, *store.SQLiteStore, []model.Project) {
	t.Helper()
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	var projects []model.Project
	for _, name := range []string{"Drafts", "Work"} {
		p, err := s.CreateProject(ctx, model.Project{Name: name, OwnerID: "u1"})
		require.NoError(t, err)
		projects = append(projects, p)
	}
	_, err := s.CreateProject(ctx, model.Project{Name: "Theirs", OwnerID: "u2"})
	require.NoError(t, err)

	m := New(ctx, s, keys.DefaultKeyMap(), "u1", 80, 24)
	cmd := m.Open(projects[1].ID)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m, s, projects
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOpen_ListsOwnProjectsAndSelectsCurrent(t *testing.T) {
	m, _, projects := setup(t)

	require.Len(t, m.projects, 2)
	assert.Equal(t, 1, m.selectedIdx)
	assert.Equal(t, projects[1].ID, m.projects[m.selectedIdx].ID)

	out := m.View()
	assert.Contains(t, out, "(open)")
	assert.NotContains(t, out, "Theirs")
}

func TestEnter_SelectsProject(t *testing.T) {
	m, _, projects := setup(t)

	m, _ = m.Update(runes("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	sel, ok := cmd().(ProjectSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, projects[0].ID, sel.Project.ID)
}

func TestDelete_RefusesOpenProject(t *testing.T) {
	m, _, _ := setup(t)

	m, cmd := m.Update(runes("d"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "The open canvas cannot be deleted", m.statusMsg)
}

func TestDelete_OtherProjectAsksConfirmation(t *testing.T) {
	m, _, _ := setup(t)

	m, _ = m.Update(runes("k"))
	m, cmd := m.Update(runes("d"))
	assert.NotNil(t, cmd)
	assert.Equal(t, modeConfirmDelete, m.mode)
}

func TestSaveProject_NewOpensIt(t *testing.T) {
	m, s, _ := setup(t)

	m, _ = m.Update(runes("n"))
	require.Equal(t, modeForm, m.mode)
	m.fb.name = "Garden"
	_, cmd := m.Update(m.saveProject()())
	require.NotNil(t, cmd)

	sel, ok := cmd().(ProjectSelectedMsg)
	require.True(t, ok)
	assert.NotEmpty(t, sel.Project.ID)
	assert.Equal(t, "Garden", sel.Project.Name)
	assert.Equal(t, "u1", sel.Project.OwnerID)

	projects, err := s.GetProjects(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, projects, 3)
}

func TestSaveProject_EditSignalsChange(t *testing.T) {
	m, s, projects := setup(t)

	m, _ = m.Update(runes("e"))
	require.Equal(t, modeForm, m.mode)
	assert.Equal(t, "Work", m.fb.name)
	m.fb.name = "Office"
	m.fb.description = "day job"
	m, cmd := m.Update(m.saveProject()())
	assert.Equal(t, "Project saved", m.statusMsg)

	var changed []ProjectChangedMsg
	for _, c := range cmd().(tea.BatchMsg) {
		if msg, ok := c().(ProjectChangedMsg); ok {
			changed = append(changed, msg)
		}
	}
	require.Len(t, changed, 1)
	assert.Equal(t, projects[1].ID, changed[0].Project.ID)
	assert.Equal(t, "Office", changed[0].Project.Name)

	got, err := s.GetProjectByID(context.Background(), projects[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "day job", got.Description)
}
