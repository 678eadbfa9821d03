package app

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
	appsync "github.com/nhle/plotta/internal/sync"
	aiview "github.com/nhle/plotta/internal/ui/ai"
	"github.com/nhle/plotta/internal/ui/board"
	"github.com/nhle/plotta/internal/ui/command"
	settingsview "github.com/nhle/plotta/internal/ui/config"
	"github.com/nhle/plotta/internal/ui/detail"
	"github.com/nhle/plotta/internal/ui/filterform"
	"github.com/nhle/plotta/internal/ui/noteform"
	"github.com/nhle/plotta/internal/ui/outline"
	"github.com/nhle/plotta/internal/ui/projectmgr"
	"github.com/nhle/plotta/internal/ui/tagmgr"
	"github.com/nhle/plotta/tests/testutil"
)

var project = model.Project{ID: "p1", Name: model.DefaultProjectName}

// memStore keeps view preferences in memory so load failures can be
// injected. Tags and projects go to the embedded SQLite store.
type memStore struct {
	*store.SQLiteStore
	saved   map[string]model.ViewPreference
	loadErr error
}

func (p *memStore) LoadViewPreference(_ context.Context, projectID string) (model.ViewPreference, error) {
	if p.loadErr != nil {
		return model.ViewPreference{}, p.loadErr
	}
	if pref, ok := p.saved[projectID]; ok {
		return pref, nil
	}
	return model.DefaultViewPreference(), nil
}

func (p *memStore) SaveViewPreference(_ context.Context, projectID string, pref model.ViewPreference) error {
	p.saved[projectID] = pref
	return nil
}

func newApp(t *testing.T, notes ...model.Note) (Model, *canvas.Board, *testutil.FakeGateway, *memStore) {
	t.Helper()
	gw := testutil.NewFakeGateway()
	gw.Seed(notes...)
	gw.SeedTags([]model.Tag{{ID: "t1", ProjectID: project.ID, Name: "urgent"}}, nil)

	b := canvas.NewBoard(gw, canvas.WithTagGateway(gw))
	require.NoError(t, b.Load(context.Background(), project.ID))

	prefs := &memStore{
		SQLiteStore: testutil.NewTestStore(t),
		saved:       make(map[string]model.ViewPreference),
	}
	m := New(context.Background(), Deps{
		Board:   b,
		Feed:    appsync.New(gw, b),
		Store:   prefs,
		Session: model.Session{UserID: "u1"},
		Project: project,
		Gesture: canvas.DefaultGestureConfig(),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), b, gw, prefs
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
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

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_HeaderShowsProject(t *testing.T) {
	m, _, _, _ := newApp(t)
	out := m.View()
	assert.Contains(t, out, "Plotta · Drafts")
	assert.Contains(t, out, "not connected")
	assert.Contains(t, out, "This canvas is empty")
}

func TestNewNote_CreatesAndTags(t *testing.T) {
	m, b, gw, _ := newApp(t)

	m, cmd := update(t, m, key("n"))
	assert.Equal(t, ViewNoteForm, m.currentView)
	assert.NotNil(t, cmd)

	draft := model.NoteDraft{ProjectID: project.ID, Title: "Plan", Color: model.ColorBlue}
	m, cmd = update(t, m, noteform.NoteCreatedMsg{Draft: draft, TagIDs: []string{"t1"}})
	assert.Equal(t, ViewCanvas, m.currentView)
	require.NotNil(t, cmd)

	res, ok := cmd().(noteCreatedResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)

	notes := b.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "Plan", notes[0].Title)
	assert.Equal(t, model.DefaultNoteWidth, notes[0].Width, "creation defaults applied")
	assert.Equal(t, []string{"t1"}, b.NoteTags()[notes[0].ID])
	assert.Equal(t, 1, gw.Calls(testutil.OpSetTags))

	m, _ = update(t, m, res)
	assert.Contains(t, m.keyHints(), `added "Plan"`)
}

func TestEditNote_UpdatesOnlyPatchedFields(t *testing.T) {
	n := model.Note{ID: "a", ProjectID: project.ID, Title: "old", Color: model.ColorYellow}
	m, b, gw, _ := newApp(t, n)

	m, cmd := update(t, m, board.EditNoteMsg{NoteID: "a"})
	assert.Equal(t, ViewNoteForm, m.currentView)
	assert.NotNil(t, cmd)

	title := "new"
	_, cmd = update(t, m, noteform.NoteUpdatedMsg{NoteID: "a", Patch: model.NotePatch{Title: &title}})
	require.NotNil(t, cmd)
	assert.Equal(t, board.MutationMsg{Op: "update", NoteID: "a"}, cmd())

	got, ok := b.Note("a")
	require.True(t, ok)
	assert.Equal(t, "new", got.Title)
	assert.Zero(t, gw.Calls(testutil.OpSetTags), "tags untouched")
}

func TestEditNote_UnknownNoteStaysOnCanvas(t *testing.T) {
	m, _, _, _ := newApp(t)
	m, cmd := update(t, m, board.EditNoteMsg{NoteID: "missing"})
	assert.Equal(t, ViewCanvas, m.currentView)
	assert.Nil(t, cmd)
}

func TestFilterApplied_SavesPreference(t *testing.T) {
	m, _, _, prefs := newApp(t)

	m, _ = update(t, m, key("/"))
	assert.Equal(t, ViewFilter, m.currentView)

	pref := model.DefaultViewPreference()
	pref.ViewMode = model.ViewWeek
	pref.SelectedTagIDs = []string{"t1"}
	m, cmd := update(t, m, filterform.AppliedMsg{Pref: pref})
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, ViewCanvas, m.currentView)
	assert.Equal(t, model.ViewWeek, m.canvasView.Pref().ViewMode)
	assert.Equal(t, pref, prefs.saved[project.ID])
}

func TestPrefLoaded_AppliesOrKeepsDefault(t *testing.T) {
	m, _, _, prefs := newApp(t)

	prefs.loadErr = errors.New("disk")
	m, _ = update(t, m, m.loadPref()())
	assert.Equal(t, model.ViewAll, m.canvasView.Pref().ViewMode)

	prefs.loadErr = nil
	prefs.saved[project.ID] = model.ViewPreference{Version: model.ViewPreferenceVersion, ViewMode: model.ViewLater}
	m, _ = update(t, m, m.loadPref()())
	assert.Equal(t, model.ViewLater, m.canvasView.Pref().ViewMode)
}

func TestAIDraft_CreatesNote(t *testing.T) {
	m, b, _, _ := newApp(t)

	m, _ = update(t, m, key("a"))
	assert.Equal(t, ViewAI, m.currentView)
	assert.Contains(t, m.View(), "ANTHROPIC_API_KEY", "no assistant configured")

	draft := model.NoteDraft{ProjectID: project.ID, Title: "Idea", Color: model.ColorDefault}
	m, cmd := update(t, m, aiview.CreateDraftMsg{Draft: draft})
	assert.Equal(t, ViewCanvas, m.currentView)
	require.NotNil(t, cmd)
	cmd()

	require.Len(t, b.Notes(), 1)
	assert.Equal(t, model.ColorDefault, b.Notes()[0].Color)
}

func TestHelp_TogglesAndBlocksCanvasKeys(t *testing.T) {
	m, _, _, _ := newApp(t)

	m, _ = update(t, m, key("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, cmd := update(t, m, key("n"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Nil(t, cmd)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewCanvas, m.currentView)
}

func TestMouse_OffsetByHeader(t *testing.T) {
	n := model.Note{
		ID: "a", ProjectID: project.ID, Title: "a",
		Width: model.DefaultNoteWidth, Height: model.DefaultNoteHeight,
	}
	m, _, _, _ := newApp(t, n)

	m, _ = update(t, m, tea.MouseMsg{X: 2, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, focused := m.canvasView.Focused()
	assert.False(t, focused, "header row is outside the canvas")

	m, _ = update(t, m, tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	n, focused = m.canvasView.Focused()
	require.True(t, focused)
	assert.Equal(t, "a", n.ID)
}

func TestTagManager_OpensAndCloses(t *testing.T) {
	m, _, _, _ := newApp(t)

	m, cmd := update(t, m, key("t"))
	assert.Equal(t, ViewTags, m.currentView)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "No tags yet")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, ViewCanvas, m.currentView)
}

func TestTagChanged_ReloadsBoard(t *testing.T) {
	m, _, gw, _ := newApp(t)
	gw.SeedTags([]model.Tag{{ID: "t2", ProjectID: project.ID, Name: "later"}}, nil)

	before := gw.Calls(testutil.OpFetch)
	_, cmd := update(t, m, tagmgr.TagChangedMsg{})
	require.NotNil(t, cmd)
	for _, msg := range collect(cmd) {
		if mut, ok := msg.(board.MutationMsg); ok {
			assert.Equal(t, "reload", mut.Op)
			assert.NoError(t, mut.Err)
		}
	}
	assert.Greater(t, gw.Calls(testutil.OpFetch), before)
}

func TestProjectSelected_SwitchesCanvas(t *testing.T) {
	m, _, _, prefs := newApp(t)
	work, err := prefs.CreateProject(context.Background(), model.Project{Name: "Work", OwnerID: "u1"})
	require.NoError(t, err)

	pref := model.DefaultViewPreference()
	pref.ViewMode = model.ViewWeek
	m.canvasView.SetPref(pref)

	m, _ = update(t, m, key("P"))
	assert.Equal(t, ViewProjects, m.currentView)

	m, cmd := update(t, m, projectmgr.ProjectSelectedMsg{Project: work})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewCanvas, m.currentView)
	assert.Equal(t, work.ID, m.project.ID)
	assert.Equal(t, model.ViewAll, m.canvasView.Pref().ViewMode, "preference reset until the new one loads")
	assert.Contains(t, m.View(), "Plotta · Work")

	_, cmd = update(t, m, projectmgr.ProjectSelectedMsg{Project: work})
	assert.Nil(t, cmd, "reselecting the open project is a no-op")
}

func TestProjectChanged_RenamesOpenProject(t *testing.T) {
	m, _, _, _ := newApp(t)
	renamed := project
	renamed.Name = "Scratch"

	m, _ = update(t, m, projectmgr.ProjectChangedMsg{Project: renamed})
	assert.Contains(t, m.View(), "Plotta · Scratch")

	m, _ = update(t, m, projectmgr.ProjectChangedMsg{Project: model.Project{ID: "other", Name: "Other"}})
	assert.Equal(t, "Scratch", m.project.Name)
}

func TestCommand_ViewAndArrange(t *testing.T) {
	a := model.Note{ID: "a", ProjectID: project.ID, Title: "a", PositionX: 700, PositionY: 700,
		Width: model.DefaultNoteWidth, Height: model.DefaultNoteHeight}
	m, b, _, prefs := newApp(t, a)

	m, _ = update(t, m, key(":"))
	assert.Equal(t, ViewCommand, m.currentView)

	m, cmd := update(t, m, command.CommandMsg{Command: command.Command{Kind: command.KindView, Mode: model.ViewLater}})
	assert.Equal(t, ViewCanvas, m.currentView)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, model.ViewLater, m.canvasView.Pref().ViewMode)
	assert.Equal(t, model.ViewLater, prefs.saved[project.ID].ViewMode)

	m, _ = update(t, m, command.CommandMsg{Command: command.Command{Kind: command.KindView, Mode: model.ViewAll}})
	_, cmd = update(t, m, command.CommandMsg{Command: command.Command{Kind: command.KindArrange, Layout: canvas.LayoutGrid}})
	require.NotNil(t, cmd)
	for _, msg := range collect(cmd) {
		if mut, ok := msg.(board.MutationMsg); ok {
			assert.NoError(t, mut.Err)
		}
	}
	got, ok := b.Note("a")
	require.True(t, ok)
	assert.NotEqual(t, 700.0, got.PositionX, "arranged")
}

func TestCommand_CloseReturnsToCanvas(t *testing.T) {
	m, _, _, _ := newApp(t)
	m, _ = update(t, m, key(":"))
	m, _ = update(t, m, command.CloseMsg{})
	assert.Equal(t, ViewCanvas, m.currentView)
}

func TestSettings_NewKeyEnablesAssistant(t *testing.T) {
	m, _, _, _ := newApp(t)

	m, _ = update(t, m, key(","))
	assert.Equal(t, ViewSettings, m.currentView)
	assert.Contains(t, m.View(), "AI API key")

	m, _ = update(t, m, settingsview.APIKeySavedMsg{Key: "sk-test"})
	m, _ = update(t, m, settingsview.ConfigDoneMsg{})
	assert.Equal(t, ViewCanvas, m.currentView)

	m, _ = update(t, m, key("a"))
	assert.NotContains(t, m.View(), "ANTHROPIC_API_KEY")
}

func TestOutline_OpensDetailAndTogglesCheckbox(t *testing.T) {
	a := model.Note{ID: "a", ProjectID: project.ID, Title: "list", Content: "- [ ] one\n- [ ] two",
		Width: model.DefaultNoteWidth, Height: model.DefaultNoteHeight, ZIndex: 1}
	c := model.Note{ID: "c", ProjectID: project.ID, Title: "other", PositionX: 400,
		Width: model.DefaultNoteWidth, Height: model.DefaultNoteHeight, ZIndex: 2}
	m, b, _, _ := newApp(t, a, c)

	m, _ = update(t, m, key("o"))
	require.Equal(t, ViewOutline, m.currentView)

	m, _ = update(t, m, outline.NoteChosenMsg{NoteID: "a"})
	require.Equal(t, ViewDetail, m.currentView)
	assert.Equal(t, "a", m.detailView.NoteID())
	focused, ok := m.canvasView.Focused()
	require.True(t, ok)
	assert.Equal(t, "a", focused.ID)

	m, cmd := update(t, m, key("2"))
	require.NotNil(t, cmd)
	m, cmd = update(t, m, cmd())
	require.NotNil(t, cmd)
	mut, ok := cmd().(board.MutationMsg)
	require.True(t, ok)
	require.NoError(t, mut.Err)
	got, _ := b.Note("a")
	assert.Equal(t, "- [ ] one\n- [x] two", got.Content)

	m, cmd = update(t, m, detail.ActionMsg{Action: detail.ActionFront, NoteID: "a"})
	require.NotNil(t, cmd)
	require.NoError(t, cmd().(board.MutationMsg).Err)
	got, _ = b.Note("a")
	assert.Greater(t, got.ZIndex, 2)

	m, _ = update(t, m, detail.BackMsg{})
	assert.Equal(t, ViewOutline, m.currentView)
	m, _ = update(t, m, outline.CloseMsg{})
	assert.Equal(t, ViewCanvas, m.currentView)
}

func TestDetail_FromCanvasReturnsToCanvas(t *testing.T) {
	a := model.Note{ID: "a", ProjectID: project.ID, Title: "a",
		Width: model.DefaultNoteWidth, Height: model.DefaultNoteHeight}
	m, _, _, _ := newApp(t, a)
	m.canvasView.SetFocus("a")

	m, _ = update(t, m, key("i"))
	require.Equal(t, ViewDetail, m.currentView)

	m, _ = update(t, m, detail.ActionMsg{Action: detail.ActionEdit, NoteID: "a"})
	assert.Equal(t, ViewNoteForm, m.currentView)
	m, _ = update(t, m, noteform.FormCancelMsg{})
	assert.Equal(t, ViewDetail, m.currentView)

	m, _ = update(t, m, detail.BackMsg{})
	assert.Equal(t, ViewCanvas, m.currentView)
}

func TestQuit(t *testing.T) {
	m, _, _, _ := newApp(t)
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
