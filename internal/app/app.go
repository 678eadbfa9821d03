package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	aiservice "github.com/nhle/plotta/internal/ai"
	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
	appsync "github.com/nhle/plotta/internal/sync"
	"github.com/nhle/plotta/internal/ui"
	aiview "github.com/nhle/plotta/internal/ui/ai"
	"github.com/nhle/plotta/internal/ui/board"
	"github.com/nhle/plotta/internal/ui/command"
	settingsview "github.com/nhle/plotta/internal/ui/config"
	"github.com/nhle/plotta/internal/ui/detail"
	"github.com/nhle/plotta/internal/ui/filterform"
	helpview "github.com/nhle/plotta/internal/ui/help"
	"github.com/nhle/plotta/internal/ui/noteform"
	"github.com/nhle/plotta/internal/ui/outline"
	"github.com/nhle/plotta/internal/ui/projectmgr"
	"github.com/nhle/plotta/internal/ui/tagmgr"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewCanvas ViewState = iota
	ViewNoteForm
	ViewFilter
	ViewAI
	ViewHelp
	ViewTags
	ViewProjects
	ViewCommand
	ViewSettings
	ViewOutline
	ViewDetail
)

// Store persists view preferences, tags and projects.
type Store interface {
	LoadViewPreference(ctx context.Context, projectID string) (model.ViewPreference, error)
	SaveViewPreference(ctx context.Context, projectID string, pref model.ViewPreference) error
	tagmgr.Store
	projectmgr.Store
}

// Deps are the collaborators the application runs on.
type Deps struct {
	Board     *canvas.Board
	Feed      *appsync.Feed
	Store     Store
	Session   model.Session
	Project   model.Project
	Assistant *aiservice.Assistant
	Gesture   canvas.GestureConfig
	Logger    *zap.Logger

	// Settings
	Config     model.AppConfig
	SaveConfig settingsview.SaveFunc
	Secrets    settingsview.Secrets
	TestAIKey  settingsview.TestFunc
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the open project's canvas.
type Model struct {
	ctx          context.Context
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	board        *canvas.Board
	feed         *appsync.Feed
	store        Store
	project      model.Project
	logger       *zap.Logger
	keys         *keys.KeyMap
	canvasView   board.Model
	noteForm     noteform.Model
	filterForm   filterform.Model
	aiView       aiview.Model
	helpView     helpview.Model
	tagView      tagmgr.Model
	projectView  projectmgr.Model
	commandView  command.Model
	settingsView settingsview.Model
	outlineView  outline.Model
	detailView   detail.Model
	detailReturn ViewState
	config       model.AppConfig
	feedStatus   appsync.Status
	status       string
	ready        bool
}

// New creates the root application model for the project in d.
func New(ctx context.Context, d Deps) Model {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()

	return Model{
		ctx:          ctx,
		currentView:  ViewCanvas,
		board:        d.Board,
		feed:         d.Feed,
		store:        d.Store,
		project:      d.Project,
		logger:       d.Logger,
		keys:         k,
		canvasView:   board.New(ctx, d.Board, k, d.Gesture, d.Logger, 80, 24),
		noteForm:     noteform.New(80, 24),
		filterForm:   filterform.New(80, 24),
		aiView:       aiview.New(ctx, d.Assistant, d.Board, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		tagView:      tagmgr.New(ctx, d.Store, k, 80, 24),
		projectView:  projectmgr.New(ctx, d.Store, k, d.Session.UserID, 80, 24),
		commandView:  command.New(80, 24),
		settingsView: settingsview.New(ctx, d.Config, d.SaveConfig, d.Secrets, d.TestAIKey, k, 80, 24),
		outlineView:  outline.New(d.Board, k, 80, 24),
		detailView:   detail.New(d.Board, k, 80, 24),
		config:       d.Config,
	}
}

// Init opens the project's change feed and restores its view preference.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.canvasView.Init(),
		m.openFeed(),
		m.feed.WaitForStatus(),
		m.loadPref(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.canvasView.SetSize(w, h)
		m.noteForm.SetSize(w, h)
		m.filterForm.SetSize(w, h)
		m.aiView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.tagView.SetSize(w, h)
		m.projectView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.outlineView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.StatusMsg:
		m.feedStatus = msg.Status
		return m, m.feed.WaitForStatus()

	case feedOpenedMsg:
		if errors.Is(msg.err, appsync.ErrOpenSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Error("opening change feed failed",
				zap.String("project", m.project.ID), zap.Error(msg.err))
			m.status = "could not open canvas: " + msg.err.Error()
		}
		return m, nil

	case prefLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading view preference failed", zap.Error(msg.err))
			return m, nil
		}
		m.canvasView.SetPref(msg.pref)
		return m, nil

	case board.PrefChangedMsg:
		return m, m.savePref(msg.Pref)

	case board.EditNoteMsg:
		n, ok := m.board.Note(msg.NoteID)
		if !ok {
			return m, nil
		}
		m.openView(ViewNoteForm)
		m.noteForm.SetTags(m.board.Tags())
		return m, m.noteForm.StartEdit(n, m.board.NoteTags()[n.ID])

	case noteform.NoteCreatedMsg:
		m.currentView = ViewCanvas
		return m, m.createNote(msg.Draft, msg.TagIDs)

	case noteform.NoteUpdatedMsg:
		m.currentView = m.formReturn()
		return m, m.updateNote(msg.NoteID, msg.Patch, msg.TagIDs, msg.TagsEdited)

	case noteform.FormCancelMsg:
		m.currentView = m.formReturn()
		return m, nil

	case noteCreatedResultMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = fmt.Sprintf("added %q", msg.note.Title)
		}
		return m, nil

	case filterform.AppliedMsg:
		m.currentView = ViewCanvas
		m.canvasView.SetPref(msg.Pref)
		return m, m.savePref(msg.Pref)

	case filterform.CancelMsg:
		m.currentView = ViewCanvas
		return m, nil

	case aiview.PanelCloseMsg:
		m.aiView.Reset()
		m.currentView = ViewCanvas
		return m, nil

	case aiview.ResponseMsg:
		var cmd tea.Cmd
		m.aiView, cmd = m.aiView.Update(msg)
		return m, cmd

	case aiview.CreateDraftMsg:
		m.aiView.Reset()
		m.currentView = ViewCanvas
		return m, m.createNote(msg.Draft, nil)

	case tagmgr.TagListCloseMsg:
		m.currentView = ViewCanvas
		return m, nil

	case tagmgr.TagChangedMsg:
		var cmd tea.Cmd
		m.tagView, cmd = m.tagView.Update(msg)
		return m, tea.Batch(cmd, m.reloadBoard())

	case projectmgr.ProjectListCloseMsg:
		m.currentView = ViewCanvas
		return m, nil

	case projectmgr.ProjectSelectedMsg:
		m.currentView = ViewCanvas
		if msg.Project.ID == m.project.ID {
			return m, nil
		}
		return m, m.switchProject(msg.Project)

	case projectmgr.ProjectChangedMsg:
		if msg.Project.ID == m.project.ID {
			m.project = msg.Project
		}
		return m, nil

	case command.CloseMsg:
		m.currentView = ViewCanvas
		return m, nil

	case command.CommandMsg:
		m.currentView = ViewCanvas
		return m.runCommand(msg.Command)

	case settingsview.ConfigDoneMsg:
		m.currentView = ViewCanvas
		return m, nil

	case settingsview.ConfigSavedMsg:
		m.config = msg.Config
		return m, nil

	case settingsview.APIKeySavedMsg:
		m.logger.Info("AI key updated")
		m.aiView = aiview.New(m.ctx, m.newAssistant(msg.Key), m.board,
			m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case outline.CloseMsg:
		m.currentView = ViewCanvas
		return m, nil

	case outline.NoteChosenMsg:
		m.canvasView.SetFocus(msg.NoteID)
		m.openDetail(msg.NoteID, ViewOutline)
		return m, nil

	case detail.BackMsg:
		m.currentView = m.detailReturn
		if m.currentView == ViewOutline {
			return m, m.outlineView.Refresh()
		}
		return m, nil

	case detail.ActionMsg:
		return m.runDetailAction(msg)

	case tea.MouseMsg:
		if m.currentView != ViewCanvas {
			return m, nil
		}
		msg.Y = m.layout.ContentY(msg.Y)
		var cmd tea.Cmd
		m.canvasView, cmd = m.canvasView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.feed.Close()
			return m, tea.Quit
		}
		if next, cmd, ok := m.handleGlobalKey(msg); ok {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey handles keys that switch views. ok is false when the
// key belongs to the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch m.currentView {
	case ViewHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	case ViewCanvas:
	default:
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		m.feed.Close()
		return m, tea.Quit, true

	case "?":
		m.openView(ViewHelp)
		return m, nil, true

	case "n":
		m.openView(ViewNoteForm)
		m.noteForm.SetTags(m.board.Tags())
		return m, m.noteForm.StartCreate(m.project.ID), true

	case "/":
		m.openView(ViewFilter)
		return m, m.filterForm.Start(m.canvasView.Pref(), m.board.Tags()), true

	case "a":
		m.openView(ViewAI)
		return m, m.aiView.Focus(), true

	case "t":
		m.openView(ViewTags)
		return m, m.tagView.Open(m.project.ID), true

	case "P":
		m.openView(ViewProjects)
		return m, m.projectView.Open(m.project.ID), true

	case "o":
		m.openView(ViewOutline)
		return m, m.outlineView.Open(m.canvasView.Pref()), true

	case "i":
		n, ok := m.canvasView.Focused()
		if !ok {
			return m, nil, true
		}
		m.openDetail(n.ID, ViewCanvas)
		return m, nil, true

	case ",":
		m.openView(ViewSettings)
		m.settingsView.Open()
		return m, nil, true

	case ":":
		m.openView(ViewCommand)
		return m, m.commandView.Focus(), true

	case "r":
		m.feed.Refresh()
		m.status = "refreshing"
		return m, nil, true
	}
	return m, nil, false
}

// runCommand executes a palette command against the canvas.
func (m Model) runCommand(c command.Command) (tea.Model, tea.Cmd) {
	switch c.Kind {
	case command.KindArrange:
		var cmd tea.Cmd
		m.canvasView, cmd = m.canvasView.Arrange(c.Layout)
		return m, cmd
	case command.KindView:
		pref := m.canvasView.Pref()
		pref.ViewMode = c.Mode
		m.canvasView.SetPref(pref)
		return m, m.savePref(pref)
	case command.KindClear:
		pref := m.canvasView.Pref().ClearFacets()
		m.canvasView.SetPref(pref)
		return m, m.savePref(pref)
	case command.KindRefresh:
		m.feed.Refresh()
		m.status = "refreshing"
	case command.KindTags:
		m.openView(ViewTags)
		return m, m.tagView.Open(m.project.ID)
	case command.KindProjects:
		m.openView(ViewProjects)
		return m, m.projectView.Open(m.project.ID)
	case command.KindHelp:
		m.openView(ViewHelp)
	case command.KindQuit:
		m.feed.Close()
		return m, tea.Quit
	}
	return m, nil
}

// formReturn is the view shown after the note form closes. Edits started
// from the detail view go back to it.
func (m Model) formReturn() ViewState {
	if m.previousView == ViewDetail {
		return ViewDetail
	}
	return ViewCanvas
}

func (m *Model) openDetail(id string, back ViewState) {
	m.detailView.Open(id)
	m.detailReturn = back
	m.currentView = ViewDetail
	m.status = ""
}

// runDetailAction applies an action chosen in the detail view.
func (m Model) runDetailAction(msg detail.ActionMsg) (tea.Model, tea.Cmd) {
	b, ctx, id := m.board, m.ctx, msg.NoteID
	switch msg.Action {
	case detail.ActionEdit:
		return m.Update(board.EditNoteMsg{NoteID: id})
	case detail.ActionCheckbox:
		index := msg.Index
		return m, func() tea.Msg {
			return board.MutationMsg{Op: "checkbox", NoteID: id, Err: b.ToggleCheckbox(ctx, id, index)}
		}
	case detail.ActionFront:
		return m, func() tea.Msg {
			_, err := b.BringToFront(ctx, id)
			return board.MutationMsg{Op: "front", NoteID: id, Err: err}
		}
	}
	return m, nil
}

func (m *Model) openView(v ViewState) {
	m.previousView = m.currentView
	m.currentView = v
	m.status = ""
}

// updateActiveView dispatches the message to the currently active view.
// The canvas also sees every non-input message while another view is
// open, so its change listener and gesture timers keep running.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd, canvasCmd tea.Cmd

	switch m.currentView {
	case ViewCanvas:
		m.canvasView, cmd = m.canvasView.Update(msg)
		return m, cmd
	case ViewNoteForm:
		m.noteForm, cmd = m.noteForm.Update(msg)
	case ViewFilter:
		m.filterForm, cmd = m.filterForm.Update(msg)
	case ViewAI:
		m.aiView, cmd = m.aiView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewTags:
		m.tagView, cmd = m.tagView.Update(msg)
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewOutline:
		m.outlineView, cmd = m.outlineView.Update(msg)
		if _, ok := msg.(board.ChangedMsg); ok {
			cmd = tea.Batch(cmd, m.outlineView.Refresh())
		}
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	}

	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg, tea.WindowSizeMsg:
	default:
		m.canvasView, canvasCmd = m.canvasView.Update(msg)
	}
	return m, tea.Batch(cmd, canvasCmd)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Plotta · " + m.project.Name
	header := m.layout.RenderHeader(title, ui.FeedLabel(m.feedStatus, time.Now()))
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCanvas:
		return m.canvasView.View()
	case ViewNoteForm:
		return m.noteForm.View()
	case ViewFilter:
		return m.filterForm.View()
	case ViewAI:
		return m.aiView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewTags:
		return m.tagView.View()
	case ViewProjects:
		return m.projectView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewOutline:
		return m.outlineView.View()
	case ViewDetail:
		return m.detailView.View()
	default:
		return ""
	}
}

// keyHints returns hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewAI:
		return "tab action | enter send | ctrl+s add note | esc close"
	case ViewNoteForm, ViewFilter:
		return "enter submit | esc cancel"
	case ViewTags, ViewProjects, ViewSettings:
		return "j/k select | esc back"
	case ViewCommand:
		return "enter run | esc close"
	case ViewOutline:
		return "enter open | / search | tab sort | esc back"
	case ViewDetail:
		return "e edit | 1-9 toggle checkbox | f front | esc back"
	default:
		summary := m.canvasView.Summary()
		if m.status != "" {
			summary += " | " + m.status
		}
		return summary + " | n new | / filter | o outline | : command | ? help | q quit"
	}
}
