package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	aiservice "github.com/nhle/plotta/internal/ai"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/ui/board"
)

// noteCreatedResultMsg is sent after a note is persisted.
type noteCreatedResultMsg struct {
	note model.Note
	err  error
}

// createNote persists a new note and sets its tags.
func (m *Model) createNote(draft model.NoteDraft, tagIDs []string) tea.Cmd {
	b, ctx, logger := m.board, m.ctx, m.logger
	return func() tea.Msg {
		n, err := b.Create(ctx, draft)
		if err != nil {
			return noteCreatedResultMsg{err: err}
		}
		if len(tagIDs) > 0 {
			if err := b.SetNoteTags(ctx, n.ID, tagIDs); err != nil {
				logger.Warn("tagging new note failed", zap.String("note", n.ID), zap.Error(err))
				return noteCreatedResultMsg{note: n, err: err}
			}
		}
		return noteCreatedResultMsg{note: n}
	}
}

// updateNote persists the edited fields of a note and, when the tag
// selection changed, its tags.
func (m *Model) updateNote(id string, patch model.NotePatch, tagIDs []string, tagsEdited bool) tea.Cmd {
	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		if !patch.Empty() {
			if err := b.Update(ctx, id, patch); err != nil {
				return board.MutationMsg{Op: "update", NoteID: id, Err: err}
			}
		}
		if tagsEdited {
			if err := b.SetNoteTags(ctx, id, tagIDs); err != nil {
				return board.MutationMsg{Op: "tags", NoteID: id, Err: err}
			}
		}
		return board.MutationMsg{Op: "update", NoteID: id}
	}
}

// prefLoadedMsg carries the saved view preference of the open project.
type prefLoadedMsg struct {
	pref model.ViewPreference
	err  error
}

// loadPref reads the saved view preference of the open project.
func (m *Model) loadPref() tea.Cmd {
	s, ctx, projectID := m.store, m.ctx, m.project.ID
	return func() tea.Msg {
		pref, err := s.LoadViewPreference(ctx, projectID)
		return prefLoadedMsg{pref: pref, err: err}
	}
}

// savePref persists the view preference of the open project. Failures
// are only logged; the preference stays active for the session.
func (m *Model) savePref(pref model.ViewPreference) tea.Cmd {
	s, ctx, projectID, logger := m.store, m.ctx, m.project.ID, m.logger
	return func() tea.Msg {
		if err := s.SaveViewPreference(ctx, projectID, pref); err != nil {
			logger.Warn("saving view preference failed", zap.String("project", projectID), zap.Error(err))
		}
		return nil
	}
}

// feedOpenedMsg is sent once the change feed of the project is open and
// the board is loaded.
type feedOpenedMsg struct{ err error }

// openFeed subscribes the board to the project's change feed.
func (m *Model) openFeed() tea.Cmd {
	f, ctx, projectID := m.feed, m.ctx, m.project.ID
	return func() tea.Msg {
		return feedOpenedMsg{err: f.Open(ctx, projectID)}
	}
}

// reloadBoard reloads the open project after its tags changed.
func (m *Model) reloadBoard() tea.Cmd {
	b, ctx, projectID := m.board, m.ctx, m.project.ID
	return func() tea.Msg {
		return board.MutationMsg{Op: "reload", Err: b.Load(ctx, projectID)}
	}
}

// switchProject opens the canvas of p in place of the current one. The
// feed closes its old subscription before loading the new project.
func (m *Model) switchProject(p model.Project) tea.Cmd {
	m.logger.Info("switching project", zap.String("from", m.project.ID), zap.String("to", p.ID))
	m.project = p
	m.status = ""
	m.canvasView.SetPref(model.DefaultViewPreference())
	return tea.Batch(m.openFeed(), m.loadPref())
}

// newAssistant builds an assistant for apiKey with the current AI settings.
func (m *Model) newAssistant(apiKey string) *aiservice.Assistant {
	return aiservice.New(apiKey, m.config.AI.Model, m.config.AI.MaxTokens,
		aiservice.WithLogger(m.logger.Named("ai")),
		aiservice.WithPlacer(m.board.Placer()))
}
