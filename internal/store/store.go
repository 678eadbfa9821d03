package store

import (
	"context"
	"errors"

	"github.com/nhle/plotta/internal/model"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// NoteGateway is the remote data contract for notes: CRUD plus a
// per-project change feed.
type NoteGateway interface {
	// FetchNotes returns every note of a project in creation order.
	FetchNotes(ctx context.Context, projectID string) ([]model.Note, error)

	// InsertNote creates a note and returns it with its assigned id.
	InsertNote(ctx context.Context, draft model.NoteDraft) (model.Note, error)

	// PatchNote applies a partial update and returns the stored row.
	PatchNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error)

	// DeleteNote removes a note.
	DeleteNote(ctx context.Context, id string) error

	// Subscribe opens the change feed of a project. The returned close
	// function must be called to release the subscription; it is also
	// released when ctx is done. The channel is closed after release.
	Subscribe(ctx context.Context, projectID string) (<-chan model.ChangeEvent, func(), error)
}

// TagGateway exposes project tags and their note associations.
type TagGateway interface {
	GetTags(ctx context.Context, projectID string) ([]model.Tag, error)
	GetNoteTags(ctx context.Context, projectID string) ([]model.NoteTag, error)
	SetNoteTags(ctx context.Context, noteID string, tagIDs []string) error
}

// Store defines the full persistence interface for notes, projects,
// tags and locally persisted view preferences.
type Store interface {
	NoteGateway
	TagGateway

	// === Project CRUD ===

	CreateProject(ctx context.Context, project model.Project) (model.Project, error)
	UpdateProject(ctx context.Context, project model.Project) error
	DeleteProject(ctx context.Context, id string) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjects(ctx context.Context, ownerID string) ([]model.Project, error)
	EnsureDefaultProject(ctx context.Context, ownerID string) (model.Project, error)

	// === Tag CRUD ===

	CreateTag(ctx context.Context, tag model.Tag) (model.Tag, error)
	UpdateTag(ctx context.Context, tag model.Tag) error
	DeleteTag(ctx context.Context, id string) error

	// === View preferences ===

	LoadViewPreference(ctx context.Context, projectID string) (model.ViewPreference, error)
	SaveViewPreference(ctx context.Context, projectID string, pref model.ViewPreference) error

	Close() error
}
