package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/plotta/internal/model"
)

// noteColumns is the column list shared by every note query.
const noteColumns = `id, project_id, title, content, color,
	position_x, position_y, width, height, z_index,
	is_locked, is_pinned, is_hidden, priority, due_date, status,
	created_by, created_at, updated_at`

// FetchNotes returns every note of a project ordered by creation time.
func (s *SQLiteStore) FetchNotes(
	ctx context.Context,
	projectID string,
) ([]model.Note, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE project_id = ? ORDER BY created_at, rowid",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("querying notes for project %s: %w", projectID, err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetNoteByID retrieves a single note.
func (s *SQLiteStore) GetNoteByID(ctx context.Context, id string) (model.Note, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("getting note %s: %w", id, err)
	}
	return n, nil
}

// InsertNote creates a note from a draft, assigning its id, and
// publishes an insert event.
func (s *SQLiteStore) InsertNote(
	ctx context.Context,
	draft model.NoteDraft,
) (model.Note, error) {
	if strings.TrimSpace(draft.ProjectID) == "" {
		return model.Note{}, fmt.Errorf("note project must not be empty")
	}
	if draft.Color != "" && !draft.Color.Valid() {
		return model.Note{}, fmt.Errorf("unknown note color %q", draft.Color)
	}
	if !draft.Priority.Valid() {
		return model.Note{}, fmt.Errorf("unknown note priority %q", draft.Priority)
	}

	now := time.Now().UTC()
	n := model.Note{
		ID:        uuid.New().String(),
		ProjectID: draft.ProjectID,
		Title:     draft.Title,
		Content:   draft.Content,
		Color:     draft.Color,
		Width:     draft.Width,
		Height:    draft.Height,
		Priority:  draft.Priority,
		DueDate:   draft.DueDate,
		Status:    draft.Status,
		CreatedBy: draft.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.Color == "" {
		n.Color = model.ColorYellow
	}
	if draft.PositionX != nil {
		n.PositionX = *draft.PositionX
	}
	if draft.PositionY != nil {
		n.PositionY = *draft.PositionY
	}
	if n.Width <= 0 {
		n.Width = model.DefaultNoteWidth
	}
	if n.Height <= 0 {
		n.Height = model.DefaultNoteHeight
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (
			id, project_id, title, content, color,
			position_x, position_y, width, height, z_index,
			is_locked, is_pinned, is_hidden, priority, due_date, status,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ProjectID, n.Title, n.Content, string(n.Color),
		n.PositionX, n.PositionY, n.Width, n.Height,
		string(n.Priority), utcPtr(n.DueDate), string(n.Status),
		n.CreatedBy, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return model.Note{}, fmt.Errorf("creating note: %w", err)
	}

	s.feed.publish(n.ProjectID, model.Inserted(n))
	return n, nil
}

// PatchNote writes only the fields set in patch, then publishes an
// update event carrying the stored row.
func (s *SQLiteStore) PatchNote(
	ctx context.Context,
	id string,
	patch model.NotePatch,
) (model.Note, error) {
	if patch.Color != nil && !patch.Color.Valid() {
		return model.Note{}, fmt.Errorf("unknown note color %q", *patch.Color)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return model.Note{}, fmt.Errorf("unknown note priority %q", *patch.Priority)
	}

	sets, args := buildNotePatch(patch)
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return model.Note{}, fmt.Errorf("updating note %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.Note{}, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}

	n, err := s.GetNoteByID(ctx, id)
	if err != nil {
		return model.Note{}, err
	}

	s.feed.publish(n.ProjectID, model.Updated(n))
	return n, nil
}

// DeleteNote removes a note (and its tag associations) and publishes a
// delete event.
func (s *SQLiteStore) DeleteNote(ctx context.Context, id string) error {
	var projectID string
	err := s.db.GetContext(ctx, &projectID,
		"SELECT project_id FROM notes WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up note %s: %w", id, err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting note %s: %w", id, err)
	}

	s.feed.publish(projectID, model.Deleted(id))
	return nil
}

// Subscribe opens the change feed of a project.
func (s *SQLiteStore) Subscribe(
	ctx context.Context,
	projectID string,
) (<-chan model.ChangeEvent, func(), error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, nil, fmt.Errorf("subscribe: project must not be empty")
	}
	ch, release := s.feed.subscribe(ctx, projectID)
	return ch, release, nil
}

// buildNotePatch returns the SET clauses and args for the fields set in patch.
func buildNotePatch(p model.NotePatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Content != nil {
		add("content", *p.Content)
	}
	if p.Color != nil {
		add("color", string(*p.Color))
	}
	if p.PositionX != nil {
		add("position_x", *p.PositionX)
	}
	if p.PositionY != nil {
		add("position_y", *p.PositionY)
	}
	if p.Width != nil {
		add("width", *p.Width)
	}
	if p.Height != nil {
		add("height", *p.Height)
	}
	if p.ZIndex != nil {
		add("z_index", *p.ZIndex)
	}
	if p.Locked != nil {
		add("is_locked", boolToInt(*p.Locked))
	}
	if p.Pinned != nil {
		add("is_pinned", boolToInt(*p.Pinned))
	}
	if p.Hidden != nil {
		add("is_hidden", boolToInt(*p.Hidden))
	}
	if p.Priority != nil {
		add("priority", string(*p.Priority))
	}
	if p.SetDueDate {
		add("due_date", utcPtr(p.DueDate))
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}

	return sets, args
}

// scanNote scans a note row from sqlx.Rows or sqlx.Row.
func scanNote(row interface{ Scan(dest ...interface{}) error }) (model.Note, error) {
	var (
		n                      model.Note
		color, prio, status    string
		locked, pinned, hidden int
		dueDate                *time.Time
	)

	err := row.Scan(
		&n.ID, &n.ProjectID, &n.Title, &n.Content, &color,
		&n.PositionX, &n.PositionY, &n.Width, &n.Height, &n.ZIndex,
		&locked, &pinned, &hidden, &prio, &dueDate, &status,
		&n.CreatedBy, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Note{}, err
		}
		return model.Note{}, fmt.Errorf("scanning note row: %w", err)
	}

	n.Color = model.Color(color)
	n.Priority = model.Priority(prio)
	n.Status = model.Status(status)
	n.Locked = locked != 0
	n.Pinned = pinned != 0
	n.Hidden = hidden != 0
	n.DueDate = dueDate

	return n, nil
}

// utcPtr normalizes an optional timestamp for storage.
func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
