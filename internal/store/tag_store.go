package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/plotta/internal/model"
)

// CreateTag inserts a new tag in a project.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag model.Tag) (model.Tag, error) {
	if strings.TrimSpace(tag.Name) == "" {
		return model.Tag{}, fmt.Errorf("tag name must not be empty")
	}
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	tag.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (id, project_id, name, color, created_at) VALUES (?, ?, ?, ?, ?)",
		tag.ID, tag.ProjectID, tag.Name, tag.Color, tag.CreatedAt,
	)
	if err != nil {
		return model.Tag{}, fmt.Errorf("creating tag: %w", err)
	}
	return tag, nil
}

// UpdateTag updates a tag's name and color.
func (s *SQLiteStore) UpdateTag(ctx context.Context, tag model.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tags SET name = ?, color = ? WHERE id = ?",
		tag.Name, tag.Color, tag.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tag %s: %w", tag.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("tag %s: %w", tag.ID, ErrNotFound)
	}
	return nil
}

// DeleteTag removes a tag. CASCADE on note_tags removes associations.
func (s *SQLiteStore) DeleteTag(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTags retrieves the tags of a project ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context, projectID string) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags,
		"SELECT id, project_id, name, color, created_at FROM tags WHERE project_id = ? ORDER BY name",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for project %s: %w", projectID, err)
	}
	return tags, nil
}

// GetNoteTags retrieves every note/tag association within a project.
func (s *SQLiteStore) GetNoteTags(
	ctx context.Context,
	projectID string,
) ([]model.NoteTag, error) {
	var assoc []model.NoteTag
	err := s.db.SelectContext(ctx, &assoc, `
		SELECT nt.note_id, nt.tag_id FROM note_tags nt
		INNER JOIN notes n ON n.id = nt.note_id
		WHERE n.project_id = ?
		ORDER BY nt.created_at, nt.rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying note tags for project %s: %w", projectID, err)
	}
	return assoc, nil
}

// SetNoteTags replaces all tag associations for a note.
func (s *SQLiteStore) SetNoteTags(
	ctx context.Context,
	noteID string,
	tagIDs []string,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove existing associations.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM note_tags WHERE note_id = ?", noteID); err != nil {
		return fmt.Errorf("clearing note tags: %w", err)
	}

	// Insert new associations.
	now := time.Now().UTC()
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO note_tags (note_id, tag_id, created_at) VALUES (?, ?, ?)",
			noteID, tagID, now); err != nil {
			return fmt.Errorf("setting tag %s on note %s: %w", tagID, noteID, err)
		}
	}

	return tx.Commit()
}
