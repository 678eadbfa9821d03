package model

import "time"

// Tag is a colored label scoped to a project.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NoteTag associates a note with a tag.
type NoteTag struct {
	NoteID string `json:"note_id" db:"note_id"`
	TagID  string `json:"tag_id" db:"tag_id"`
}
