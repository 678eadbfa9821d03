package model

import "time"

// DefaultProjectName is the project every user is guaranteed to own.
const DefaultProjectName = "Drafts"

// Project is a named canvas that owns zero or more notes.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	ThemeColor  string    `json:"theme_color" db:"theme_color"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
