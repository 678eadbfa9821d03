package canvas

import (
	"errors"
	"fmt"
)

// ErrUnknownNote is returned when an operation targets a note the board
// does not hold.
var ErrUnknownNote = errors.New("unknown note")

// FetchError reports a failed full load of a project's notes.
type FetchError struct {
	ProjectID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching notes for project %s: %v", e.ProjectID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CreateError reports a note the gateway did not create.
type CreateError struct {
	ProjectID string
	Err       error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("creating note in project %s: %v", e.ProjectID, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// UpdateError reports a rejected partial update. The board has already
// reverted the optimistic change when this is returned.
type UpdateError struct {
	NoteID string
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("updating note %s: %v", e.NoteID, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// DeleteError reports a failed delete. The note is back on the board
// when this is returned.
type DeleteError struct {
	NoteID string
	Err    error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("deleting note %s: %v", e.NoteID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
