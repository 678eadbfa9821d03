package model

// ChangeType identifies the kind of row change delivered by a change feed.
type ChangeType string

const (
	ChangeInserted ChangeType = "INSERT"
	ChangeUpdated  ChangeType = "UPDATE"
	ChangeDeleted  ChangeType = "DELETE"
)

// ChangeEvent is one realtime notification for a note collection.
// Note is set for inserts and updates; ID is always set.
type ChangeEvent struct {
	Type ChangeType
	ID   string
	Note *Note
}

// Inserted builds an insert event for n.
func Inserted(n Note) ChangeEvent {
	return ChangeEvent{Type: ChangeInserted, ID: n.ID, Note: &n}
}

// Updated builds an update event for n.
func Updated(n Note) ChangeEvent {
	return ChangeEvent{Type: ChangeUpdated, ID: n.ID, Note: &n}
}

// Deleted builds a delete event for the note with the given id.
func Deleted(id string) ChangeEvent {
	return ChangeEvent{Type: ChangeDeleted, ID: id}
}
