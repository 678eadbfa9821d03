package model

import (
	"strings"
	"time"
)

// Color is one of the fixed note palette entries.
type Color string

const (
	ColorDefault Color = "default"
	ColorYellow  Color = "yellow"
	ColorRed     Color = "red"
	ColorBlue    Color = "blue"
	ColorGreen   Color = "green"
	ColorPink    Color = "pink"
	ColorPurple  Color = "purple"
	ColorOrange  Color = "orange"
)

// Colors lists the palette in its canonical order.
var Colors = []Color{
	ColorYellow, ColorRed, ColorBlue, ColorGreen,
	ColorPurple, ColorOrange, ColorPink, ColorDefault,
}

// Valid reports whether c is a palette color.
func (c Color) Valid() bool {
	for _, p := range Colors {
		if p == c {
			return true
		}
	}
	return false
}

// Priority is a note's urgency. The empty Priority means unset.
type Priority string

const (
	PriorityNone     Priority = ""
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists the settable priorities from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is unset or a known priority.
func (p Priority) Valid() bool {
	if p == PriorityNone {
		return true
	}
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// Status is the optional workflow status of a note.
type Status string

const (
	StatusNone       Status = ""
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Default geometry for newly created notes.
const (
	DefaultNoteWidth  = 300
	DefaultNoteHeight = 250
)

// Note is a positioned sticky note on a project canvas.
type Note struct {
	ID        string     `json:"id" db:"id"`
	ProjectID string     `json:"project_id" db:"project_id"`
	Title     string     `json:"title" db:"title"`
	Content   string     `json:"content" db:"content"`
	Color     Color      `json:"color" db:"color"`
	PositionX float64    `json:"position_x" db:"position_x"`
	PositionY float64    `json:"position_y" db:"position_y"`
	Width     float64    `json:"width" db:"width"`
	Height    float64    `json:"height" db:"height"`
	ZIndex    int        `json:"z_index" db:"z_index"`
	Locked    bool       `json:"is_locked" db:"is_locked"`
	Pinned    bool       `json:"is_pinned" db:"is_pinned"`
	Hidden    bool       `json:"is_hidden" db:"is_hidden"`
	Priority  Priority   `json:"priority" db:"priority"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	Status    Status     `json:"status" db:"status"`
	CreatedBy string     `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// LocalIDPrefix marks ids assigned on the client before the gateway
// has confirmed a note. Gateway ids never carry it.
const LocalIDPrefix = "local-"

// Provisional reports whether the note has not been confirmed by the gateway.
func (n Note) Provisional() bool {
	return n.ID == "" || strings.HasPrefix(n.ID, LocalIDPrefix)
}

// NoteDraft carries the caller-supplied fields of a note to be created.
// Zero values are replaced by defaults at creation time.
type NoteDraft struct {
	ProjectID string
	Title     string
	Content   string
	Color     Color
	PositionX *float64
	PositionY *float64
	Width     float64
	Height    float64
	Priority  Priority
	DueDate   *time.Time
	Status    Status
	CreatedBy string
}

// NotePatch is a partial update. Nil fields are left untouched, so two
// patches over disjoint fields never clobber each other.
type NotePatch struct {
	Title     *string
	Content   *string
	Color     *Color
	PositionX *float64
	PositionY *float64
	Width     *float64
	Height    *float64
	ZIndex    *int
	Locked    *bool
	Pinned    *bool
	Hidden    *bool
	Priority  *Priority
	// DueDate is applied when SetDueDate is true; a nil DueDate then clears it.
	DueDate    *time.Time
	SetDueDate bool
	Status     *Status
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Color == nil &&
		p.PositionX == nil && p.PositionY == nil &&
		p.Width == nil && p.Height == nil && p.ZIndex == nil &&
		p.Locked == nil && p.Pinned == nil && p.Hidden == nil &&
		p.Priority == nil && !p.SetDueDate && p.Status == nil
}

// Apply returns a copy of n with the patch's fields written over it.
func (p NotePatch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.PositionX != nil {
		n.PositionX = *p.PositionX
	}
	if p.PositionY != nil {
		n.PositionY = *p.PositionY
	}
	if p.Width != nil {
		n.Width = *p.Width
	}
	if p.Height != nil {
		n.Height = *p.Height
	}
	if p.ZIndex != nil {
		n.ZIndex = *p.ZIndex
	}
	if p.Locked != nil {
		n.Locked = *p.Locked
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if p.Hidden != nil {
		n.Hidden = *p.Hidden
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	if p.SetDueDate {
		if p.DueDate == nil {
			n.DueDate = nil
		} else {
			d := *p.DueDate
			n.DueDate = &d
		}
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	return n
}

// MovePatch builds a position-only patch.
func MovePatch(x, y float64) NotePatch {
	return NotePatch{PositionX: &x, PositionY: &y}
}
