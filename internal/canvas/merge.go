package canvas

import (
	"time"

	"github.com/nhle/plotta/internal/model"
)

// fieldGroup is a set of note fields that are edited together. Pending
// local edits and remote merges are tracked per group.
type fieldGroup uint8

const (
	groupPosition fieldGroup = 1 << iota
	groupSize
	groupContent
	groupStyle
	groupOrder
	groupFlags
	groupSchedule
)

var allGroups = []fieldGroup{
	groupPosition, groupSize, groupContent, groupStyle,
	groupOrder, groupFlags, groupSchedule,
}

// groupsOf returns the groups a patch touches.
func groupsOf(p model.NotePatch) fieldGroup {
	var g fieldGroup
	if p.PositionX != nil || p.PositionY != nil {
		g |= groupPosition
	}
	if p.Width != nil || p.Height != nil {
		g |= groupSize
	}
	if p.Title != nil || p.Content != nil {
		g |= groupContent
	}
	if p.Color != nil {
		g |= groupStyle
	}
	if p.ZIndex != nil {
		g |= groupOrder
	}
	if p.Locked != nil || p.Pinned != nil || p.Hidden != nil {
		g |= groupFlags
	}
	if p.Priority != nil || p.SetDueDate || p.Status != nil {
		g |= groupSchedule
	}
	return g
}

// copyGroup returns dst with the fields of group g taken from src.
func copyGroup(dst, src model.Note, g fieldGroup) model.Note {
	switch g {
	case groupPosition:
		dst.PositionX, dst.PositionY = src.PositionX, src.PositionY
	case groupSize:
		dst.Width, dst.Height = src.Width, src.Height
	case groupContent:
		dst.Title, dst.Content = src.Title, src.Content
	case groupStyle:
		dst.Color = src.Color
	case groupOrder:
		dst.ZIndex = src.ZIndex
	case groupFlags:
		dst.Locked, dst.Pinned, dst.Hidden = src.Locked, src.Pinned, src.Hidden
	case groupSchedule:
		dst.Priority, dst.Status = src.Priority, src.Status
		if src.DueDate == nil {
			dst.DueDate = nil
		} else {
			d := *src.DueDate
			dst.DueDate = &d
		}
	}
	return dst
}

// pendingEdit is a local optimistic change to one field group that the
// gateway has not confirmed yet.
type pendingEdit struct {
	seq   uint64
	stamp time.Time
	// prior is the note as it was before the edit, used for rollback.
	prior model.Note
	// overridden is set once a newer remote write replaced the group, so
	// a rollback must not restore stale values over it.
	overridden bool
}

// edit identifies one staged patch across the groups it touched.
type edit struct {
	id     string
	groups fieldGroup
	seq    uint64
}
