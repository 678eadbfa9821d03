package outline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// NoteItem wraps a model.Note so it can be used in a bubbles/list.
type NoteItem struct {
	Note model.Note
	Tags []string
	Now  time.Time
}

// FilterValue returns the string used for fuzzy filtering.
func (i NoteItem) FilterValue() string { return i.Note.Title }

// Title returns the note title for the list.
func (i NoteItem) Title() string {
	if i.Note.Title == "" {
		return "(untitled)"
	}
	return i.Note.Title
}

// Description returns a short summary line for the list.
func (i NoteItem) Description() string {
	parts := []string{string(i.Note.Color)}
	if i.Note.Priority != model.PriorityNone {
		parts = append(parts, string(i.Note.Priority))
	}
	parts = append(parts, relativeTime(i.Note.UpdatedAt, i.Now))
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering note rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single note row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(NoteItem)
	if !ok {
		return
	}
	n := it.Note

	dot := lipgloss.NewStyle().Foreground(theme.NoteColor(n.Color)).Render("●")
	priBadge := theme.PriorityStyle(n.Priority).Render(priorityLabel(n.Priority))

	var flags string
	if n.Pinned {
		flags += " 📌"
	}
	if n.Locked {
		flags += " 🔒"
	}

	progress := ""
	if boxes := canvas.Checkboxes(n.Content); len(boxes) > 0 {
		done := 0
		for _, b := range boxes {
			if b.Checked {
				done++
			}
		}
		progress = theme.DimmedStyle.Render(fmt.Sprintf(" [%d/%d]", done, len(boxes)))
	}

	tagBadge := ""
	if len(it.Tags) > 0 {
		// Show max 2 tags to avoid overflow
		display := it.Tags
		if len(display) > 2 {
			display = append(display[:2:2], "…")
		}
		tagBadge = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" #" + strings.Join(display, " #"))
	}

	dueStr := ""
	if n.DueDate != nil {
		today := canvas.Day(it.Now, it.Now.Location())
		if n.DueDate.Before(today) {
			dueStr = theme.OverdueStyle.Render(" overdue " + n.DueDate.Format("Jan 02"))
		} else {
			dueStr = theme.DimmedStyle.Render(" due " + n.DueDate.Format("Jan 02"))
		}
	}

	timeStr := theme.DimmedStyle.Render("  " + relativeTime(n.UpdatedAt, it.Now))

	line := fmt.Sprintf("%s %s %s%s%s%s%s%s",
		dot, priBadge, it.Title(), flags, progress, tagBadge, dueStr, timeStr,
	)

	if n.Hidden {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "P1"
	case model.PriorityHigh:
		return "P2"
	case model.PriorityMedium:
		return "P3"
	case model.PriorityLow:
		return "P4"
	default:
		return "--"
	}
}
