package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	appsync "github.com/nhle/plotta/internal/sync"
	"github.com/nhle/plotta/internal/theme"
)

// Layout manages the header, content and status bar dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// ContentY maps a terminal row to a row of the content area.
func (l Layout) ContentY(y int) int {
	return y - l.HeaderHeight
}

// FeedLabel describes the change feed state for the header.
func FeedLabel(st appsync.Status, now time.Time) string {
	switch st.State {
	case appsync.FeedLive:
		if st.LastEvent.IsZero() {
			return "live"
		}
		return fmt.Sprintf("live · %s ago", since(now, st.LastEvent))
	case appsync.FeedError:
		if st.Error != nil {
			return "⚠ offline: " + st.Error.Error()
		}
		return "⚠ offline"
	default:
		return "not connected"
	}
}

func since(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

// RenderHeader renders the top header bar with a title and feed status.
func (l Layout) RenderHeader(title string, feedStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(feedStatus)

	gap := max(l.Width-
		lipgloss.Width(titleRendered)-
		lipgloss.Width(statusRendered), 0)

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.
		MaxWidth(l.Width).
		Render(hints)

	gap := max(l.Width-lipgloss.Width(rendered), 0)

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, a content area clipped to its height, and the status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
