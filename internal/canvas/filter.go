package canvas

import (
	"cmp"
	"slices"
	"time"

	"github.com/nhle/plotta/internal/model"
)

// Day truncates t to midnight in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Filter derives the notes matching pref from notes, keeping their
// order. The view mode applies first, then each active facet. Values
// within a facet are ORed and facets are ANDed. noteTags maps a note id
// to its tag ids. "Today" is taken from now in now's location on every
// call, so the result can change across midnight.
func Filter(
	notes []model.Note,
	noteTags map[string][]string,
	pref model.ViewPreference,
	now time.Time,
) []model.Note {
	today := Day(now, now.Location())

	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if !MatchesViewMode(n, pref.ViewMode, today) {
			continue
		}
		if len(pref.SelectedTagIDs) > 0 && !hasAnyTag(noteTags[n.ID], pref.SelectedTagIDs) {
			continue
		}
		if len(pref.SelectedPriorities) > 0 &&
			(n.Priority == model.PriorityNone || !slices.Contains(pref.SelectedPriorities, n.Priority)) {
			continue
		}
		if len(pref.SelectedDueDates) > 0 && !inAnyBucket(n, pref.SelectedDueDates, today) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// MatchesViewMode reports whether n passes the temporal filter of mode.
// today must be a midnight as returned by Day.
func MatchesViewMode(n model.Note, mode model.ViewMode, today time.Time) bool {
	if mode == model.ViewAll || mode == "" {
		return true
	}

	if n.DueDate == nil {
		return mode == model.ViewToday || mode == model.ViewWeek
	}
	due := Day(*n.DueDate, today.Location())
	weekEnd := today.AddDate(0, 0, 7)

	switch mode {
	case model.ViewToday:
		return due.Equal(today)
	case model.ViewWeek:
		return !due.Before(today) && !due.After(weekEnd)
	case model.ViewSnoozed:
		return due.After(today)
	case model.ViewLater:
		return due.After(weekEnd)
	default:
		return true
	}
}

// InBucket reports whether n falls in the due-date bucket b.
func InBucket(n model.Note, b model.DueBucket, today time.Time) bool {
	if n.DueDate == nil {
		return b == model.DueNoDate
	}
	due := Day(*n.DueDate, today.Location())

	switch b {
	case model.DueOverdue:
		return due.Before(today)
	case model.DueToday:
		return due.Equal(today)
	case model.DueTomorrow:
		return due.Equal(today.AddDate(0, 0, 1))
	case model.DueThisWeek:
		return !due.Before(today) && !due.After(today.AddDate(0, 0, 7))
	default:
		return false
	}
}

func inAnyBucket(n model.Note, buckets []model.DueBucket, today time.Time) bool {
	for _, b := range buckets {
		if InBucket(n, b, today) {
			return true
		}
	}
	return false
}

func hasAnyTag(have, want []string) bool {
	for _, id := range have {
		if slices.Contains(want, id) {
			return true
		}
	}
	return false
}

// RenderOrder returns the notes to draw, back to front: hidden notes are
// dropped and the rest are stably sorted by effective order, so pinned
// notes come last.
func RenderOrder(notes []model.Note) []model.Note {
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if !n.Hidden {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Note) int {
		return cmp.Compare(EffectiveOrder(a), EffectiveOrder(b))
	})
	return out
}
