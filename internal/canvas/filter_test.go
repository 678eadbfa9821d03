package canvas_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
)

var testZone = time.FixedZone("UTC+2", 2*60*60)

// june returns midnight of the given June 2024 day in testZone.
func june(day int) *time.Time {
	t := time.Date(2024, 6, day, 0, 0, 0, 0, testZone)
	return &t
}

func dueNote(id string, due *time.Time) model.Note {
	n := seedNote(id)
	n.DueDate = due
	return n
}

func TestFilter_ViewModes(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 30, 0, 0, testZone)
	notes := []model.Note{
		dueNote("none", nil),
		dueNote("past", june(9)),
		dueNote("today", june(10)),
		dueNote("mid", june(12)),
		dueNote("edge", june(17)),
		dueNote("beyond", june(18)),
	}

	tests := []struct {
		mode model.ViewMode
		want []string
	}{
		{model.ViewAll, []string{"none", "past", "today", "mid", "edge", "beyond"}},
		{model.ViewToday, []string{"none", "today"}},
		{model.ViewWeek, []string{"none", "today", "mid", "edge"}},
		{model.ViewSnoozed, []string{"mid", "edge", "beyond"}},
		{model.ViewLater, []string{"beyond"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			pref := model.ViewPreference{ViewMode: tt.mode}
			assert.Equal(t, tt.want, ids(canvas.Filter(notes, nil, pref, now)))
		})
	}
}

func TestFilter_DueDatesCompareInLocalDays(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 5, 0, 0, testZone)
	// 22:00 UTC on the 16th is midnight of the 17th in testZone.
	stored := time.Date(2024, 6, 16, 22, 0, 0, 0, time.UTC)
	notes := []model.Note{dueNote("edge", &stored)}

	week := model.ViewPreference{ViewMode: model.ViewWeek}
	later := model.ViewPreference{ViewMode: model.ViewLater}
	assert.Equal(t, []string{"edge"}, ids(canvas.Filter(notes, nil, week, now)))
	assert.Empty(t, canvas.Filter(notes, nil, later, now))
}

func TestFilter_FacetsAndAcrossOrWithin(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, testZone)
	n1, n2, n3 := seedNote("n1"), seedNote("n2"), seedNote("n3")
	n1.Priority = model.PriorityHigh
	n2.Priority = model.PriorityLow
	n3.Priority = model.PriorityHigh
	notes := []model.Note{n1, n2, n3}
	tags := map[string][]string{"n1": {"T1"}, "n2": {"T1"}, "n3": {"T2"}}

	pref := model.DefaultViewPreference()
	pref.SelectedTagIDs = []string{"T1"}
	pref.SelectedPriorities = []model.Priority{model.PriorityHigh}
	assert.Equal(t, []string{"n1"}, ids(canvas.Filter(notes, tags, pref, now)))

	pref.SelectedTagIDs = []string{"T1", "T2"}
	assert.Equal(t, []string{"n1", "n3"}, ids(canvas.Filter(notes, tags, pref, now)))

	pref = pref.ClearFacets()
	assert.Equal(t, []string{"n1", "n2", "n3"}, ids(canvas.Filter(notes, tags, pref, now)))
}

func TestFilter_PriorityFacetExcludesUnset(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, testZone)
	low := seedNote("low")
	low.Priority = model.PriorityLow
	notes := []model.Note{seedNote("unset"), low}

	pref := model.DefaultViewPreference()
	pref.SelectedPriorities = []model.Priority{model.PriorityLow, model.PriorityCritical}
	assert.Equal(t, []string{"low"}, ids(canvas.Filter(notes, nil, pref, now)))
}

func TestFilter_DueBuckets(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, testZone)
	notes := []model.Note{
		dueNote("none", nil),
		dueNote("overdue", june(3)),
		dueNote("today", june(10)),
		dueNote("tomorrow", june(11)),
		dueNote("week", june(17)),
		dueNote("later", june(20)),
	}

	tests := []struct {
		buckets []model.DueBucket
		want    []string
	}{
		{[]model.DueBucket{model.DueOverdue}, []string{"overdue"}},
		{[]model.DueBucket{model.DueToday}, []string{"today"}},
		{[]model.DueBucket{model.DueTomorrow}, []string{"tomorrow"}},
		{[]model.DueBucket{model.DueThisWeek}, []string{"today", "tomorrow", "week"}},
		{[]model.DueBucket{model.DueNoDate}, []string{"none"}},
		{[]model.DueBucket{model.DueOverdue, model.DueNoDate}, []string{"none", "overdue"}},
	}
	for _, tt := range tests {
		pref := model.DefaultViewPreference()
		pref.SelectedDueDates = tt.buckets
		assert.Equal(t, tt.want, ids(canvas.Filter(notes, nil, pref, now)), "buckets %v", tt.buckets)
	}
}

func TestFilter_ViewModeRunsBeforeFacets(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, testZone)
	notes := []model.Note{dueNote("none", nil), dueNote("later", june(25))}

	pref := model.ViewPreference{
		ViewMode:         model.ViewToday,
		SelectedDueDates: []model.DueBucket{model.DueNoDate, model.DueThisWeek},
	}
	assert.Equal(t, []string{"none"}, ids(canvas.Filter(notes, nil, pref, now)))
}

func TestFilter_KeepsInputOrder(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, testZone)
	a, b, c := seedNote("a"), seedNote("b"), seedNote("c")
	a.ZIndex, b.ZIndex, c.ZIndex = 9, 1, 5

	got := canvas.Filter([]model.Note{a, b, c}, nil, model.DefaultViewPreference(), now)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestRenderOrder(t *testing.T) {
	a, b, c, d := seedNote("a"), seedNote("b"), seedNote("c"), seedNote("d")
	a.ZIndex = 3
	b.ZIndex = 1
	b.Pinned = true
	c.ZIndex = 2
	c.Hidden = true
	d.ZIndex = 3

	got := canvas.RenderOrder([]model.Note{a, b, c, d})
	assert.Equal(t, []string{"a", "d", "b"}, ids(got))
}
