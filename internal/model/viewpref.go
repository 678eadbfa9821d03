package model

// ViewMode is the temporal filter applied before facet filters.
type ViewMode string

const (
	ViewAll     ViewMode = "all"
	ViewToday   ViewMode = "today"
	ViewWeek    ViewMode = "week"
	ViewSnoozed ViewMode = "snoozed"
	ViewLater   ViewMode = "later"
)

// ViewModes lists the modes in selector order.
var ViewModes = []ViewMode{ViewAll, ViewToday, ViewWeek, ViewSnoozed, ViewLater}

// Valid reports whether m is a known mode.
func (m ViewMode) Valid() bool {
	for _, v := range ViewModes {
		if v == m {
			return true
		}
	}
	return false
}

// Next returns the mode after m in selector order, wrapping around.
func (m ViewMode) Next() ViewMode {
	for i, v := range ViewModes {
		if v == m {
			return ViewModes[(i+1)%len(ViewModes)]
		}
	}
	return ViewAll
}

// DueBucket is one value of the due-date facet.
type DueBucket string

const (
	DueOverdue  DueBucket = "overdue"
	DueToday    DueBucket = "today"
	DueTomorrow DueBucket = "tomorrow"
	DueThisWeek DueBucket = "this_week"
	DueNoDate   DueBucket = "no_date"
)

// DueBuckets lists the facet values in display order.
var DueBuckets = []DueBucket{DueOverdue, DueToday, DueTomorrow, DueThisWeek, DueNoDate}

// ViewPreferenceVersion is the schema version written with every saved
// preference. Payloads carrying another version are discarded on load.
const ViewPreferenceVersion = 1

// ViewPreference is the per-project filter selection persisted on the device.
type ViewPreference struct {
	Version            int         `json:"version"`
	ViewMode           ViewMode    `json:"viewMode"`
	SelectedTagIDs     []string    `json:"selectedTagIds"`
	SelectedPriorities []Priority  `json:"selectedPriorities"`
	SelectedDueDates   []DueBucket `json:"selectedDueDates"`
}

// DefaultViewPreference shows every note.
func DefaultViewPreference() ViewPreference {
	return ViewPreference{
		Version:  ViewPreferenceVersion,
		ViewMode: ViewAll,
	}
}

// HasFacets reports whether any facet selection is active.
func (p ViewPreference) HasFacets() bool {
	return len(p.SelectedTagIDs) > 0 ||
		len(p.SelectedPriorities) > 0 ||
		len(p.SelectedDueDates) > 0
}

// ClearFacets drops every facet selection but keeps the view mode.
func (p ViewPreference) ClearFacets() ViewPreference {
	p.SelectedTagIDs = nil
	p.SelectedPriorities = nil
	p.SelectedDueDates = nil
	return p
}
