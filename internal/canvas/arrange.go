package canvas

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/nhle/plotta/internal/model"
)

// Layout names an arrangement of notes on the canvas.
type Layout string

const (
	LayoutGrid       Layout = "grid"
	LayoutGridStrict Layout = "grid_strict"
	LayoutRows       Layout = "rows"
	LayoutColumns    Layout = "columns"
	LayoutCircle     Layout = "circle"
	LayoutByDate     Layout = "by_date"
	LayoutByColor    Layout = "by_color"
	LayoutShuffle    Layout = "shuffle"
	LayoutTidy       Layout = "tidy"
)

// Layouts lists every layout in menu order.
var Layouts = []Layout{
	LayoutGrid, LayoutGridStrict, LayoutRows, LayoutColumns, LayoutCircle,
	LayoutByDate, LayoutByColor, LayoutShuffle, LayoutTidy,
}

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	return slices.Contains(Layouts, l)
}

// Arrangement origin and circle geometry in canvas units.
const (
	arrangeOrigin = 100
	circleCenterX = 500
	circleCenterY = 400
	circleRadius  = 300
)

// Placement is the position (and, for strict grids, size) a layout
// assigns to one note.
type Placement struct {
	ID     string
	X, Y   float64
	Resize bool
	Width  float64
	Height float64
}

// Patch returns the partial update that moves the note into place.
func (p Placement) Patch() model.NotePatch {
	patch := model.MovePatch(p.X, p.Y)
	if p.Resize {
		w, h := p.Width, p.Height
		patch.Width, patch.Height = &w, &h
	}
	return patch
}

// Arrange computes placements for notes under layout. notes is not
// modified. rng drives the shuffle layout and may be nil otherwise.
func Arrange(notes []model.Note, layout Layout, rng *rand.Rand) ([]Placement, error) {
	if len(notes) == 0 {
		return nil, nil
	}

	switch layout {
	case LayoutGrid, LayoutGridStrict:
		return arrangeGrid(notes, layout == LayoutGridStrict), nil

	case LayoutRows:
		h := sizeOr(notes[0].Height, model.DefaultNoteHeight)
		out := make([]Placement, len(notes))
		for i, n := range notes {
			out[i] = Placement{ID: n.ID, X: arrangeOrigin, Y: arrangeOrigin + float64(i)*(h+40)}
		}
		return out, nil

	case LayoutColumns:
		w := sizeOr(notes[0].Width, model.DefaultNoteWidth)
		out := make([]Placement, len(notes))
		for i, n := range notes {
			out[i] = Placement{ID: n.ID, X: arrangeOrigin + float64(i)*(w+40), Y: arrangeOrigin}
		}
		return out, nil

	case LayoutCircle:
		out := make([]Placement, len(notes))
		for i, n := range notes {
			angle := 2 * math.Pi * float64(i) / float64(len(notes))
			out[i] = Placement{
				ID: n.ID,
				X:  math.Round(circleCenterX + circleRadius*math.Cos(angle)),
				Y:  math.Round(circleCenterY + circleRadius*math.Sin(angle)),
			}
		}
		return out, nil

	case LayoutByDate:
		sorted := slices.Clone(notes)
		slices.SortStableFunc(sorted, func(a, b model.Note) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		return packGrid(sorted, 40), nil

	case LayoutByColor:
		sorted := slices.Clone(notes)
		slices.SortStableFunc(sorted, func(a, b model.Note) int {
			return colorRank(a.Color) - colorRank(b.Color)
		})
		return packGrid(sorted, 40), nil

	case LayoutShuffle:
		if rng == nil {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		shuffled := slices.Clone(notes)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return packGrid(shuffled, 40), nil

	case LayoutTidy:
		sorted := slices.Clone(notes)
		slices.SortStableFunc(sorted, func(a, b model.Note) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		return packGrid(sorted, 30), nil
	}

	return nil, fmt.Errorf("unknown layout %q", layout)
}

// arrangeGrid lays notes out in a square-ish grid sized by the first
// note. A strict grid also normalizes every note to the default size.
func arrangeGrid(notes []model.Note, strict bool) []Placement {
	w := sizeOr(notes[0].Width, model.DefaultNoteWidth)
	h := sizeOr(notes[0].Height, model.DefaultNoteHeight)
	if strict {
		w, h = model.DefaultNoteWidth, model.DefaultNoteHeight
	}

	cols := gridCols(len(notes))
	out := make([]Placement, len(notes))
	for i, n := range notes {
		row, col := i/cols, i%cols
		out[i] = Placement{
			ID: n.ID,
			X:  arrangeOrigin + float64(col)*(w+50),
			Y:  arrangeOrigin + float64(row)*(h+50),
		}
		if strict {
			out[i].Resize = true
			out[i].Width, out[i].Height = w, h
		}
	}
	return out
}

// packGrid lays notes out in grid order, stepping by each note's own size.
func packGrid(notes []model.Note, padding float64) []Placement {
	cols := gridCols(len(notes))
	out := make([]Placement, len(notes))
	for i, n := range notes {
		row, col := i/cols, i%cols
		out[i] = Placement{
			ID: n.ID,
			X:  arrangeOrigin + float64(col)*(sizeOr(n.Width, model.DefaultNoteWidth)+padding),
			Y:  arrangeOrigin + float64(row)*(sizeOr(n.Height, model.DefaultNoteHeight)+padding),
		}
	}
	return out
}

func gridCols(n int) int {
	return int(math.Ceil(math.Sqrt(float64(n))))
}

func colorRank(c model.Color) int {
	if i := slices.Index(model.Colors, c); i >= 0 {
		return i
	}
	return len(model.Colors)
}

func sizeOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
