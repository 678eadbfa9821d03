package canvas

import (
	"math"

	"github.com/nhle/plotta/internal/model"
)

// PinnedOrder is the effective stacking order of every pinned note. It
// sits above any value the allocator can reach in practice.
const PinnedOrder = math.MaxInt32

// EffectiveOrder returns the order a note renders at. Pinning never
// rewrites the stored value, so unpinning restores the note's last
// allocated order.
func EffectiveOrder(n model.Note) int {
	if n.Pinned {
		return PinnedOrder
	}
	return n.ZIndex
}

// MaxOrder returns the largest stored order in notes, or 0 for none.
func MaxOrder(notes []model.Note) int {
	max := 0
	for _, n := range notes {
		if n.ZIndex > max {
			max = n.ZIndex
		}
	}
	return max
}

// Allocator hands out increasing stacking orders. It tracks a single
// running maximum which Reset recomputes from a note list.
type Allocator struct {
	max int
}

// NewAllocator returns an allocator primed from notes.
func NewAllocator(notes []model.Note) *Allocator {
	a := &Allocator{}
	a.Reset(notes)
	return a
}

// Reset recomputes the running maximum from notes.
func (a *Allocator) Reset(notes []model.Note) {
	a.max = MaxOrder(notes)
}

// Max returns the current running maximum.
func (a *Allocator) Max() int { return a.max }

// Next allocates the next order, one above the running maximum.
func (a *Allocator) Next() int {
	a.max++
	return a.max
}
