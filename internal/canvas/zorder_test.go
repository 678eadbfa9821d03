package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
)

func TestAllocator(t *testing.T) {
	a := canvas.NewAllocator(nil)
	assert.Equal(t, 0, a.Max())
	assert.Equal(t, 1, a.Next())
	assert.Equal(t, 2, a.Next())

	n1, n2 := seedNote("a"), seedNote("b")
	n1.ZIndex, n2.ZIndex = 7, 3
	a.Reset([]model.Note{n1, n2})
	assert.Equal(t, 8, a.Next())
}

func TestEffectiveOrder(t *testing.T) {
	n := seedNote("a")
	n.ZIndex = 12
	assert.Equal(t, 12, canvas.EffectiveOrder(n))

	n.Pinned = true
	assert.Equal(t, canvas.PinnedOrder, canvas.EffectiveOrder(n))
	assert.Greater(t, canvas.EffectiveOrder(n), 1_000_000)
}
