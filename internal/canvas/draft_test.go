package canvas_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/tests/testutil"
)

func TestPlacer_NewDraft(t *testing.T) {
	p := canvas.NewPlacer(rand.New(rand.NewPCG(3, 4)))

	d := p.NewDraft(project, "hello", "body")
	assert.Equal(t, model.ColorYellow, d.Color)
	assert.Equal(t, 300.0, d.Width)
	assert.Equal(t, 250.0, d.Height)
	require.NotNil(t, d.PositionX)
	require.NotNil(t, d.PositionY)
	assert.GreaterOrEqual(t, *d.PositionX, 0.0)
	assert.Less(t, *d.PositionX, 300.0)
	assert.Less(t, *d.PositionY, 300.0)

	img := p.NewImageDraft(project, "photo", "https://example.com/a.png")
	assert.Equal(t, model.ColorDefault, img.Color)
	assert.Equal(t, 300.0, img.Width)
	assert.Equal(t, 300.0, img.Height)

	gen := p.NewGeneratedDraft(project, "summary", "- [ ] follow up")
	assert.Equal(t, model.ColorDefault, gen.Color)
	assert.Equal(t, 250.0, gen.Height)
	require.NotNil(t, gen.PositionX)
}

func TestBoard_CreateUsesItsPlacer(t *testing.T) {
	p := canvas.NewPlacer(rand.New(rand.NewPCG(1, 2)))
	b := canvas.NewBoard(testutil.NewFakeGateway(), canvas.WithPlacer(p))
	assert.Same(t, p, b.Placer())
}

func TestPlacer_CompleteKeepsExplicitFields(t *testing.T) {
	p := canvas.NewPlacer(nil)
	x, y := 12.0, 34.0

	d := p.Complete(model.NoteDraft{Color: model.ColorGreen, PositionX: &x, PositionY: &y, Width: 120})
	assert.Equal(t, model.ColorGreen, d.Color)
	assert.Equal(t, 12.0, *d.PositionX)
	assert.Equal(t, 34.0, *d.PositionY)
	assert.Equal(t, 120.0, d.Width)
	assert.Equal(t, 250.0, d.Height)
}
