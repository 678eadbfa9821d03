package canvas_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
)

var gestureStart = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return gestureStart.Add(time.Duration(ms) * time.Millisecond)
}

func kinds(actions []canvas.Action) []canvas.ActionKind {
	out := make([]canvas.ActionKind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func placedNote(id string, x, y float64) model.Note {
	n := seedNote(id)
	n.PositionX, n.PositionY = x, y
	return n
}

func TestGesture_DragStagesAndCommitsOnce(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())

	_, claimed := g.Press(placedNote("a", 100, 200), canvas.Point{X: 10, Y: 10}, at(0))
	require.True(t, claimed)

	assert.Empty(t, g.Move(canvas.Point{X: 14, Y: 13}, at(20)), "below the drag threshold")

	actions := g.Move(canvas.Point{X: 30, Y: 10}, at(40))
	assert.Equal(t, []canvas.ActionKind{canvas.ActionDragStarted, canvas.ActionDragMoved}, kinds(actions))
	assert.Equal(t, canvas.Point{X: 120, Y: 200}, actions[1].Position)
	assert.Equal(t, canvas.PhaseDragging, g.Phase())

	actions = g.Move(canvas.Point{X: 60, Y: 50}, at(900))
	assert.Equal(t, []canvas.ActionKind{canvas.ActionDragMoved}, kinds(actions), "no long press once dragging")

	id, staged, ok := g.Staged()
	require.True(t, ok)
	assert.Equal(t, "a", id)
	assert.Equal(t, canvas.Point{X: 150, Y: 240}, staged)

	actions = g.Release(canvas.Point{X: 70, Y: 50}, at(950))
	require.Len(t, actions, 1)
	assert.Equal(t, canvas.Action{Kind: canvas.ActionDragCommitted, NoteID: "a", Position: canvas.Point{X: 160, Y: 240}}, actions[0])
	assert.Equal(t, canvas.PhaseIdle, g.Phase())
}

func TestGesture_LockedNoteIsNotClaimed(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())
	n := placedNote("a", 0, 0)
	n.Locked = true

	_, claimed := g.Press(n, canvas.Point{}, at(0))
	assert.False(t, claimed)
	assert.Empty(t, g.Move(canvas.Point{X: 100, Y: 100}, at(10)))
	assert.Empty(t, g.Release(canvas.Point{X: 100, Y: 100}, at(20)))
	assert.Equal(t, canvas.PhaseIdle, g.Phase())
}

func TestGesture_LongPressOpensEditor(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())
	g.Press(placedNote("a", 0, 0), canvas.Point{}, at(0))

	assert.Empty(t, g.Tick(at(499)))
	actions := g.Tick(at(500))
	assert.Equal(t, []canvas.Action{{Kind: canvas.ActionOpenEditor, NoteID: "a"}}, actions)
	assert.Equal(t, canvas.PhaseLongPressed, g.Phase())

	assert.Empty(t, g.Move(canvas.Point{X: 50}, at(600)), "a long press never turns into a drag")
	assert.Empty(t, g.Release(canvas.Point{X: 50}, at(700)))
	assert.Equal(t, canvas.PhaseIdle, g.Phase())
}

func TestGesture_LongPressWithoutTick(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())
	g.Press(placedNote("a", 0, 0), canvas.Point{}, at(0))

	actions := g.Release(canvas.Point{}, at(650))
	assert.Equal(t, []canvas.ActionKind{canvas.ActionOpenEditor}, kinds(actions))
}

func TestGesture_SingleTapBringsToFrontAfterWindow(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())
	g.Press(placedNote("a", 0, 0), canvas.Point{}, at(0))

	assert.Empty(t, g.Release(canvas.Point{}, at(80)), "single tap waits for the double-tap window")
	assert.Empty(t, g.Tick(at(300)))

	actions := g.Tick(at(400))
	assert.Equal(t, []canvas.Action{{Kind: canvas.ActionBringToFront, NoteID: "a"}}, actions)
	assert.Empty(t, g.Tick(at(1000)))
}

func TestGesture_DoubleTapOpensEditor(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())
	n := placedNote("a", 0, 0)

	g.Press(n, canvas.Point{}, at(0))
	g.Release(canvas.Point{}, at(60))
	g.Press(n, canvas.Point{}, at(200))
	actions := g.Release(canvas.Point{}, at(250))

	assert.Equal(t, []canvas.Action{{Kind: canvas.ActionOpenEditor, NoteID: "a"}}, actions)
	assert.Empty(t, g.Tick(at(2000)), "a double tap does not also raise the note")
}

func TestGesture_TapOnAnotherNoteFlushesArmedTap(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())

	g.Press(placedNote("a", 0, 0), canvas.Point{}, at(0))
	g.Release(canvas.Point{}, at(50))
	g.Press(placedNote("b", 0, 0), canvas.Point{}, at(100))
	actions := g.Release(canvas.Point{}, at(150))

	assert.Equal(t, []canvas.Action{{Kind: canvas.ActionBringToFront, NoteID: "a"}}, actions)
	assert.Equal(t, []canvas.Action{{Kind: canvas.ActionBringToFront, NoteID: "b"}}, g.Tick(at(500)))
}

func TestGesture_Cancel(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())
	g.Press(placedNote("a", 0, 0), canvas.Point{}, at(0))
	g.Move(canvas.Point{X: 40}, at(10))

	g.Cancel()
	_, _, ok := g.Staged()
	assert.False(t, ok)
	assert.Empty(t, g.Release(canvas.Point{X: 40}, at(20)))
}

// recordingTarget counts the mutations a Controller forwards.
type recordingTarget struct {
	moves  []canvas.Point
	raised []string
}

func (r *recordingTarget) Move(_ context.Context, _ string, x, y float64) error {
	r.moves = append(r.moves, canvas.Point{X: x, Y: y})
	return nil
}

func (r *recordingTarget) BringToFront(_ context.Context, id string) (int, error) {
	r.raised = append(r.raised, id)
	return 1, nil
}

func TestController_CommitsExactlyOncePerDrag(t *testing.T) {
	target := &recordingTarget{}
	c := canvas.NewController(canvas.DefaultGestureConfig(), target, nil)
	ctx := context.Background()

	c.Press(ctx, placedNote("a", 0, 0), canvas.Point{}, at(0))
	for i := 1; i <= 30; i++ {
		c.Move(ctx, canvas.Point{X: float64(i * 5), Y: float64(i)}, at(i*16))
	}
	assert.Empty(t, target.moves, "nothing is committed while moving")

	c.Release(ctx, canvas.Point{X: 150, Y: 30}, at(600))
	assert.Equal(t, []canvas.Point{{X: 150, Y: 30}}, target.moves)

	c.Press(ctx, placedNote("b", 0, 0), canvas.Point{}, at(1000))
	c.Release(ctx, canvas.Point{}, at(1050))
	c.Tick(ctx, at(1500))
	assert.Equal(t, []string{"b"}, target.raised)
}

func TestController_DrivesBoard(t *testing.T) {
	b, gw := loadedBoard(t)
	c := canvas.NewController(canvas.DefaultGestureConfig(), b, nil)
	ctx := context.Background()

	c.Press(ctx, mustNote(t, b, "a"), canvas.Point{X: 0, Y: 0}, at(0))
	c.Move(ctx, canvas.Point{X: 50, Y: 25}, at(50))
	c.Move(ctx, canvas.Point{X: 80, Y: 40}, at(100))
	assert.Zero(t, gw.Calls("patch"))

	c.Release(ctx, canvas.Point{X: 80, Y: 40}, at(150))
	assert.Equal(t, 1, gw.Calls("patch"))

	n := mustNote(t, b, "a")
	assert.Equal(t, 80.0, n.PositionX)
	assert.Equal(t, 40.0, n.PositionY)
}

func TestGesture_Waiting(t *testing.T) {
	g := canvas.NewGesture(canvas.DefaultGestureConfig())
	assert.False(t, g.Waiting())

	g.Press(seedNote("a"), canvas.Point{}, at(0))
	assert.True(t, g.Waiting(), "held press")

	g.Release(canvas.Point{}, at(50))
	assert.True(t, g.Waiting(), "armed tap")

	g.Tick(at(400))
	assert.False(t, g.Waiting())
}

func TestGestureConfigFrom(t *testing.T) {
	cfg := canvas.GestureConfigFrom(model.GestureConfig{LongPressMs: 800, DragThreshold: 4})
	assert.Equal(t, 800*time.Millisecond, cfg.LongPress)
	assert.Equal(t, 300*time.Millisecond, cfg.DoubleTap, "unset falls back")
	assert.Equal(t, 4.0, cfg.DragThreshold)
}
