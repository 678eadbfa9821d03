package canvas

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/plotta/internal/model"
)

// GestureConfig holds the timing and distance thresholds that separate
// taps, double taps, long presses and drags.
type GestureConfig struct {
	LongPress     time.Duration
	DoubleTap     time.Duration
	DragThreshold float64
}

// GestureConfigFrom converts the configured millisecond thresholds. Unset
// values fall back to the defaults.
func GestureConfigFrom(c model.GestureConfig) GestureConfig {
	cfg := DefaultGestureConfig()
	if c.LongPressMs > 0 {
		cfg.LongPress = time.Duration(c.LongPressMs) * time.Millisecond
	}
	if c.DoubleTapMs > 0 {
		cfg.DoubleTap = time.Duration(c.DoubleTapMs) * time.Millisecond
	}
	if c.DragThreshold > 0 {
		cfg.DragThreshold = c.DragThreshold
	}
	return cfg
}

// DefaultGestureConfig returns the standard thresholds.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		LongPress:     500 * time.Millisecond,
		DoubleTap:     300 * time.Millisecond,
		DragThreshold: 10,
	}
}

// Point is a canvas coordinate.
type Point struct {
	X, Y float64
}

// Phase is the state of a Gesture.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePressed
	PhaseDragging
	PhaseLongPressed
)

func (p Phase) String() string {
	switch p {
	case PhasePressed:
		return "pressed"
	case PhaseDragging:
		return "dragging"
	case PhaseLongPressed:
		return "long-pressed"
	default:
		return "idle"
	}
}

// ActionKind identifies what a gesture resolved to.
type ActionKind int

const (
	ActionDragStarted ActionKind = iota + 1
	ActionDragMoved
	ActionDragCommitted
	ActionBringToFront
	ActionOpenEditor
)

// Action is one outcome of a gesture transition. Position is set for
// drag actions and holds the note's absolute staged position.
type Action struct {
	Kind     ActionKind
	NoteID   string
	Position Point
}

// Gesture is the pointer state machine for notes. It is pure: callers
// supply timestamps, and Tick must be called periodically so a held
// press can become a long press and an armed single tap can fire.
//
// A press that moves past the drag threshold becomes a drag. A press
// held past the long-press duration opens the editor. A short tap is
// armed for the double-tap window; a second tap on the same note within
// the window opens the editor, otherwise the armed tap brings the note
// to the front.
type Gesture struct {
	cfg GestureConfig

	phase   Phase
	noteID  string
	base    Point
	press   Point
	pressAt time.Time
	offset  Point

	armedID string
	armedAt time.Time
}

// NewGesture returns an idle gesture machine.
func NewGesture(cfg GestureConfig) *Gesture {
	return &Gesture{cfg: cfg}
}

// Phase returns the current state.
func (g *Gesture) Phase() Phase { return g.phase }

// Waiting reports whether a timer is running, so Tick still has work to
// do: a press is held or a single tap is armed.
func (g *Gesture) Waiting() bool {
	return g.phase == PhasePressed || g.armedID != ""
}

// Staged returns the note being dragged and its uncommitted position.
func (g *Gesture) Staged() (string, Point, bool) {
	if g.phase != PhaseDragging {
		return "", Point{}, false
	}
	return g.noteID, g.position(), true
}

// Press starts a gesture on n at pointer position at. A locked note is
// not claimed and the machine stays idle.
func (g *Gesture) Press(n model.Note, at Point, now time.Time) ([]Action, bool) {
	if n.Locked {
		return nil, false
	}
	actions := g.expire(now)

	g.phase = PhasePressed
	g.noteID = n.ID
	g.base = Point{X: n.PositionX, Y: n.PositionY}
	g.press = at
	g.pressAt = now
	g.offset = Point{}
	return actions, true
}

// Move feeds a pointer movement. Movement never commits anything.
func (g *Gesture) Move(at Point, now time.Time) []Action {
	switch g.phase {
	case PhasePressed:
		if now.Sub(g.pressAt) >= g.cfg.LongPress {
			return g.longPress()
		}
		delta := Point{X: at.X - g.press.X, Y: at.Y - g.press.Y}
		if math.Hypot(delta.X, delta.Y) < g.cfg.DragThreshold {
			return nil
		}
		g.phase = PhaseDragging
		g.offset = delta

		var actions []Action
		if g.armedID != "" {
			actions = append(actions, g.fireArmed())
		}
		return append(actions,
			Action{Kind: ActionDragStarted, NoteID: g.noteID, Position: g.base},
			Action{Kind: ActionDragMoved, NoteID: g.noteID, Position: g.position()},
		)

	case PhaseDragging:
		g.offset = Point{X: at.X - g.press.X, Y: at.Y - g.press.Y}
		return []Action{{Kind: ActionDragMoved, NoteID: g.noteID, Position: g.position()}}
	}
	return nil
}

// Release ends the pointer contact.
func (g *Gesture) Release(at Point, now time.Time) []Action {
	switch g.phase {
	case PhaseDragging:
		g.offset = Point{X: at.X - g.press.X, Y: at.Y - g.press.Y}
		committed := Action{Kind: ActionDragCommitted, NoteID: g.noteID, Position: g.position()}
		g.reset()
		return []Action{committed}

	case PhasePressed:
		id := g.noteID
		if now.Sub(g.pressAt) >= g.cfg.LongPress {
			actions := g.longPress()
			g.reset()
			return actions
		}
		g.reset()

		if g.armedID == id && now.Sub(g.armedAt) <= g.cfg.DoubleTap {
			g.armedID = ""
			return []Action{{Kind: ActionOpenEditor, NoteID: id}}
		}
		var actions []Action
		if g.armedID != "" {
			actions = append(actions, g.fireArmed())
		}
		g.armedID = id
		g.armedAt = now
		return actions

	case PhaseLongPressed:
		g.reset()
	}
	return nil
}

// Tick advances timers: a held press turns into a long press and an
// armed tap whose double-tap window has passed fires.
func (g *Gesture) Tick(now time.Time) []Action {
	actions := g.expire(now)
	if g.phase == PhasePressed && now.Sub(g.pressAt) >= g.cfg.LongPress {
		actions = append(actions, g.longPress()...)
	}
	return actions
}

// Cancel abandons the current press or drag without committing.
func (g *Gesture) Cancel() {
	g.reset()
}

func (g *Gesture) expire(now time.Time) []Action {
	if g.armedID != "" && now.Sub(g.armedAt) > g.cfg.DoubleTap {
		return []Action{g.fireArmed()}
	}
	return nil
}

func (g *Gesture) fireArmed() Action {
	a := Action{Kind: ActionBringToFront, NoteID: g.armedID}
	g.armedID = ""
	return a
}

func (g *Gesture) longPress() []Action {
	g.phase = PhaseLongPressed
	return []Action{{Kind: ActionOpenEditor, NoteID: g.noteID}}
}

func (g *Gesture) position() Point {
	return Point{X: g.base.X + g.offset.X, Y: g.base.Y + g.offset.Y}
}

func (g *Gesture) reset() {
	g.phase = PhaseIdle
	g.noteID = ""
	g.base, g.press, g.offset = Point{}, Point{}, Point{}
	g.pressAt = time.Time{}
}

// Target receives the mutations resolved by a Controller.
type Target interface {
	Move(ctx context.Context, id string, x, y float64) error
	BringToFront(ctx context.Context, id string) (int, error)
}

// Controller drives a Gesture and forwards its outcomes to a Target. A
// drag reaches the target exactly once, on release.
type Controller struct {
	gesture *Gesture
	target  Target
	logger  *zap.Logger
}

// NewController returns a controller for target. A nil logger is replaced
// with a no-op logger.
func NewController(cfg GestureConfig, target Target, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		gesture: NewGesture(cfg),
		target:  target,
		logger:  logger,
	}
}

// Gesture exposes the underlying state machine.
func (c *Controller) Gesture() *Gesture { return c.gesture }

// Press starts a gesture and reports whether the note claimed it.
func (c *Controller) Press(ctx context.Context, n model.Note, at Point, now time.Time) ([]Action, bool) {
	actions, claimed := c.gesture.Press(n, at, now)
	c.apply(ctx, actions)
	return actions, claimed
}

// Move feeds a pointer movement.
func (c *Controller) Move(ctx context.Context, at Point, now time.Time) []Action {
	actions := c.gesture.Move(at, now)
	c.apply(ctx, actions)
	return actions
}

// Release ends the gesture, committing a drag.
func (c *Controller) Release(ctx context.Context, at Point, now time.Time) []Action {
	actions := c.gesture.Release(at, now)
	c.apply(ctx, actions)
	return actions
}

// Tick advances the gesture timers.
func (c *Controller) Tick(ctx context.Context, now time.Time) []Action {
	actions := c.gesture.Tick(now)
	c.apply(ctx, actions)
	return actions
}

// apply forwards commits and raises to the target. Editor requests are
// left to the caller.
func (c *Controller) apply(ctx context.Context, actions []Action) {
	for _, a := range actions {
		switch a.Kind {
		case ActionDragCommitted:
			if err := c.target.Move(ctx, a.NoteID, a.Position.X, a.Position.Y); err != nil {
				c.logger.Warn("drag commit rejected", zap.String("note", a.NoteID), zap.Error(err))
			}
		case ActionBringToFront:
			if _, err := c.target.BringToFront(ctx, a.NoteID); err != nil {
				c.logger.Warn("bring to front failed", zap.String("note", a.NoteID), zap.Error(err))
			}
		}
	}
}
