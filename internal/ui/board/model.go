package board

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/keys"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/theme"
)

// tickInterval drives the gesture timers while a press or tap is pending.
const tickInterval = 50 * time.Millisecond

// ChangedMsg is sent when the board's notes changed.
type ChangedMsg struct{}

// MutationMsg reports the outcome of a board mutation run as a command.
type MutationMsg struct {
	Op     string
	NoteID string
	Err    error
}

// EditNoteMsg asks the application to open the editor for a note.
type EditNoteMsg struct {
	NoteID string
}

// PrefChangedMsg carries a view preference changed from the canvas.
type PrefChangedMsg struct {
	Pref model.ViewPreference
}

type tickMsg struct {
	at time.Time
}

// WaitForChange returns a command that blocks until the board signals a
// change.
func WaitForChange(b *canvas.Board) tea.Cmd {
	ch := b.Changes()
	return func() tea.Msg {
		<-ch
		return ChangedMsg{}
	}
}

// deferredTarget turns the mutations a gesture resolves to into commands,
// so no gateway call runs inside Update. A dropped note is drawn at its
// landing point until its move command reports back.
type deferredTarget struct {
	board   *canvas.Board
	pending []tea.Cmd
	landing map[string]canvas.Point
}

func (d *deferredTarget) Move(ctx context.Context, id string, x, y float64) error {
	b := d.board
	d.landing[id] = canvas.Point{X: x, Y: y}
	d.pending = append(d.pending, mutate(ctx, "move", id, func(ctx context.Context) error {
		return b.Move(ctx, id, x, y)
	}))
	return nil
}

func (d *deferredTarget) BringToFront(ctx context.Context, id string) (int, error) {
	b := d.board
	d.pending = append(d.pending, mutate(ctx, "front", id, func(ctx context.Context) error {
		_, err := b.BringToFront(ctx, id)
		return err
	}))
	return 0, nil
}

func (d *deferredTarget) drain() []tea.Cmd {
	cmds := d.pending
	d.pending = nil
	return cmds
}

func mutate(ctx context.Context, op, id string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return MutationMsg{Op: op, NoteID: id, Err: fn(ctx)}
	}
}

// Model is the terminal canvas: it renders the board's visible notes and
// turns keys and mouse gestures into board mutations.
type Model struct {
	ctx    context.Context
	board  *canvas.Board
	ctrl   *canvas.Controller
	target *deferredTarget
	keys   *keys.KeyMap
	logger *zap.Logger
	now    func() time.Time

	pref      model.ViewPreference
	focus     string
	offset    canvas.Point
	layoutIdx int
	ticking   bool
	status    string
	err       error

	width  int
	height int
}

// New creates a canvas view over b.
func New(
	ctx context.Context,
	b *canvas.Board,
	k *keys.KeyMap,
	cfg canvas.GestureConfig,
	logger *zap.Logger,
	width, height int,
) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	target := &deferredTarget{board: b, landing: make(map[string]canvas.Point)}
	return Model{
		ctx:    ctx,
		board:  b,
		ctrl:   canvas.NewController(cfg, target, logger),
		target: target,
		keys:   k,
		logger: logger,
		now:    time.Now,
		pref:   model.DefaultViewPreference(),
		width:  width,
		height: height,
	}
}

// Init starts listening for board changes.
func (m Model) Init() tea.Cmd {
	return WaitForChange(m.board)
}

// Pref returns the active view preference.
func (m Model) Pref() model.ViewPreference { return m.pref }

// SetPref replaces the active view preference.
func (m *Model) SetPref(p model.ViewPreference) {
	m.pref = p
	m.keepFocus()
}

// SetSize updates the canvas dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Focused returns the focused note, if it is still visible.
func (m Model) Focused() (model.Note, bool) {
	for _, n := range m.visible() {
		if n.ID == m.focus {
			return n, true
		}
	}
	return model.Note{}, false
}

// SetFocus focuses the note with id when it is visible.
func (m *Model) SetFocus(id string) {
	m.focus = id
	m.keepFocus()
}

// Update handles messages for the canvas.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ChangedMsg:
		m.keepFocus()
		return m, WaitForChange(m.board)

	case MutationMsg:
		if msg.Op == "move" {
			delete(m.target.landing, msg.NoteID)
		}
		m.err = msg.Err
		if msg.Err != nil {
			m.status = ""
		}
		return m, nil

	case tickMsg:
		m.ticking = false
		actions := m.ctrl.Tick(m.ctx, msg.at)
		return m, m.afterGesture(actions)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	now := m.now()
	pt := cellToCanvas(msg.X, msg.Y, m.offset)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.offset.Y -= 3 * cellHeight
		case tea.MouseButtonWheelDown:
			m.offset.Y += 3 * cellHeight
		case tea.MouseButtonWheelLeft:
			m.offset.X -= 3 * cellWidth
		case tea.MouseButtonWheelRight:
			m.offset.X += 3 * cellWidth
		case tea.MouseButtonLeft:
			n, ok := m.hit(msg.X, msg.Y)
			if !ok {
				return m, nil
			}
			m.focus = n.ID
			actions, claimed := m.ctrl.Press(m.ctx, n, pt, now)
			if !claimed {
				m.status = "note is locked"
			}
			return m, m.afterGesture(actions)
		}
		return m, nil

	case tea.MouseActionMotion:
		return m, m.afterGesture(m.ctrl.Move(m.ctx, pt, now))

	case tea.MouseActionRelease:
		return m, m.afterGesture(m.ctrl.Release(m.ctx, pt, now))
	}
	return m, nil
}

// afterGesture collects the commands a gesture transition produced and
// keeps the timer running while the gesture waits on one.
func (m *Model) afterGesture(actions []canvas.Action) tea.Cmd {
	cmds := m.target.drain()
	for _, a := range actions {
		switch a.Kind {
		case canvas.ActionOpenEditor:
			id := a.NoteID
			cmds = append(cmds, func() tea.Msg { return EditNoteMsg{NoteID: id} })
		case canvas.ActionDragStarted, canvas.ActionBringToFront:
			m.focus = a.NoteID
		}
	}
	if m.ctrl.Gesture().Waiting() && !m.ticking {
		m.ticking = true
		cmds = append(cmds, tea.Tick(tickInterval, func(t time.Time) tea.Msg {
			return tickMsg{at: t}
		}))
	}
	return tea.Batch(cmds...)
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		m.cycleFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.cycleFocus(-1)
		return m, nil

	case key.Matches(msg, m.keys.CycleView):
		m.pref.ViewMode = m.pref.ViewMode.Next()
		m.keepFocus()
		return m, m.prefChanged()

	case key.Matches(msg, m.keys.ClearFilters):
		m.pref = m.pref.ClearFacets()
		m.keepFocus()
		return m, m.prefChanged()

	case key.Matches(msg, m.keys.Arrange):
		return m.arrange()
	}

	n, ok := m.Focused()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		return m.nudge(n, -cellWidth, 0)
	case key.Matches(msg, m.keys.Right):
		return m.nudge(n, cellWidth, 0)
	case key.Matches(msg, m.keys.Up):
		return m.nudge(n, 0, -cellHeight)
	case key.Matches(msg, m.keys.Down):
		return m.nudge(n, 0, cellHeight)

	case key.Matches(msg, m.keys.Edit):
		return m, func() tea.Msg { return EditNoteMsg{NoteID: n.ID} }

	case key.Matches(msg, m.keys.Front):
		return m, m.noteOp("front", n.ID, func(ctx context.Context) error {
			_, err := m.board.BringToFront(ctx, n.ID)
			return err
		})

	case key.Matches(msg, m.keys.Lock):
		return m, m.noteOp("lock", n.ID, func(ctx context.Context) error {
			return m.board.ToggleLock(ctx, n.ID)
		})

	case key.Matches(msg, m.keys.Pin):
		return m, m.noteOp("pin", n.ID, func(ctx context.Context) error {
			return m.board.TogglePin(ctx, n.ID)
		})

	case key.Matches(msg, m.keys.Hide):
		return m, m.noteOp("hide", n.ID, func(ctx context.Context) error {
			return m.board.ToggleHide(ctx, n.ID)
		})

	case key.Matches(msg, m.keys.Checkbox):
		idx := nextCheckbox(n.Content)
		if idx < 0 {
			m.status = "no checkboxes"
			return m, nil
		}
		return m, m.noteOp("checkbox", n.ID, func(ctx context.Context) error {
			return m.board.ToggleCheckbox(ctx, n.ID, idx)
		})

	case key.Matches(msg, m.keys.Delete):
		return m, m.noteOp("delete", n.ID, func(ctx context.Context) error {
			return m.board.Remove(ctx, n.ID)
		})
	}
	return m, nil
}

func (m Model) noteOp(op, id string, fn func(context.Context) error) tea.Cmd {
	return mutate(m.ctx, op, id, fn)
}

func (m Model) nudge(n model.Note, dx, dy float64) (Model, tea.Cmd) {
	if n.Locked {
		m.status = "note is locked"
		return m, nil
	}
	x, y := n.PositionX+dx, n.PositionY+dy
	return m, m.noteOp("move", n.ID, func(ctx context.Context) error {
		return m.board.Move(ctx, n.ID, x, y)
	})
}

func (m Model) arrange() (Model, tea.Cmd) {
	layout := canvas.Layouts[m.layoutIdx%len(canvas.Layouts)]
	m.layoutIdx++
	return m.Arrange(layout)
}

// Arrange applies layout to the visible notes.
func (m Model) Arrange(layout canvas.Layout) (Model, tea.Cmd) {
	notes := m.visible()
	if len(notes) == 0 {
		return m, nil
	}
	m.status = "arranged: " + strings.ReplaceAll(string(layout), "_", " ")

	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return m, m.noteOp("arrange", "", func(ctx context.Context) error {
		return m.board.Arrange(ctx, layout, ids)
	})
}

func (m Model) prefChanged() tea.Cmd {
	pref := m.pref
	return func() tea.Msg { return PrefChangedMsg{Pref: pref} }
}

// nextCheckbox picks the first open checkbox, or the first one when all
// are checked. It returns -1 when the body has none.
func nextCheckbox(body string) int {
	boxes := canvas.Checkboxes(body)
	if len(boxes) == 0 {
		return -1
	}
	for i, b := range boxes {
		if !b.Checked {
			return i
		}
	}
	return 0
}

// visible returns the notes to draw, bottom first.
func (m Model) visible() []model.Note {
	return m.board.View(m.pref, m.now())
}

func (m *Model) cycleFocus(step int) {
	notes := m.visible()
	if len(notes) == 0 {
		m.focus = ""
		return
	}
	i := slices.IndexFunc(notes, func(n model.Note) bool { return n.ID == m.focus })
	switch {
	case i < 0 && step > 0:
		i = 0
	case i < 0:
		i = len(notes) - 1
	default:
		i = (i + step + len(notes)) % len(notes)
	}
	m.focus = notes[i].ID
}

// keepFocus moves focus to the topmost note when the focused one is gone.
func (m *Model) keepFocus() {
	if _, ok := m.Focused(); ok {
		return
	}
	m.focus = ""
	if notes := m.visible(); len(notes) > 0 {
		m.focus = notes[len(notes)-1].ID
	}
}

// position is where n is drawn: its staged drag position, the landing
// point of a move not yet applied, or its own.
func (m Model) position(n model.Note) canvas.Point {
	if id, pt, ok := m.ctrl.Gesture().Staged(); ok && id == n.ID {
		return pt
	}
	if pt, ok := m.target.landing[n.ID]; ok {
		return pt
	}
	return canvas.Point{X: n.PositionX, Y: n.PositionY}
}

// hit returns the topmost visible note under a cell.
func (m Model) hit(x, y int) (model.Note, bool) {
	notes := m.visible()
	for i := len(notes) - 1; i >= 0; i-- {
		if noteRect(notes[i], m.position(notes[i]), m.offset).contains(x, y) {
			return notes[i], true
		}
	}
	return model.Note{}, false
}

// Summary describes the active view for the status bar.
func (m Model) Summary() string {
	if m.err != nil {
		return theme.ErrorStyle.Render(m.err.Error())
	}
	parts := []string{"view: " + string(m.pref.ViewMode)}
	if m.pref.HasFacets() {
		parts = append(parts, fmt.Sprintf("%d filters", len(m.pref.SelectedTagIDs)+
			len(m.pref.SelectedPriorities)+len(m.pref.SelectedDueDates)))
	}
	parts = append(parts, fmt.Sprintf("%d notes", len(m.visible())))
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " | ")
}

// View renders the canvas.
func (m Model) View() string {
	if m.board.Loading() && len(m.board.Notes()) == 0 {
		return m.placeholder("Loading notes...")
	}
	if err := m.board.Err(); err != nil && len(m.board.Notes()) == 0 {
		return m.placeholder("Could not load notes.\n\n" + err.Error() + "\n\nPress r to retry.")
	}

	notes := m.visible()
	if len(notes) == 0 {
		if len(m.board.Notes()) > 0 {
			return m.placeholder("No notes match this view.\nPress v to change the view or c to clear filters.")
		}
		return m.placeholder("This canvas is empty.\n\nPress n to add a note.")
	}

	now := m.now()
	today := canvas.Day(now, now.Location())
	tagNames := m.tagNames()
	noteTags := m.board.NoteTags()

	s := newSurface(m.width, m.height)
	for _, n := range notes {
		var tags []string
		for _, id := range noteTags[n.ID] {
			if name, ok := tagNames[id]; ok {
				tags = append(tags, name)
			}
		}
		drawNote(s, card{
			note:    n,
			rect:    noteRect(n, m.position(n), m.offset),
			focused: n.ID == m.focus,
			tags:    tags,
		}, today)
	}
	return s.String()
}

func (m Model) tagNames() map[string]string {
	names := make(map[string]string)
	for _, t := range m.board.Tags() {
		names[t.ID] = t.Name
	}
	return names
}

func (m Model) placeholder(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}
