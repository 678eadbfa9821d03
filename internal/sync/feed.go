package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/plotta/internal/canvas"
	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
)

// FeedState represents the state of a project's change feed.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedLive
	FeedError
)

func (s FeedState) String() string {
	switch s {
	case FeedLive:
		return "live"
	case FeedError:
		return "error"
	default:
		return "idle"
	}
}

// Status holds the feed state for the open project.
type Status struct {
	ProjectID   string
	State       FeedState
	Events      int
	LastEvent   time.Time
	LastRefresh time.Time
	Error       error
}

// StatusMsg is a tea.Msg sent whenever the feed status changes.
type StatusMsg struct {
	Status Status
}

// ErrFeedClosed is reported when the gateway ends a subscription the
// feed did not release.
var ErrFeedClosed = errors.New("change feed closed by gateway")

// ErrOpenSuperseded is returned by an Open cut short by a later Open or
// by Close.
var ErrOpenSuperseded = errors.New("change feed open superseded")

// fetchTimeout is the maximum time allowed for a single full reload.
const fetchTimeout = 30 * time.Second

// Option configures a Feed.
type Option func(*Feed)

// WithLogger sets the feed's logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithRefreshInterval enables a periodic full reload of the board.
func WithRefreshInterval(d time.Duration) Option {
	return func(f *Feed) { f.refresh = d }
}

// Feed keeps a Board subscribed to its project's change feed. Open
// acquires the subscription and Close releases it; every exit of the
// pump goroutine releases it too.
type Feed struct {
	gateway store.NoteGateway
	board   *canvas.Board
	logger  *zap.Logger
	refresh time.Duration

	statusCh  chan StatusMsg
	triggerCh chan struct{}

	// openMu serializes Open and Close so at most one subscription is
	// ever held.
	openMu gosync.Mutex

	mu      gosync.Mutex
	opening context.CancelFunc
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	status  Status
}

// New creates a feed that pumps gateway events into board.
func New(gateway store.NoteGateway, board *canvas.Board, opts ...Option) *Feed {
	f := &Feed{
		gateway:   gateway,
		board:     board,
		logger:    zap.NewNop(),
		statusCh:  make(chan StatusMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open subscribes to projectID, loads the board and starts pumping
// events. A feed that is already open is closed first, and an Open still
// in progress is cut short with ErrOpenSuperseded. If the load fails the
// subscription is released and the error returned.
func (f *Feed) Open(ctx context.Context, projectID string) error {
	f.abortOpening()
	f.openMu.Lock()
	defer f.openMu.Unlock()
	f.closeLocked()

	runCtx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.opening = cancel
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.opening = nil
		f.mu.Unlock()
	}()

	events, release, err := f.gateway.Subscribe(runCtx, projectID)
	if err != nil {
		cancel()
		if superseded(ctx, runCtx) {
			return ErrOpenSuperseded
		}
		f.setStatus(Status{ProjectID: projectID, State: FeedError, Error: err})
		return fmt.Errorf("opening change feed for project %s: %w", projectID, err)
	}

	// Subscribe before loading so nothing written during the load is
	// missed; events already covered by the load merge idempotently.
	if err := f.board.Load(runCtx, projectID); err != nil {
		release()
		cancel()
		if superseded(ctx, runCtx) {
			return ErrOpenSuperseded
		}
		f.setStatus(Status{ProjectID: projectID, State: FeedError, Error: err})
		return err
	}

	done := make(chan struct{})
	f.mu.Lock()
	f.running = true
	f.cancel = cancel
	f.done = done
	f.mu.Unlock()

	f.setStatus(Status{ProjectID: projectID, State: FeedLive, LastRefresh: time.Now()})
	f.logger.Info("change feed open", zap.String("project", projectID))

	go f.pump(runCtx, projectID, events, release, done)
	return nil
}

// Close stops the pump and waits for it to release the subscription. An
// Open in progress is cut short. Safe to call when not open.
func (f *Feed) Close() {
	f.abortOpening()
	f.openMu.Lock()
	defer f.openMu.Unlock()
	f.closeLocked()
}

// abortOpening cancels the context of an Open in progress.
func (f *Feed) abortOpening() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opening != nil {
		f.opening()
	}
}

// superseded reports whether runCtx was cancelled by the feed rather
// than by the caller's ctx.
func superseded(ctx, runCtx context.Context) bool {
	return runCtx.Err() != nil && ctx.Err() == nil
}

// closeLocked stops a running pump. The caller holds openMu.
func (f *Feed) closeLocked() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	cancel()
	<-done
}

// Refresh triggers an immediate full reload of the board.
func (f *Feed) Refresh() {
	select {
	case f.triggerCh <- struct{}{}:
	default:
		// A reload is already queued.
	}
}

// Status returns the current feed status.
func (f *Feed) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// pump applies events in delivery order until the context ends or the
// gateway closes the feed.
func (f *Feed) pump(
	ctx context.Context,
	projectID string,
	events <-chan model.ChangeEvent,
	release func(),
	done chan struct{},
) {
	defer close(done)
	defer release()

	var tick <-chan time.Time
	if f.refresh > 0 {
		ticker := time.NewTicker(f.refresh)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("change feed closed", zap.String("project", projectID))
			f.setState(FeedIdle, nil)
			return

		case ev, ok := <-events:
			if !ok {
				f.logger.Warn("change feed ended", zap.String("project", projectID))
				f.setState(FeedError, ErrFeedClosed)
				return
			}
			f.board.ApplyRemote(ev)
			f.recordEvent()

		case <-tick:
			f.reload(ctx, projectID)

		case <-f.triggerCh:
			f.reload(ctx, projectID)
		}
	}
}

// reload performs a single full load of the board.
func (f *Feed) reload(ctx context.Context, projectID string) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	if err := f.board.Load(ctx, projectID); err != nil {
		f.setState(FeedError, err)
		return
	}

	f.mu.Lock()
	f.status.State = FeedLive
	f.status.Error = nil
	f.status.LastRefresh = time.Now()
	st := f.status
	f.mu.Unlock()
	f.sendStatus(st)
}

func (f *Feed) recordEvent() {
	f.mu.Lock()
	f.status.Events++
	f.status.LastEvent = time.Now()
	f.mu.Unlock()
}

func (f *Feed) setState(state FeedState, err error) {
	f.mu.Lock()
	f.status.State = state
	f.status.Error = err
	st := f.status
	f.mu.Unlock()
	f.sendStatus(st)
}

func (f *Feed) setStatus(st Status) {
	f.mu.Lock()
	f.status = st
	f.mu.Unlock()
	f.sendStatus(st)
}

// sendStatus sends a StatusMsg without blocking.
func (f *Feed) sendStatus(st Status) {
	select {
	case f.statusCh <- StatusMsg{Status: st}:
	default:
		// Drop if channel is full to avoid blocking the pump
	}
}

// WaitForStatus returns a tea.Cmd that waits for the next status change.
// It should be re-issued after each StatusMsg to keep listening.
func (f *Feed) WaitForStatus() tea.Cmd {
	return func() tea.Msg {
		return <-f.statusCh
	}
}
