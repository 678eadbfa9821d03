package canvas

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
)

const defaultArrangeConcurrency = 4

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the board's logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock sets the wall clock used to stamp local edits.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// WithTagGateway enables tag loading and tag assignment.
func WithTagGateway(tg store.TagGateway) Option {
	return func(b *Board) { b.tags = tg }
}

// WithPlacer sets the creation defaults applied to drafts.
func WithPlacer(p *Placer) Option {
	return func(b *Board) {
		if p != nil {
			b.placer = p
		}
	}
}

// WithRand sets the source used by the shuffle layout.
func WithRand(r *rand.Rand) Option {
	return func(b *Board) { b.rng = r }
}

// WithArrangeConcurrency bounds the number of in-flight position patches
// while persisting an arrangement.
func WithArrangeConcurrency(n int) Option {
	return func(b *Board) {
		if n > 0 {
			b.arrangeLimit = n
		}
	}
}

// tombstone holds a note whose delete is in flight. Remote writes for
// the note are parked here instead of resurrecting it.
type tombstone struct {
	note          model.Note
	index         int
	tagIDs        []string
	remoteDeleted bool
}

// Board is the in-memory note list of one open project. It is the only
// writer of that list: local edits are applied optimistically, remote
// change events are merged by id, and full loads replace the list.
//
// Gateway calls are made without holding the board's lock, so remote
// events may be applied while a local call is in flight. A Board is
// safe for concurrent use.
type Board struct {
	gateway      store.NoteGateway
	tags         store.TagGateway
	logger       *zap.Logger
	now          func() time.Time
	placer       *Placer
	rng          *rand.Rand
	arrangeLimit int

	mu         sync.Mutex
	projectID  string
	notes      []model.Note
	tagList    []model.Tag
	noteTags   map[string][]string
	loading    bool
	err        error
	alloc      *Allocator
	seq        uint64
	pending    map[string]map[fieldGroup]*pendingEdit
	tombstones map[string]*tombstone

	changes chan struct{}
}

// NewBoard returns an empty board backed by gateway.
func NewBoard(gateway store.NoteGateway, opts ...Option) *Board {
	b := &Board{
		gateway:      gateway,
		logger:       zap.NewNop(),
		now:          time.Now,
		arrangeLimit: defaultArrangeConcurrency,
		noteTags:     make(map[string][]string),
		alloc:        &Allocator{},
		pending:      make(map[string]map[fieldGroup]*pendingEdit),
		tombstones:   make(map[string]*tombstone),
		changes:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.placer == nil {
		b.placer = NewPlacer(b.rng)
	}
	return b
}

// === Observation ===

// Placer returns the creation defaults the board applies to drafts.
func (b *Board) Placer() *Placer { return b.placer }

// Changes returns a channel that receives a signal after the note list,
// the tags or the loading state changed. Signals are coalesced.
func (b *Board) Changes() <-chan struct{} { return b.changes }

// ProjectID returns the open project.
func (b *Board) ProjectID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.projectID
}

// Notes returns a copy of the full, unfiltered note list.
func (b *Board) Notes() []model.Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.notes)
}

// Note returns the note with the given id.
func (b *Board) Note(id string) (model.Note, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.notes[i], true
	}
	return model.Note{}, false
}

// Loading reports whether a full load is in flight.
func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Err returns the error of the last load, or nil.
func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Tags returns the project's tags.
func (b *Board) Tags() []model.Tag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.tagList)
}

// NoteTags returns a copy of the note id to tag ids index.
func (b *Board) NoteTags() map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string][]string, len(b.noteTags))
	for id, tags := range b.noteTags {
		out[id] = slices.Clone(tags)
	}
	return out
}

// NextOrder returns the order the next raised note would receive.
func (b *Board) NextOrder() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alloc.Max() + 1
}

// Filtered returns the notes matching pref in list order.
func (b *Board) Filtered(pref model.ViewPreference, now time.Time) []model.Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Filter(b.notes, b.noteTags, pref, now)
}

// View returns the notes matching pref in render order, hidden notes
// excluded.
func (b *Board) View(pref model.ViewPreference, now time.Time) []model.Note {
	return RenderOrder(b.Filtered(pref, now))
}

// === Loading ===

// Load replaces the note list with the gateway's copy of projectID. On
// failure the previous list of the same project is kept and a
// *FetchError is returned. Switching to another project clears the list
// first.
func (b *Board) Load(ctx context.Context, projectID string) error {
	b.mu.Lock()
	if projectID != b.projectID {
		b.projectID = projectID
		b.notes = nil
		b.tagList = nil
		b.noteTags = make(map[string][]string)
		b.pending = make(map[string]map[fieldGroup]*pendingEdit)
		b.tombstones = make(map[string]*tombstone)
	}
	b.loading = true
	b.changedLocked()
	b.mu.Unlock()

	notes, tags, assoc, err := b.fetch(ctx, projectID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.projectID != projectID {
		b.logger.Debug("discarding superseded load", zap.String("project", projectID))
		return nil
	}
	b.loading = false

	if err != nil {
		b.err = &FetchError{ProjectID: projectID, Err: err}
		b.logger.Error("loading notes failed", zap.String("project", projectID), zap.Error(err))
		b.changedLocked()
		return b.err
	}
	b.err = nil

	fresh := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if _, gone := b.tombstones[n.ID]; gone {
			continue
		}
		if i := b.indexLocked(n.ID); i >= 0 {
			n = b.mergeConfirmedLocked(b.notes[i], n)
		}
		fresh = append(fresh, n)
	}
	b.notes = fresh
	for id := range b.pending {
		if b.indexLocked(id) < 0 {
			delete(b.pending, id)
		}
	}

	if b.tags != nil {
		b.tagList = tags
		b.noteTags = indexNoteTags(assoc)
	}

	b.logger.Debug("notes loaded", zap.String("project", projectID), zap.Int("count", len(fresh)))
	b.changedLocked()
	return nil
}

func (b *Board) fetch(
	ctx context.Context,
	projectID string,
) ([]model.Note, []model.Tag, []model.NoteTag, error) {
	notes, err := b.gateway.FetchNotes(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}
	if b.tags == nil {
		return notes, nil, nil, nil
	}
	tags, err := b.tags.GetTags(ctx, projectID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading tags: %w", err)
	}
	assoc, err := b.tags.GetNoteTags(ctx, projectID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading note tags: %w", err)
	}
	return notes, tags, assoc, nil
}

// === Mutations ===

// Create persists a draft with creation defaults filled in and returns
// the confirmed note. The board does not show the note before the
// gateway confirms it; the confirmed note is merged by id, so a change
// event for it that arrived first is not duplicated.
func (b *Board) Create(ctx context.Context, draft model.NoteDraft) (model.Note, error) {
	b.mu.Lock()
	if draft.ProjectID == "" {
		draft.ProjectID = b.projectID
	}
	draft = b.placer.Complete(draft)
	b.mu.Unlock()

	n, err := b.gateway.InsertNote(ctx, draft)
	if err != nil {
		b.logger.Error("creating note failed", zap.String("project", draft.ProjectID), zap.Error(err))
		return model.Note{}, &CreateError{ProjectID: draft.ProjectID, Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if n.ProjectID == b.projectID {
		b.upsertLocked(n, b.mergeConfirmedLocked)
		b.changedLocked()
	}
	return n, nil
}

// Update applies a partial edit optimistically and persists it. If the
// gateway rejects it the edited fields are restored and an *UpdateError
// is returned. Fields outside the patch are never written.
func (b *Board) Update(ctx context.Context, id string, patch model.NotePatch) error {
	return b.edit(ctx, id, true, func(model.Note) model.NotePatch { return patch })
}

// Move sets a note's position. The new position is kept even if the
// gateway rejects it; the failure is only logged and the next remote
// read corrects the board.
func (b *Board) Move(ctx context.Context, id string, x, y float64) error {
	return b.edit(ctx, id, false, func(model.Note) model.NotePatch {
		return model.MovePatch(x, y)
	})
}

// BringToFront raises a note above every other and returns its new
// effective order. Pinned notes already render on top and are left
// untouched.
func (b *Board) BringToFront(ctx context.Context, id string) (int, error) {
	order := 0
	err := b.edit(ctx, id, false, func(n model.Note) model.NotePatch {
		if n.Pinned {
			order = PinnedOrder
			return model.NotePatch{}
		}
		z := b.alloc.Next()
		order = z
		return model.NotePatch{ZIndex: &z}
	})
	return order, err
}

// ToggleLock flips the locked flag.
func (b *Board) ToggleLock(ctx context.Context, id string) error {
	return b.edit(ctx, id, true, func(n model.Note) model.NotePatch {
		v := !n.Locked
		return model.NotePatch{Locked: &v}
	})
}

// TogglePin flips the pinned flag. The stored order is kept.
func (b *Board) TogglePin(ctx context.Context, id string) error {
	return b.edit(ctx, id, true, func(n model.Note) model.NotePatch {
		v := !n.Pinned
		return model.NotePatch{Pinned: &v}
	})
}

// ToggleHide flips the hidden flag.
func (b *Board) ToggleHide(ctx context.Context, id string) error {
	return b.edit(ctx, id, true, func(n model.Note) model.NotePatch {
		v := !n.Hidden
		return model.NotePatch{Hidden: &v}
	})
}

// ToggleCheckbox flips the index-th checkbox in a note's body. An index
// with no checkbox is a no-op.
func (b *Board) ToggleCheckbox(ctx context.Context, id string, index int) error {
	return b.edit(ctx, id, true, func(n model.Note) model.NotePatch {
		body, ok := ToggleCheckbox(n.Content, index)
		if !ok {
			return model.NotePatch{}
		}
		return model.NotePatch{Content: &body}
	})
}

// Remove deletes a note. The note leaves the list before the gateway is
// called and is put back at its old index if the call fails, in which
// case a *DeleteError is returned. A note the gateway no longer has
// counts as deleted.
func (b *Board) Remove(ctx context.Context, id string) error {
	b.mu.Lock()
	idx := b.indexLocked(id)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("note %s: %w", id, ErrUnknownNote)
	}
	t := &tombstone{
		note:   b.notes[idx],
		index:  idx,
		tagIDs: b.noteTags[id],
	}
	b.tombstones[id] = t
	projectID := b.projectID
	b.notes = slices.Delete(b.notes, idx, idx+1)
	delete(b.noteTags, id)
	delete(b.pending, id)
	b.changedLocked()
	b.mu.Unlock()

	err := b.gateway.DeleteNote(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	// A load of another project drops the tombstone with the list.
	current := b.projectID == projectID && b.tombstones[id] == t
	if current {
		delete(b.tombstones, id)
	}

	if err == nil || errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if !current {
		b.logger.Info("delete failed after the board moved on", zap.String("note", id), zap.Error(err))
		return &DeleteError{NoteID: id, Err: err}
	}
	if t.remoteDeleted {
		b.logger.Info("delete failed but note was removed remotely", zap.String("note", id), zap.Error(err))
		return nil
	}

	at := min(t.index, len(b.notes))
	b.notes = slices.Insert(b.notes, at, t.note)
	if len(t.tagIDs) > 0 {
		b.noteTags[id] = t.tagIDs
	}
	b.changedLocked()
	b.logger.Info("delete rolled back", zap.String("note", id), zap.Int("index", at), zap.Error(err))
	return &DeleteError{NoteID: id, Err: err}
}

// SetNoteTags replaces the tags of a note, reverting on failure.
func (b *Board) SetNoteTags(ctx context.Context, noteID string, tagIDs []string) error {
	if b.tags == nil {
		return fmt.Errorf("setting tags on note %s: no tag gateway", noteID)
	}

	b.mu.Lock()
	if b.indexLocked(noteID) < 0 {
		b.mu.Unlock()
		return fmt.Errorf("note %s: %w", noteID, ErrUnknownNote)
	}
	prior, had := b.noteTags[noteID]
	b.noteTags[noteID] = slices.Clone(tagIDs)
	b.changedLocked()
	b.mu.Unlock()

	err := b.tags.SetNoteTags(ctx, noteID, tagIDs)
	if err == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if had {
		b.noteTags[noteID] = prior
	} else {
		delete(b.noteTags, noteID)
	}
	b.changedLocked()
	b.logger.Info("tag change rolled back", zap.String("note", noteID), zap.Error(err))
	return &UpdateError{NoteID: noteID, Err: err}
}

// Arrange moves notes into layout. ids selects the notes to arrange in
// list order; nil selects every note. Locked notes stay put. Positions
// are applied at once and persisted concurrently; persistence failures
// are logged like failed drags.
func (b *Board) Arrange(ctx context.Context, layout Layout, ids []string) error {
	b.mu.Lock()
	var subset []model.Note
	for _, n := range b.notes {
		if n.Locked || (ids != nil && !slices.Contains(ids, n.ID)) {
			continue
		}
		subset = append(subset, n)
	}
	placements, err := Arrange(subset, layout, b.rng)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	edits := make([]edit, len(placements))
	for i, p := range placements {
		edits[i] = b.stageLocked(b.indexLocked(p.ID), p.Patch())
	}
	b.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(b.arrangeLimit)
	for i, p := range placements {
		g.Go(func() error {
			confirmed, err := b.gateway.PatchNote(ctx, p.ID, p.Patch())

			b.mu.Lock()
			defer b.mu.Unlock()
			b.settleLocked(edits[i])
			if err != nil {
				return fmt.Errorf("placing note %s: %w", p.ID, err)
			}
			if j := b.indexLocked(p.ID); j >= 0 {
				b.notes[j] = b.mergeConfirmedLocked(b.notes[j], confirmed)
				b.changedLocked()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.logger.Warn("arrangement not fully persisted",
			zap.String("layout", string(layout)), zap.Error(err))
	}
	return nil
}

// ApplyRemote merges one change-feed event. Events may repeat: an insert
// for a held note updates it in place, and a delete for an unknown note
// is ignored. Groups with a newer pending local edit keep their local
// values.
func (b *Board) ApplyRemote(ev model.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Type {
	case model.ChangeInserted, model.ChangeUpdated:
		if ev.Note == nil {
			b.logger.Warn("change event without note", zap.String("type", string(ev.Type)), zap.String("note", ev.ID))
			return
		}
		n := *ev.Note
		if b.projectID != "" && n.ProjectID != "" && n.ProjectID != b.projectID {
			return
		}
		if t, ok := b.tombstones[n.ID]; ok {
			t.note = n
			return
		}
		b.upsertLocked(n, b.mergeRemoteLocked)
		b.changedLocked()

	case model.ChangeDeleted:
		if t, ok := b.tombstones[ev.ID]; ok {
			t.remoteDeleted = true
			return
		}
		i := b.indexLocked(ev.ID)
		if i < 0 {
			return
		}
		b.notes = slices.Delete(b.notes, i, i+1)
		delete(b.noteTags, ev.ID)
		delete(b.pending, ev.ID)
		b.changedLocked()

	default:
		b.logger.Warn("unknown change event", zap.String("type", string(ev.Type)))
	}
}

// edit stages the patch built from the current note, persists it, and
// settles the outcome. build runs under the lock; an empty patch skips
// the edit.
func (b *Board) edit(
	ctx context.Context,
	id string,
	rollback bool,
	build func(model.Note) model.NotePatch,
) error {
	b.mu.Lock()
	idx := b.indexLocked(id)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("note %s: %w", id, ErrUnknownNote)
	}
	patch := build(b.notes[idx])
	if patch.Empty() {
		b.mu.Unlock()
		return nil
	}
	e := b.stageLocked(idx, patch)
	b.mu.Unlock()

	confirmed, err := b.gateway.PatchNote(ctx, id, patch)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		if rollback {
			b.revertLocked(e)
			b.changedLocked()
			b.logger.Info("edit rolled back", zap.String("note", id), zap.Error(err))
			return &UpdateError{NoteID: id, Err: err}
		}
		b.settleLocked(e)
		b.logger.Warn("background update failed", zap.String("note", id), zap.Error(err))
		return nil
	}

	b.settleLocked(e)
	if i := b.indexLocked(id); i >= 0 {
		b.notes[i] = b.mergeConfirmedLocked(b.notes[i], confirmed)
		b.changedLocked()
	}
	return nil
}

// stageLocked applies patch to the note at idx and records a pending
// edit for every group it touches.
func (b *Board) stageLocked(idx int, patch model.NotePatch) edit {
	b.seq++
	prior := b.notes[idx]
	e := edit{id: prior.ID, groups: groupsOf(patch), seq: b.seq}

	groups := b.pending[e.id]
	if groups == nil {
		groups = make(map[fieldGroup]*pendingEdit)
		b.pending[e.id] = groups
	}
	stamp := b.now()
	for _, g := range allGroups {
		if e.groups&g != 0 {
			groups[g] = &pendingEdit{seq: e.seq, stamp: stamp, prior: prior}
		}
	}

	b.notes[idx] = patch.Apply(prior)
	b.changedLocked()
	return e
}

// settleLocked drops the pending entries still owned by e.
func (b *Board) settleLocked(e edit) {
	groups := b.pending[e.id]
	for g, p := range groups {
		if e.groups&g != 0 && p.seq == e.seq {
			delete(groups, g)
		}
	}
	if len(groups) == 0 {
		delete(b.pending, e.id)
	}
}

// revertLocked restores the groups of e that no later local edit or
// newer remote write has replaced, then settles e.
func (b *Board) revertLocked(e edit) {
	idx := b.indexLocked(e.id)
	for g, p := range b.pending[e.id] {
		if e.groups&g == 0 || p.seq != e.seq || p.overridden || idx < 0 {
			continue
		}
		b.notes[idx] = copyGroup(b.notes[idx], p.prior, g)
	}
	b.settleLocked(e)
}

// mergeRemoteLocked merges a remote copy of cur. Per field group the
// later wall-clock write wins: a group with a pending local edit stamped
// after the remote update keeps its local values.
func (b *Board) mergeRemoteLocked(cur, remote model.Note) model.Note {
	merged := remote
	for g, p := range b.pending[cur.ID] {
		if remote.UpdatedAt.Before(p.stamp) {
			merged = copyGroup(merged, cur, g)
		} else {
			p.overridden = true
		}
	}
	return merged
}

// mergeConfirmedLocked merges a gateway response for cur, keeping every
// group that still has a pending local edit.
func (b *Board) mergeConfirmedLocked(cur, confirmed model.Note) model.Note {
	merged := confirmed
	for g := range b.pending[cur.ID] {
		merged = copyGroup(merged, cur, g)
	}
	return merged
}

// upsertLocked merges n into the held copy, or appends it.
func (b *Board) upsertLocked(n model.Note, merge func(cur, n model.Note) model.Note) {
	if i := b.indexLocked(n.ID); i >= 0 {
		b.notes[i] = merge(b.notes[i], n)
		return
	}
	b.notes = append(b.notes, n)
}

func (b *Board) indexLocked(id string) int {
	return slices.IndexFunc(b.notes, func(n model.Note) bool { return n.ID == id })
}

// changedLocked recomputes the running order maximum and signals
// observers.
func (b *Board) changedLocked() {
	b.alloc.Reset(b.notes)
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

func indexNoteTags(assoc []model.NoteTag) map[string][]string {
	idx := make(map[string][]string)
	for _, a := range assoc {
		idx[a.NoteID] = append(idx[a.NoteID], a.TagID)
	}
	return idx
}
