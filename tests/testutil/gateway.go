package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/plotta/internal/model"
	"github.com/nhle/plotta/internal/store"
)

// Op names a FakeGateway operation for failure injection and holds.
type Op string

const (
	OpFetch     Op = "fetch"
	OpInsert    Op = "insert"
	OpPatch     Op = "patch"
	OpDelete    Op = "delete"
	OpSetTags   Op = "set_tags"
	OpGetTags   Op = "get_tags"
	OpSubscribe Op = "subscribe"
)

// Gate parks the next call of an operation until Release is called.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered is closed once the held call has started.
func (g *Gate) Entered() <-chan struct{} { return g.entered }

// Release lets the held call proceed.
func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

// FakeGateway is an in-memory store.NoteGateway and store.TagGateway.
// Successful mutations are recorded as echoes that tests deliver by hand;
// Emit pushes events to open subscriptions.
type FakeGateway struct {
	// Clock stamps UpdatedAt on writes.
	Clock func() time.Time

	mu       sync.Mutex
	notes    []model.Note
	tags     []model.Tag
	noteTags map[string][]string
	failNext map[Op]error
	failAll  map[Op]error
	gates    map[Op]*Gate
	calls    map[Op]int
	patches  map[string][]model.NotePatch
	echoes   []model.ChangeEvent
	subs     map[int]chan model.ChangeEvent
	nextSub  int
}

var (
	_ store.NoteGateway = (*FakeGateway)(nil)
	_ store.TagGateway  = (*FakeGateway)(nil)
)

// NewFakeGateway returns an empty gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Clock:    time.Now,
		noteTags: make(map[string][]string),
		failNext: make(map[Op]error),
		failAll:  make(map[Op]error),
		gates:    make(map[Op]*Gate),
		calls:    make(map[Op]int),
		patches:  make(map[string][]model.NotePatch),
		subs:     make(map[int]chan model.ChangeEvent),
	}
}

// Seed stores notes as if they had been created earlier.
func (g *FakeGateway) Seed(notes ...model.Note) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notes = append(g.notes, notes...)
}

// SeedTags stores tags and note associations.
func (g *FakeGateway) SeedTags(tags []model.Tag, assoc map[string][]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tags = append(g.tags, tags...)
	for id, ids := range assoc {
		g.noteTags[id] = slices.Clone(ids)
	}
}

// FailNext makes the next call of op return err.
func (g *FakeGateway) FailNext(op Op, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext[op] = err
}

// FailAll makes every call of op return err until cleared with nil.
func (g *FakeGateway) FailAll(op Op, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failAll, op)
		return
	}
	g.failAll[op] = err
}

// Hold parks the next call of op until the returned gate is released.
func (g *FakeGateway) Hold(op Op) *Gate {
	gate := &Gate{entered: make(chan struct{}), release: make(chan struct{})}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gates[op] = gate
	return gate
}

// Calls returns how many times op was invoked.
func (g *FakeGateway) Calls(op Op) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// Patches returns the patches received for a note, in order.
func (g *FakeGateway) Patches(id string) []model.NotePatch {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.patches[id])
}

// Stored returns the gateway's copy of a note.
func (g *FakeGateway) Stored(id string) (model.Note, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.indexLocked(id); i >= 0 {
		return g.notes[i], true
	}
	return model.Note{}, false
}

// TakeEchoes returns and clears the change events produced by successful
// mutations.
func (g *FakeGateway) TakeEchoes() []model.ChangeEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.echoes
	g.echoes = nil
	return out
}

// Emit delivers ev to every open subscription.
func (g *FakeGateway) Emit(ev model.ChangeEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.subs {
		ch <- ev
	}
}

// Subscribers returns the number of open subscriptions.
func (g *FakeGateway) Subscribers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// begin counts the call, waits on a gate and reports an injected error.
func (g *FakeGateway) begin(ctx context.Context, op Op) error {
	g.mu.Lock()
	g.calls[op]++
	gate := g.gates[op]
	delete(g.gates, op)
	g.mu.Unlock()

	if gate != nil {
		close(gate.entered)
		select {
		case <-gate.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failNext[op]; ok {
		delete(g.failNext, op)
		return err
	}
	return g.failAll[op]
}

func (g *FakeGateway) FetchNotes(ctx context.Context, projectID string) ([]model.Note, error) {
	if err := g.begin(ctx, OpFetch); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []model.Note{}
	for _, n := range g.notes {
		if n.ProjectID == projectID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (g *FakeGateway) InsertNote(ctx context.Context, draft model.NoteDraft) (model.Note, error) {
	if err := g.begin(ctx, OpInsert); err != nil {
		return model.Note{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.Clock()
	n := model.Note{
		ID:        uuid.New().String(),
		ProjectID: draft.ProjectID,
		Title:     draft.Title,
		Content:   draft.Content,
		Color:     draft.Color,
		Width:     draft.Width,
		Height:    draft.Height,
		Priority:  draft.Priority,
		DueDate:   draft.DueDate,
		Status:    draft.Status,
		CreatedBy: draft.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if draft.PositionX != nil {
		n.PositionX = *draft.PositionX
	}
	if draft.PositionY != nil {
		n.PositionY = *draft.PositionY
	}
	g.notes = append(g.notes, n)
	g.echoes = append(g.echoes, model.Inserted(n))
	return n, nil
}

func (g *FakeGateway) PatchNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	if err := g.begin(ctx, OpPatch); err != nil {
		return model.Note{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.patches[id] = append(g.patches[id], patch)
	i := g.indexLocked(id)
	if i < 0 {
		return model.Note{}, fmt.Errorf("note %s: %w", id, store.ErrNotFound)
	}
	n := patch.Apply(g.notes[i])
	n.UpdatedAt = g.Clock()
	g.notes[i] = n
	g.echoes = append(g.echoes, model.Updated(n))
	return n, nil
}

func (g *FakeGateway) DeleteNote(ctx context.Context, id string) error {
	if err := g.begin(ctx, OpDelete); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("note %s: %w", id, store.ErrNotFound)
	}
	g.notes = slices.Delete(g.notes, i, i+1)
	delete(g.noteTags, id)
	g.echoes = append(g.echoes, model.Deleted(id))
	return nil
}

func (g *FakeGateway) Subscribe(
	ctx context.Context,
	projectID string,
) (<-chan model.ChangeEvent, func(), error) {
	if err := g.begin(ctx, OpSubscribe); err != nil {
		return nil, nil, err
	}
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	ch := make(chan model.ChangeEvent, 16)
	g.subs[id] = ch
	g.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subs, id)
			g.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		release()
	}()
	return ch, release, nil
}

func (g *FakeGateway) GetTags(ctx context.Context, projectID string) ([]model.Tag, error) {
	if err := g.begin(ctx, OpGetTags); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Tag
	for _, t := range g.tags {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (g *FakeGateway) GetNoteTags(ctx context.Context, projectID string) ([]model.NoteTag, error) {
	if err := g.begin(ctx, OpGetTags); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.NoteTag
	for _, n := range g.notes {
		if n.ProjectID != projectID {
			continue
		}
		for _, tagID := range g.noteTags[n.ID] {
			out = append(out, model.NoteTag{NoteID: n.ID, TagID: tagID})
		}
	}
	return out, nil
}

func (g *FakeGateway) SetNoteTags(ctx context.Context, noteID string, tagIDs []string) error {
	if err := g.begin(ctx, OpSetTags); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.noteTags[noteID] = slices.Clone(tagIDs)
	return nil
}

func (g *FakeGateway) indexLocked(id string) int {
	return slices.IndexFunc(g.notes, func(n model.Note) bool { return n.ID == id })
}
