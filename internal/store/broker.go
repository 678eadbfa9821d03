package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/plotta/internal/model"
)

// subscription is one consumer of a project's change feed.
type subscription struct {
	projectID string
	ch        chan model.ChangeEvent
	done      chan struct{}
	once      sync.Once
}

// broker fans note changes out to per-project subscribers. Publishing
// blocks on a full subscriber buffer until the subscriber drains it or
// is released, so no event is dropped for a live subscriber.
type broker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
	logger *zap.Logger
}

func newBroker(buffer int, logger *zap.Logger) *broker {
	return &broker{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// subscribe registers a subscriber for projectID. The subscription is
// released by the returned function or when ctx is done.
func (b *broker) subscribe(ctx context.Context, projectID string) (<-chan model.ChangeEvent, func()) {
	sub := &subscription{
		projectID: projectID,
		ch:        make(chan model.ChangeEvent, b.buffer),
		done:      make(chan struct{}),
	}

	b.mu.Lock()
	set, ok := b.subs[projectID]
	if !ok {
		set = make(map[*subscription]struct{})
		b.subs[projectID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	b.logger.Debug("feed subscribed", zap.String("project", projectID))

	release := func() { b.release(sub) }

	go func() {
		select {
		case <-ctx.Done():
			release()
		case <-sub.done:
		}
	}()

	return sub.ch, release
}

// release unregisters sub and closes its channel. Safe to call repeatedly.
func (b *broker) release(sub *subscription) {
	sub.once.Do(func() {
		// Unblock a publisher parked on this subscriber before taking mu.
		close(sub.done)

		b.mu.Lock()
		if set, ok := b.subs[sub.projectID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.subs, sub.projectID)
			}
		}
		b.mu.Unlock()

		close(sub.ch)
		b.logger.Debug("feed released", zap.String("project", sub.projectID))
	})
}

// publish delivers ev to every live subscriber of projectID in order.
func (b *broker) publish(projectID string, ev model.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[projectID] {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		}
	}
}

// closeAll releases every subscriber.
func (b *broker) closeAll() {
	b.mu.Lock()
	var all []*subscription
	for _, set := range b.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range all {
		b.release(sub)
	}
}
