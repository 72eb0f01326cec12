// Package broker moves room broadcasts between hub instances.
package broker

import (
	"chat-hub/domain/event"
	"context"
	"sync"
)

type subscriber struct {
	ctx     context.Context
	deliver func(ctx context.Context, env event.Envelope)
}

// Local is an in-process bus. Every published envelope is handed synchronously
// to every active subscriber, including the publisher's own instance.
type Local struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]subscriber
}

func NewLocal() *Local {
	return &Local{subscribers: make(map[int]subscriber)}
}

func (l *Local) Publish(ctx context.Context, env event.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	subs := make([]subscriber, 0, len(l.subscribers))
	for _, s := range l.subscribers {
		subs = append(subs, s)
	}
	l.mu.RUnlock()

	for _, s := range subs {
		if s.ctx.Err() != nil {
			continue
		}
		s.deliver(s.ctx, env)
	}
	return nil
}

// Subscribe registers deliver and blocks until ctx is done.
func (l *Local) Subscribe(ctx context.Context, deliver func(ctx context.Context, env event.Envelope)) error {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subscribers[id] = subscriber{ctx: ctx, deliver: deliver}
	l.mu.Unlock()

	<-ctx.Done()

	l.mu.Lock()
	delete(l.subscribers, id)
	l.mu.Unlock()
	return nil
}

// Subscribers returns the number of active subscriptions.
func (l *Local) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subscribers)
}
