// Package events provides a typed, topic-keyed publish/subscribe bus.
//
// Delivery is synchronous: Publish returns after every handler subscribed to
// the topic has run. Handlers must not block; start goroutines for slow work.
package events

import (
	"slices"
	"sync"
)

// Bus routes events of type E to handlers subscribed on topic K.
type Bus[K comparable, E any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[K]map[uint64]func(E)
}

// NewBus creates an empty bus
func NewBus[K comparable, E any]() *Bus[K, E] {
	return &Bus[K, E]{handlers: make(map[K]map[uint64]func(E))}
}

// Subscribe registers fn for topic. The returned func removes the subscription
// and is safe to call more than once.
func (b *Bus[K, E]) Subscribe(topic K, fn func(E)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[uint64]func(E))
	}
	b.handlers[topic][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[topic], id)
			if len(b.handlers[topic]) == 0 {
				delete(b.handlers, topic)
			}
		})
	}
}

// Publish delivers event to every handler of topic, in subscription order.
func (b *Bus[K, E]) Publish(topic K, event E) {
	b.mu.RLock()
	subs := b.handlers[topic]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	fns := make([]func(E), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, subs[id])
	}
	b.mu.RUnlock()

	// Handlers run outside the lock so they may subscribe or unsubscribe.
	for _, fn := range fns {
		fn(event)
	}
}

// Subscribers returns the number of handlers on topic
func (b *Bus[K, E]) Subscribers(topic K) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}
