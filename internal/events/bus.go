// Package events provides the in-process publish/subscribe bus the drawer
// core notifies after every successful mutation. The bus is passed by
// dependency injection — no package-level singleton — and every subscription
// hands back an explicit unsubscribe func so handlers cannot leak.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Topic names a domain event stream.
type Topic string

const (
	TopicDrawerUpdated           Topic = "drawer.updated"
	TopicTransactionChanged      Topic = "drawer.transaction_changed"
	TopicSupplierPaymentOccurred Topic = "supplier.payment_occurred"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Topic     Topic  `json:"topic"`
	SessionID uint   `json:"session_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Handler receives events. Handlers run synchronously on the publisher's
// goroutine and must not block; slow reactions belong behind Debounce.
type Handler func(ctx context.Context, ev Event)

// Bus is the pub/sub contract injected into services.
type Bus interface {
	Publish(ctx context.Context, ev Event)
	// Subscribe registers h for topic and returns its unsubscribe func.
	Subscribe(topic Topic, h Handler) (unsubscribe func())
}

// MemoryBus is the in-process Bus implementation.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic]map[int]Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[Topic]map[int]Handler)}
}

func (b *MemoryBus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.nextID++
	id := b.nextID
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

func (b *MemoryBus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Topic]))
	for _, h := range b.subs[ev.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("topic", string(ev.Topic)).Msg("events: subscriber panicked")
				}
			}()
			h(ctx, ev)
		}()
	}
}
