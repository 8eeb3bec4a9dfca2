package event

import (
	"reflect"
	"sync"
)

// Bus delivers typed events to subscribers synchronously. Events raised while
// a battle trigger is being resolved go through a Batch and only reach
// subscribers once the trigger has been committed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]any),
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Publish delivers event to every handler subscribed to T, in subscription
// order.
func Publish[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.RLock()
	handlers := append([]any(nil), b.handlers[t]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		// Subscribe and Publish key on the same type, so this cannot fail.
		h.(func(T))(event)
	}
}

// Batch buffers events until Flush. Discard drops them.
type Batch struct {
	bus     *Bus
	pending []func()
}

func (b *Bus) NewBatch() *Batch {
	return &Batch{bus: b}
}

// Emit queues an event on the batch.
func Emit[T any](batch *Batch, event T) {
	batch.pending = append(batch.pending, func() { Publish(batch.bus, event) })
}

// Flush publishes every queued event in emit order and empties the batch.
func (bt *Batch) Flush() {
	pending := bt.pending
	bt.pending = nil
	for _, fn := range pending {
		fn()
	}
}

// Discard drops every queued event.
func (bt *Batch) Discard() { bt.pending = nil }

// Len returns the number of queued events.
func (bt *Batch) Len() int { return len(bt.pending) }
