package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during frame N are
// delivered at the start of frame N+1, after SwapBuffers.
type Bus struct {
	mu       sync.Mutex // protects handlers; buffers belong to the simulation goroutine
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event into the back buffer. Simulation goroutine only.
func Emit[T any](b *Bus, event T) {
	t := typeOf[T]()
	b.back[t] = append(b.back[t], event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back to front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers front-buffer events to their handlers and returns the
// number of events delivered. Events of one type keep their emit order.
// Handlers run without the lock held, so they may Subscribe or Emit; a
// handler subscribed during dispatch first sees events on the next call.
func (b *Bus) DispatchAll() int {
	n := 0
	for t, events := range b.front {
		if len(events) == 0 {
			continue
		}
		handlers := b.handlersFor(t)
		for _, ev := range events {
			for _, h := range handlers {
				h(ev)
			}
		}
		n += len(events)
	}
	return n
}

// handlersFor returns the handlers registered for t. The result is capped at
// its length so a concurrent Subscribe never writes into it.
func (b *Bus) handlersFor(t reflect.Type) []func(any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.handlers[t]
	return hs[:len(hs):len(hs)]
}

// Pending returns the number of events waiting for the next swap.
func (b *Bus) Pending() int {
	n := 0
	for _, events := range b.back {
		n += len(events)
	}
	return n
}
