// Package store holds the client's shared reactive state.
package store

import "sync"

// Writable is a value cell that notifies subscribers on every change.
//
// Subscribers run synchronously, in subscription order, outside the lock.
// A subscriber that calls Set on the same cell sees its own notification
// after the current round completes.
type Writable[T any] struct {
	upd    sync.Mutex // serializes Update
	mu     sync.Mutex
	value  T
	nextID uint64
	subs   map[uint64]func(T)
	order  []uint64
}

// NewWritable returns a cell holding initial.
func NewWritable[T any](initial T) *Writable[T] {
	return &Writable[T]{
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Get returns the current value.
func (w *Writable[T]) Get() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Set replaces the value and notifies subscribers.
func (w *Writable[T]) Set(v T) {
	w.mu.Lock()
	w.value = v
	subs := w.snapshot()
	w.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Update replaces the value with fn(current) and notifies subscribers.
//
// Updates are applied one at a time. fn runs without the value lock held, so
// it may call Get or Subscribe on the same cell. It must not call Update on
// the same cell, and a concurrent Set may be overwritten by fn's result.
func (w *Writable[T]) Update(fn func(T) T) {
	w.upd.Lock()
	defer w.upd.Unlock()

	v := fn(w.Get())

	w.mu.Lock()
	w.value = v
	subs := w.snapshot()
	w.mu.Unlock()

	for _, sub := range subs {
		sub(v)
	}
}

// Subscribe registers fn and calls it once with the current value.
// The returned function removes the subscription; calling it twice is a no-op.
func (w *Writable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.order = append(w.order, id)
	v := w.value
	w.mu.Unlock()

	fn(v)

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			for i, o := range w.order {
				if o == id {
					w.order = append(w.order[:i:i], w.order[i+1:]...)
					break
				}
			}
			w.mu.Unlock()
		})
	}
}

// snapshot copies the subscriber list. Caller holds mu.
func (w *Writable[T]) snapshot() []func(T) {
	subs := make([]func(T), 0, len(w.order))
	for _, id := range w.order {
		subs = append(subs, w.subs[id])
	}
	return subs
}
