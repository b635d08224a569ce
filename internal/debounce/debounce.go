// Package debounce coalesces rapid successive values into one delivery after
// a quiet period. The search prompt feeds keystrokes through it so the list
// store only refetches once typing pauses.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the most recent value passed to Send once no new value
// has arrived for the configured wait. Safe for concurrent use.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
}

func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Send records v as the latest value and restarts the quiet-period timer.
func (d *Debouncer[T]) Send(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = v
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fire)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.mu.Unlock()
	d.fn(v)
}

// Flush delivers any pending value immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fire()
}

// Stop cancels any pending delivery.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
}
