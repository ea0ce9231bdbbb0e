// Package debounce delays propagation of a rapidly changing value until it
// has been stable for a configured interval.
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the tracker needs
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Tracker holds the latest input and propagates it once no newer input
// arrived for the configured delay.
type Tracker[T comparable] struct {
	delay    time.Duration
	onSettle func(T)
	after    AfterFunc

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
	input   T
	value   T
	stopped bool
}

// New returns a tracker that calls onSettle with each settled value.
// onSettle may be nil when the caller only polls Value.
func New[T comparable](delay time.Duration, onSettle func(T)) *Tracker[T] {
	return NewWithTimer(delay, onSettle, stdAfterFunc)
}

// NewWithTimer is New with a custom timer source
func NewWithTimer[T comparable](delay time.Duration, onSettle func(T), after AfterFunc) *Tracker[T] {
	return &Tracker[T]{delay: delay, onSettle: onSettle, after: after}
}

// Set records a new input, cancelling any pending propagation and restarting the delay
func (d *Tracker[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.input = v
	d.pending = true
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

func (d *Tracker[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer Set won the race with this timer.
	if gen != d.gen || !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	changed := d.value != d.input
	d.value = d.input
	v, cb := d.value, d.onSettle
	d.mu.Unlock()

	if changed && cb != nil {
		cb(v)
	}
}

// Reset makes v both the input and the settled value without calling
// onSettle, dropping any pending propagation. Use it when the input is
// replaced programmatically.
func (d *Tracker[T]) Reset(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	d.input = v
	d.value = v
}

// Flush propagates a pending input immediately
func (d *Tracker[T]) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.mu.Unlock()
	d.fire(gen)
}

// Value returns the last settled value
func (d *Tracker[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Pending reports whether an input is waiting for the delay to elapse
func (d *Tracker[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending propagation. Later calls to Set are ignored.
func (d *Tracker[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
