// Package debounce delays a value until its input has been quiet for a
// fixed period.
package debounce

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

const DefaultDelay = time.Second

type Option func(*options)

type options struct {
	clock clock.WithDelayedExecution
}

func WithClock(c clock.WithDelayedExecution) Option {
	return func(o *options) { o.clock = c }
}

// Debouncer emits the latest value once no Set has happened for delay.
// Intermediate values are dropped and a value equal to the last emitted or
// synced one is not emitted again.
type Debouncer[T comparable] struct {
	delay  time.Duration
	clock  clock.WithDelayedExecution
	onEmit func(T)

	mu      sync.Mutex
	timer   clock.Timer
	seq     uint64
	value   T
	last    T
	pending bool
	stopped bool
}

func New[T comparable](delay time.Duration, onEmit func(T), opts ...Option) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	o := options{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{delay: delay, clock: o.clock, onEmit: onEmit}
}

// Set records a keystroke-level change and restarts the quiet period.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.value = v
	d.pending = true
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Sync adopts an externally reset value without emitting it.
func (d *Debouncer[T]) Sync(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.value = v
	d.last = v
}

// Flush emits the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.cancelLocked()
	d.emitLocked()
}

// Stop drops any pending emission. The debouncer is unusable afterwards.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Value returns the latest value, emitted or not.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.emitLocked()
}

// emitLocked must be called with d.mu held; it releases it before calling
// onEmit.
func (d *Debouncer[T]) emitLocked() {
	d.pending = false
	v := d.value
	if v == d.last {
		d.mu.Unlock()
		return
	}
	d.last = v
	d.mu.Unlock()

	if d.onEmit != nil {
		d.onEmit(v)
	}
}

func (d *Debouncer[T]) cancelLocked() {
	d.seq++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
