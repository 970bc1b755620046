package timer

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of calls, once the burst has been
// quiet for the configured delay.
type Debouncer struct {
	clock Clock
	delay time.Duration

	mu      sync.Mutex
	pending Timer
	done    chan bool
}

func NewDebouncer(c Clock, delay time.Duration) *Debouncer {
	return &Debouncer{clock: c, delay: delay}
}

// Trigger cancels any pending call and schedules f after the delay.
// The returned channel (buffered, one value) receives f's result once it ran,
// or false if this call was superseded or stopped first.
func (d *Debouncer) Trigger(f func() bool) <-chan bool {
	done := make(chan bool, 1)

	d.mu.Lock()
	d.cancelLocked()
	d.done = done
	var t Timer
	t = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending != t {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.done = nil
		d.mu.Unlock()

		done <- f()
	})
	d.pending = t
	d.mu.Unlock()
	return done
}

// Stop cancels the pending call, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) cancelLocked() {
	if d.pending == nil {
		return
	}
	d.pending.Stop()
	d.pending = nil
	if d.done != nil {
		d.done <- false
		d.done = nil
	}
}
