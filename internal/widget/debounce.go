package widget

import (
	"sync"
	"time"
)

// debouncer owns a single cancellable scheduled task. Restart cancels any
// pending run and schedules a new one a fixed window later, so at most one
// run is ever pending and only the last restart within a burst fires.
type debouncer struct {
	window time.Duration
	fn     func()

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(window time.Duration, fn func()) *debouncer {
	return &debouncer{window: window, fn: fn}
}

// Restart cancels the pending run (if any) and schedules a fresh one.
func (d *debouncer) Restart() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

// Cancel stops the pending run. It reports whether a run was pending.
func (d *debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	pending := d.timer.Stop()
	d.timer = nil
	return pending
}
