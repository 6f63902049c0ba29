package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events per key. The callback runs once per
// key after the key has been quiet for the configured duration.
type Debouncer struct {
	duration time.Duration
	callback func(key string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewDebouncer returns a debouncer calling fn for each settled key.
func NewDebouncer(d time.Duration, fn func(key string)) *Debouncer {
	return &Debouncer{duration: d, callback: fn, timers: make(map[string]*time.Timer)}
}

// Trigger records an event for key and restarts its quiet period.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.duration, func() { d.fire(key) })
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.mu.Unlock()
	d.callback(key)
}

// Stop cancels pending callbacks. Triggers after Stop are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
