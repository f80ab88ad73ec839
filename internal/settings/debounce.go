package settings

import (
	"sync"
	"time"

	"streamdash/internal/clock"
	"streamdash/internal/protocol"
)

// DebounceWindow is the quiescence period after which the latest pending
// value for a setting is sent.
const DebounceWindow = 500 * time.Millisecond

type pendingSend struct {
	timer *clock.Timer
	cmd   protocol.Command
}

// debouncer is a keyed timer table: at most one pending command per key,
// and a newer Schedule for the same key replaces the older one.
type debouncer struct {
	clock  clock.Clock
	window time.Duration
	send   func(protocol.Command)

	mu      sync.Mutex
	pending map[string]*pendingSend
	stopped bool
}

func newDebouncer(c clock.Clock, window time.Duration, send func(protocol.Command)) *debouncer {
	return &debouncer{
		clock:   c,
		window:  window,
		send:    send,
		pending: make(map[string]*pendingSend),
	}
}

func (d *debouncer) Schedule(key string, cmd protocol.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	entry := &pendingSend{cmd: cmd}
	entry.timer = d.clock.AfterFunc(d.window, func() { d.fire(key, entry) })
	d.pending[key] = entry
}

func (d *debouncer) fire(key string, entry *pendingSend) {
	d.mu.Lock()
	if d.stopped || d.pending[key] != entry {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	d.send(entry.cmd)
}

// Cancel drops the pending send for key, if any.
func (d *debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.pending[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending returns the keys with a send in flight.
func (d *debouncer) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	return keys
}

// Stop cancels everything and refuses further scheduling.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, key)
	}
}
