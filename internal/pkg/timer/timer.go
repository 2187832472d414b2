// Package timer provides the cancellable scheduling primitive used for
// challenge expiry, confirmation expiry, and delayed board updates.
package timer

import (
	"sort"
	"sync"
	"time"
)

// Handle cancels a scheduled callback. Cancelling a handle whose callback has
// already fired (or was already cancelled) is a no-op.
type Handle interface {
	Cancel()
}

// Scheduler schedules a callback to run once after a delay.
type Scheduler interface {
	After(d time.Duration, fn func()) Handle
}

// Clock is the wall-clock scheduler backed by time.AfterFunc.
type Clock struct{}

// NewClock creates the production scheduler.
func NewClock() *Clock {
	return &Clock{}
}

type clockHandle struct {
	t *time.Timer
}

func (h *clockHandle) Cancel() {
	h.t.Stop()
}

// After schedules fn to run on its own goroutine after d.
func (c *Clock) After(d time.Duration, fn func()) Handle {
	return &clockHandle{t: time.AfterFunc(d, fn)}
}

// Manual is a deterministic scheduler for tests. Callbacks fire synchronously
// from Advance, in deadline order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	pending map[int]*manualEntry
}

type manualEntry struct {
	deadline time.Time
	fn       func()
}

// NewManual creates a manual scheduler starting at an arbitrary fixed instant.
func NewManual() *Manual {
	return &Manual{
		now:     time.Unix(0, 0),
		pending: make(map[int]*manualEntry),
	}
}

type manualHandle struct {
	m  *Manual
	id int
}

func (h *manualHandle) Cancel() {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	delete(h.m.pending, h.id)
}

// After registers fn to fire once the manual clock has advanced past d.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.pending[id] = &manualEntry{deadline: m.now.Add(d), fn: fn}
	return &manualHandle{m: m, id: id}
}

// Pending returns the number of callbacks not yet fired or cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward and fires every due callback in deadline
// order. Callbacks run without the scheduler lock held, so they may schedule
// or cancel freely.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)

	type due struct {
		id       int
		deadline time.Time
		fn       func()
	}
	var fire []due
	for id, e := range m.pending {
		if !e.deadline.After(m.now) {
			fire = append(fire, due{id: id, deadline: e.deadline, fn: e.fn})
		}
	}
	sort.Slice(fire, func(i, j int) bool { return fire[i].deadline.Before(fire[j].deadline) })
	for _, f := range fire {
		delete(m.pending, f.id)
	}
	m.mu.Unlock()

	for _, f := range fire {
		f.fn()
	}
}
