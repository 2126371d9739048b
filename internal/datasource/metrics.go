package datasource

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time view of a datasource's counters.
type Metrics struct {
	UpdatesSent uint64            // updates accepted by the sender
	SendErrors  uint64            // sends rejected by the sender
	LastSlot    uint64            // highest slot sent so far
	StartedAt   time.Time         // zero until the task started
	Custom      map[string]uint64 // source specific counters
}

// Counters is the mutable counter set a datasource owns. The zero value is
// ready to use and safe for concurrent use.
type Counters struct {
	sent      atomic.Uint64
	errors    atomic.Uint64
	lastSlot  atomic.Uint64
	startedAt atomic.Int64

	mu     sync.Mutex
	custom map[string]uint64
}

// MarkStarted records the task start time.
func (c *Counters) MarkStarted() {
	c.startedAt.Store(time.Now().UnixNano())
}

// RecordSent counts one delivered update observed at slot.
func (c *Counters) RecordSent(slot uint64) {
	c.sent.Add(1)
	for {
		cur := c.lastSlot.Load()
		if slot <= cur || c.lastSlot.CompareAndSwap(cur, slot) {
			return
		}
	}
}

// RecordError counts one rejected send.
func (c *Counters) RecordError() {
	c.errors.Add(1)
}

// Add increments a source specific counter.
func (c *Counters) Add(name string, delta uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.custom == nil {
		c.custom = make(map[string]uint64)
	}
	c.custom[name] += delta
}

// Snapshot copies the current values.
func (c *Counters) Snapshot() Metrics {
	m := Metrics{
		UpdatesSent: c.sent.Load(),
		SendErrors:  c.errors.Load(),
		LastSlot:    c.lastSlot.Load(),
	}
	if ns := c.startedAt.Load(); ns != 0 {
		m.StartedAt = time.Unix(0, ns)
	}

	c.mu.Lock()
	m.Custom = maps.Clone(c.custom)
	c.mu.Unlock()

	return m
}
