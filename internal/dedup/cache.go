// Package dedup suppresses repeated deliveries of the same inbound event.
//
// The cache is process-local and best effort: it guards against a webhook
// source redelivering an event shortly after the first delivery. It is not a
// durable idempotency ledger and forgets everything on restart.
package dedup

import (
	"container/list"
	"sync"
	"time"
)

// Defaults used when New is given non-positive values.
const (
	DefaultCapacity = 100
	DefaultTTL      = 60 * time.Second
)

// Verdict is the outcome of observing an event id.
type Verdict int

const (
	// Fresh means the event should be processed.
	Fresh Verdict = iota
	// Duplicate means the event was seen less than one TTL ago.
	Duplicate
)

func (v Verdict) String() string {
	if v == Duplicate {
		return "duplicate"
	}
	return "fresh"
}

type entry struct {
	id        string
	firstSeen time.Time
}

// Cache remembers recently seen event ids. Entries expire lazily: staleness
// is only checked when an id is observed again. When more than capacity ids
// are remembered, the oldest recorded one is dropped.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // of *entry, oldest first
	index    map[string]*list.Element
}

// New creates a cache holding at most capacity ids for ttl each.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Observe records id as seen at now and reports whether it is a duplicate.
// An id is a duplicate iff it was recorded less than one TTL before now.
// Otherwise it is (re)recorded with now as its first-seen time.
// Empty ids cannot be correlated and are always fresh.
func (c *Cache) Observe(id string, now time.Time) Verdict {
	if id == "" {
		return Fresh
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[id]; ok {
		e := el.Value.(*entry)
		if now.Sub(e.firstSeen) < c.ttl {
			return Duplicate
		}
		e.firstSeen = now
		c.order.MoveToBack(el)
		return Fresh
	}

	c.index[id] = c.order.PushBack(&entry{id: id, firstSeen: now})
	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*entry).id)
	}
	return Fresh
}

// Len returns the number of remembered ids, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
