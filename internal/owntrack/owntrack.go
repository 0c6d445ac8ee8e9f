// Package owntrack remembers the hashes of content this process wrote to the
// clipboard, so the resulting change events can be recognised and dropped.
//
// The set is small and short-lived: at most Capacity entries, each valid for
// TTL after it was last touched. Entries are kept on a doubly linked list in
// touch order, so eviction and refresh are O(1).
package owntrack

import (
	"sync"
	"time"
)

const (
	DefaultCapacity = 10
	DefaultTTL      = 5 * time.Second
)

type entry struct {
	hash       string
	at         time.Time
	prev, next *entry
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	index    map[string]*entry
	head     *entry // most recently touched
	tail     *entry // least recently touched
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCapacity bounds the number of hashes held. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithTTL sets how long a hash stays own after its last touch.
func WithTTL(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New returns an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	t.index = make(map[string]*entry, t.capacity)
	return t
}

// MarkOwn records hash as written by us, refreshing it if already present.
func (t *Tracker) MarkOwn(hash string) {
	if hash == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if e, ok := t.index[hash]; ok {
		e.at = now
		t.moveToFront(e)
		return
	}

	e := &entry{hash: hash, at: now}
	t.index[hash] = e
	t.pushFront(e)

	for t.tail != nil && t.tail != e && now.Sub(t.tail.at) > t.ttl {
		t.remove(t.tail)
	}
	for len(t.index) > t.capacity {
		t.remove(t.tail)
	}
}

// IsOwn reports whether hash was marked within the TTL. A hit refreshes the
// entry's position but not its age; an expired entry is removed.
func (t *Tracker) IsOwn(hash string) bool {
	if hash == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.index[hash]
	if !ok {
		return false
	}
	if t.now().Sub(e.at) > t.ttl {
		t.remove(e)
		return false
	}
	t.moveToFront(e)
	return true
}

// Forget removes hash, e.g. after the write it was marked for failed.
func (t *Tracker) Forget(hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.index[hash]; ok {
		t.remove(e)
	}
}

// Clear forgets every hash.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.index)
	t.head, t.tail = nil, nil
}

// Len returns the number of entries held, expired or not.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.index)
}

func (t *Tracker) pushFront(e *entry) {
	e.prev, e.next = nil, t.head
	if t.head != nil {
		t.head.prev = e
	}
	t.head = e
	if t.tail == nil {
		t.tail = e
	}
}

func (t *Tracker) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		t.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		t.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (t *Tracker) moveToFront(e *entry) {
	if t.head == e {
		return
	}
	t.unlink(e)
	t.pushFront(e)
}

func (t *Tracker) remove(e *entry) {
	t.unlink(e)
	delete(t.index, e.hash)
}
