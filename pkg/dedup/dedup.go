// Package dedup suppresses hub redeliveries with a fixed-size ledger of
// recently seen notification IDs.
package dedup

import "sync"

// DefaultCapacity bounds the ledger when the caller does not choose a size.
const DefaultCapacity = 40

// Ledger remembers the last N recorded IDs. Once full, recording a new ID
// evicts the oldest one, in strict insertion order. All methods are safe for
// concurrent use.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
}

// New returns a ledger holding at most capacity IDs. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Contains reports whether id is currently in the ledger. Lookups do not
// refresh an entry's position.
func (l *Ledger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[id]
	return ok
}

// Record adds id to the ledger and reports whether it was new. The check
// and the insert happen under one lock, so concurrent deliveries of the
// same id yield exactly one true.
func (l *Ledger) Record(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return false
	}

	if len(l.order) == l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}

	l.seen[id] = struct{}{}
	l.order = append(l.order, id)
	return true
}

// Len reports how many IDs the ledger currently holds.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen)
}
