// internal/events/store.go
package events

import "sync"

// Event is a single processed webhook delivery. Records are immutable
// once stored.
type Event struct {
	ID          string `json:"id"`
	Event       string `json:"event"`
	Action      string `json:"action,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Store is an append-only in-memory log of processed webhook deliveries,
// deduplicated by delivery id. It is safe for concurrent use. Growth is
// unbounded; nothing in the current contract evicts old entries.
type Store struct {
	mu     sync.Mutex
	events []Event
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// RecordIfNew appends ev unless an event with the same delivery id is
// already present. The check and the append happen under one lock so two
// concurrent deliveries of the same id cannot both be judged new. It
// reports whether the event was recorded.
func (s *Store) RecordIfNew(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.ID == ev.ID {
			return false
		}
	}
	s.events = append(s.events, ev)
	return true
}

// Recent returns a copy of the last limit events in arrival order.
// Negative limits are treated as zero; limits larger than the store
// return everything.
func (s *Store) Recent(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, limit)
	copy(out, s.events[len(s.events)-limit:])
	return out
}

// Len reports the number of stored events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
