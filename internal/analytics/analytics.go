// Package analytics keeps the raw cross-user event counters the engine
// exposes: occurrences, unique users and XP per event type.
//
// Per-user counts live on the user record (ir.User.EventCounts); this
// package only aggregates across users.
package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/gamify/internal/ir"
)

// EventStats aggregates every processed event of one type.
type EventStats struct {
	EventType      string    `json:"event_type"`
	Occurrences    int64     `json:"occurrences"`
	UniqueUsers    int       `json:"unique_users"`
	TotalXP        int64     `json:"total_xp"`
	AverageXP      float64   `json:"average_xp"`
	LastOccurrence time.Time `json:"last_occurrence"`
}

// Popular is one row of PopularEvents.
type Popular struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

type counter struct {
	occurrences int64
	users       map[string]struct{}
	totalXP     int64
	last        time.Time
}

// Tracker aggregates processed events.
//
// Thread-safety: Tracker is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]*counter
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]*counter)}
}

// Track records one processed event and the XP it earned the user.
func (t *Tracker) Track(ev ir.Event, xpDelta int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.counts[ev.Type]
	if !ok {
		c = &counter{users: make(map[string]struct{})}
		t.counts[ev.Type] = c
	}
	c.occurrences++
	c.users[ev.UserID] = struct{}{}
	c.totalXP += xpDelta
	if ev.Timestamp.After(c.last) {
		c.last = ev.Timestamp
	}
}

// Stats returns the aggregate for one event type.
func (t *Tracker) Stats(eventType string) (EventStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.counts[eventType]
	if !ok {
		return EventStats{}, false
	}
	return c.stats(eventType), true
}

// All returns the aggregate for every event type, sorted by type.
func (t *Tracker) All() []EventStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]EventStats, 0, len(t.counts))
	for typ, c := range t.counts {
		out = append(out, c.stats(typ))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EventType < out[j].EventType
	})
	return out
}

// PopularEvents returns the most frequent event types, most frequent
// first, ties by type. A non-positive limit returns every type.
func (t *Tracker) PopularEvents(limit int) []Popular {
	t.mu.Lock()
	out := make([]Popular, 0, len(t.counts))
	for typ, c := range t.counts {
		out = append(out, Popular{EventType: typ, Count: c.occurrences})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].EventType < out[j].EventType
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Reset clears every counter.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[string]*counter)
}

func (c *counter) stats(eventType string) EventStats {
	s := EventStats{
		EventType:      eventType,
		Occurrences:    c.occurrences,
		UniqueUsers:    len(c.users),
		TotalXP:        c.totalXP,
		LastOccurrence: c.last,
	}
	if c.occurrences > 0 {
		s.AverageXP = float64(c.totalXP) / float64(c.occurrences)
	}
	return s
}
