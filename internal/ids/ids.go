// Package ids generates identifiers for minted badges and streak counters.
package ids

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique identifiers.
// Implemented by UUIDv7Generator (production), Sequential and Fixed (tests).
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Sequential generates deterministic IDs of the form "{prefix}_{counter}",
// e.g. "badge_000001".
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential generator with the given prefix.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// Generate returns the next ID.
func (g *Sequential) Generate() string {
	return fmt.Sprintf("%s_%06d", g.prefix, g.counter.Add(1))
}

// Fixed returns predetermined IDs for testing.
//
// Thread-safety: Fixed is safe for concurrent use via internal mutex.
type Fixed struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixed creates a generator that returns ids in order.
//
//	gen := NewFixed("a", "b")
//	gen.Generate() // "a"
//	gen.Generate() // "b"
//	gen.Generate() // panic: all ids exhausted
func NewFixed(ids ...string) *Fixed {
	return &Fixed{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics once every id has been consumed, to catch tests that mint more
// ids than they expect.
func (g *Fixed) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("ids.Fixed: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
