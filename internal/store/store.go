package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/roach88/gamify/internal/clock"
	"github.com/roach88/gamify/internal/ids"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/levels"
)

// DefaultStreakWindow is the gap after which a streak resets.
const DefaultStreakWindow = 24 * time.Hour

var (
	// ErrUserNotFound is returned for operations on an unknown user id.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned by CreateUser for an id already in use.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidStreakKind is returned by UpdateStreak for a kind other
	// than daily, weekly or monthly.
	ErrInvalidStreakKind = errors.New("invalid streak kind")
)

// Store holds user progression records in memory.
//
// Thread-safety: Store is safe for concurrent use. Mutations of one user
// are serialized; mutations of different users run in parallel.
type Store struct {
	clock  clock.Clock
	ids    ids.Generator
	window time.Duration

	mu    sync.RWMutex
	users map[string]*entry
	order []string
}

type entry struct {
	mu   sync.Mutex
	user ir.User
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the wall clock used for timestamps and streak windows.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithIDs sets the generator used for streak ids and unnamed badges.
func WithIDs(g ids.Generator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithStreakWindow overrides the streak continuation window.
// Non-positive values are ignored.
func WithStreakWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.window = d
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		clock:  clock.System{},
		ids:    ids.UUIDv7Generator{},
		window: DefaultStreakWindow,
		users:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser registers a new user with zero XP at level 1.
// Returns ErrUserExists if the id is already taken.
func (s *Store) CreateUser(id, name, email string) (ir.User, error) {
	if id == "" {
		return ir.User{}, errors.New("user id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; ok {
		return ir.User{}, fmt.Errorf("create user %q: %w", id, ErrUserExists)
	}

	now := s.clock.Now()
	u := ir.User{
		ID:           id,
		Name:         name,
		Email:        email,
		Level:        levels.LevelForXP(0),
		Badges:       []ir.Badge{},
		Streaks:      []ir.Streak{},
		Achievements: []ir.Achievement{},
		EventCounts:  map[string]int64{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[id] = &entry{user: u}
	s.order = append(s.order, id)
	return u.Clone(), nil
}

// GetUser returns a copy of the user's record.
func (s *Store) GetUser(id string) (ir.User, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return ir.User{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user.Clone(), true
}

// Has reports whether a user with the given id exists.
func (s *Store) Has(id string) bool {
	_, ok := s.lookup(id)
	return ok
}

// Count returns the number of users.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Users returns copies of every user in creation order.
func (s *Store) Users() []ir.User {
	entries := s.entries()
	out := make([]ir.User, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.user.Clone())
		e.mu.Unlock()
	}
	return out
}

// Profile carries the user fields that may be changed directly.
// Nil fields are left unchanged.
type Profile struct {
	Name  *string
	Email *string
}

// UpdateUser changes profile fields. Progression fields can only be
// changed through the progression operations.
func (s *Store) UpdateUser(id string, p Profile) (ir.User, error) {
	return s.Mutate(id, func(r *Record) error {
		if p.Name != nil {
			r.user.Name = *p.Name
		}
		if p.Email != nil {
			r.user.Email = *p.Email
		}
		return nil
	})
}

// AddXP adds amount to the user's XP and recomputes the level.
func (s *Store) AddXP(id string, amount int64) (ir.User, error) {
	return s.Mutate(id, func(r *Record) error {
		r.AddXP(amount)
		return nil
	})
}

// AddBadge gives the user a badge. Adding a badge the user already holds
// is a no-op.
func (s *Store) AddBadge(id string, b ir.Badge) (ir.User, error) {
	return s.Mutate(id, func(r *Record) error {
		r.AddBadge(b)
		return nil
	})
}

// UpdateStreak records activity on the user's streak of the given kind.
func (s *Store) UpdateStreak(id string, kind ir.StreakKind) (ir.User, error) {
	if !kind.Valid() {
		return ir.User{}, fmt.Errorf("update streak %q: %w", kind, ErrInvalidStreakKind)
	}
	return s.Mutate(id, func(r *Record) error {
		r.UpdateStreak(kind)
		return nil
	})
}

// Mutate runs fn with the user locked and returns a copy of the record
// after fn returns.
//
// The level is recomputed and UpdatedAt stamped once fn returns, even if
// fn returned an error: changes already made through the Record are kept.
func (s *Store) Mutate(id string, fn func(*Record) error) (ir.User, error) {
	e, ok := s.lookup(id)
	if !ok {
		return ir.User{}, fmt.Errorf("user %q: %w", id, ErrUserNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r := &Record{store: s, user: &e.user, now: s.clock.Now()}
	err := fn(r)
	r.settle()
	return e.user.Clone(), err
}

// Leaderboard returns users ranked by XP descending, ties in creation
// order. A non-positive limit returns every user.
func (s *Store) Leaderboard(limit int) []ir.LeaderboardEntry {
	users := s.Users()
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].XP > users[j].XP
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}

	out := make([]ir.LeaderboardEntry, len(users))
	for i, u := range users {
		out[i] = ir.LeaderboardEntry{
			UserID:   u.ID,
			UserName: u.Name,
			Score:    u.XP,
			Rank:     i + 1,
			Level:    u.Level,
			Badges:   u.Badges,
		}
	}
	return out
}

// LevelProgress reports the XP span bounding the user's level.
func LevelProgress(u ir.User) ir.LevelProgress {
	return levels.Progress(u.XP)
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.users[id]
	return e, ok
}

func (s *Store) entries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, len(s.order))
	for i, id := range s.order {
		out[i] = s.users[id]
	}
	return out
}
