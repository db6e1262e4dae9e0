// Package hooks is the registry of named predicates and effects that
// definitions refer to by name.
//
// Rules, missions and achievement templates stay plain data; anything that
// needs code (a custom condition, a mission goal, a reward effect) names a
// hook registered here. An unregistered name never holds and never runs.
package hooks

import (
	"sort"
	"sync"

	"github.com/roach88/gamify/internal/ir"
)

// EventPredicate decides a custom rule condition.
type EventPredicate func(ev ir.Event) bool

// UserPredicate decides a custom mission goal.
type UserPredicate func(u ir.User) bool

// AchievementPredicate decides a custom achievement condition.
type AchievementPredicate func(u ir.User, ev ir.Event) bool

// Effect runs a named reward effect against the user being rewarded.
// The user is already locked by the caller.
type Effect func(u *ir.User, args map[string]string)

// Registry holds named hooks.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	events       map[string]EventPredicate
	users        map[string]UserPredicate
	achievements map[string]AchievementPredicate
	effects      map[string]Effect
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		events:       make(map[string]EventPredicate),
		users:        make(map[string]UserPredicate),
		achievements: make(map[string]AchievementPredicate),
		effects:      make(map[string]Effect),
	}
}

// RegisterCondition registers a custom rule condition.
func (r *Registry) RegisterCondition(name string, fn EventPredicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[name] = fn
}

// RegisterGoal registers a custom mission goal.
func (r *Registry) RegisterGoal(name string, fn UserPredicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[name] = fn
}

// RegisterAchievementCheck registers a custom achievement condition.
func (r *Registry) RegisterAchievementCheck(name string, fn AchievementPredicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.achievements[name] = fn
}

// RegisterEffect registers a reward effect.
func (r *Registry) RegisterEffect(name string, fn Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects[name] = fn
}

// Unregister removes every hook with the given name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, name)
	delete(r.users, name)
	delete(r.achievements, name)
	delete(r.effects, name)
}

// Condition evaluates a custom rule condition.
// Unknown names report false.
func (r *Registry) Condition(name string, ev ir.Event) bool {
	r.mu.RLock()
	fn, ok := r.events[name]
	r.mu.RUnlock()
	return ok && fn(ev)
}

// Goal evaluates a custom mission goal.
// Unknown names report false.
func (r *Registry) Goal(name string, u ir.User) bool {
	r.mu.RLock()
	fn, ok := r.users[name]
	r.mu.RUnlock()
	return ok && fn(u)
}

// AchievementCheck evaluates a custom achievement condition.
// Unknown names report false.
func (r *Registry) AchievementCheck(name string, u ir.User, ev ir.Event) bool {
	r.mu.RLock()
	fn, ok := r.achievements[name]
	r.mu.RUnlock()
	return ok && fn(u, ev)
}

// RunEffect runs a named effect. Returns false when no effect with that
// name is registered.
func (r *Registry) RunEffect(name string, u *ir.User, args map[string]string) bool {
	r.mu.RLock()
	fn, ok := r.effects[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	fn(u, args)
	return true
}

// Names returns every registered hook name, sorted and deduplicated.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for n := range r.events {
		seen[n] = true
	}
	for n := range r.users {
		seen[n] = true
	}
	for n := range r.achievements {
		seen[n] = true
	}
	for n := range r.effects {
		seen[n] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
