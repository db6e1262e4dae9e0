// Package rules is the Rule Engine: the catalog of event-to-reward rules
// and the resolution policy that picks at most one winner per event.
package rules

import (
	"sort"
	"time"

	"github.com/roach88/gamify/internal/catalog"
	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ir"
)

// Engine holds rules and resolves them against events.
//
// Thread-safety: Engine is safe for concurrent use. Catalog changes never
// disturb a resolution already in progress; it keeps scanning the
// snapshot it started with.
type Engine struct {
	rules *catalog.Catalog[ir.Rule]
	hooks *hooks.Registry
}

// New creates an empty rule engine. Custom conditions are resolved
// through h; a nil registry makes every custom condition false.
func New(h *hooks.Registry) *Engine {
	if h == nil {
		h = hooks.NewRegistry()
	}
	return &Engine{
		rules: catalog.New[ir.Rule](),
		hooks: h,
	}
}

// Add registers a rule. Re-adding an existing id replaces the rule in
// place. Returns true when a rule was replaced.
func (e *Engine) Add(r ir.Rule) bool {
	return e.rules.Upsert(r)
}

// Remove deletes a rule. Returns false when no such rule exists.
func (e *Engine) Remove(id string) bool {
	return e.rules.Remove(id)
}

// Get returns the rule with the given id.
func (e *Engine) Get(id string) (ir.Rule, bool) {
	return e.rules.Get(id)
}

// Has reports whether a rule with the given id exists.
func (e *Engine) Has(id string) bool {
	return e.rules.Has(id)
}

// List returns every rule in registration order.
func (e *Engine) List() []ir.Rule {
	return e.rules.List()
}

// Count returns the number of registered rules.
func (e *Engine) Count() int {
	return e.rules.Len()
}

// EnabledCount returns the number of enabled rules.
func (e *Engine) EnabledCount() int {
	n := 0
	for _, r := range e.rules.Snapshot() {
		if r.Enabled {
			n++
		}
	}
	return n
}

// Enable turns a rule on. Returns false when no such rule exists.
func (e *Engine) Enable(id string) bool {
	return e.rules.Update(id, func(r *ir.Rule) { r.Enabled = true })
}

// Disable turns a rule off without removing it.
func (e *Engine) Disable(id string) bool {
	return e.rules.Update(id, func(r *ir.Rule) { r.Enabled = false })
}

// SetPriority re-prioritizes a rule.
func (e *Engine) SetPriority(id string, priority int) bool {
	return e.rules.Update(id, func(r *ir.Rule) { r.Priority = priority })
}

// ByEventType returns every rule, enabled or not, triggered by eventType,
// in registration order.
func (e *Engine) ByEventType(eventType string) []ir.Rule {
	var out []ir.Rule
	for _, r := range e.rules.Snapshot() {
		if r.Trigger.EventType == eventType {
			out = append(out, r)
		}
	}
	return out
}

// Applicable returns the enabled rules for eventType ordered by priority
// descending. Equal priorities keep registration order.
func (e *Engine) Applicable(eventType string) []ir.Rule {
	var out []ir.Rule
	for _, r := range e.rules.Snapshot() {
		if r.Enabled && r.Trigger.EventType == eventType {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Resolve returns the first applicable rule whose conditions all hold
// for ev at wall time now. At most one rule wins per event.
func (e *Engine) Resolve(ev ir.Event, now time.Time) (ir.Rule, bool) {
	for _, r := range e.Applicable(ev.Type) {
		if Match(r.Trigger.Conditions, ev, now, e.hooks) {
			return r, true
		}
	}
	return ir.Rule{}, false
}
