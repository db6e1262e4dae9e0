package ir

import "time"

// Rule grants a reward when an event of the trigger's type arrives and
// every trigger condition holds. Higher Priority is evaluated first.
type Rule struct {
	ID       string            `json:"id"`
	Trigger  Trigger           `json:"trigger"`
	Enabled  bool              `json:"enabled"`
	Priority int               `json:"priority"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Key returns the catalog key for the rule.
func (r Rule) Key() string { return r.ID }

// Trigger binds an event type to a reward.
// Conditions are AND-ed; an empty list always matches.
type Trigger struct {
	EventType  string      `json:"event_type"`
	Conditions []Condition `json:"-"`
	Reward     Reward      `json:"-"`
}

// Condition is a sealed interface over trigger condition variants.
type Condition interface {
	Kind() string
	condition() // Sealed
}

// ThresholdCondition holds when payload "value" >= Min.
type ThresholdCondition struct {
	Min float64
}

// ComboCondition holds when every key appears in payload "keys".
type ComboCondition struct {
	Keys []string
}

// TimeWindowCondition holds when now - payload "timestamp" <= Window.
type TimeWindowCondition struct {
	Window time.Duration
}

// DurationCondition holds when payload "duration" >= Min.
type DurationCondition struct {
	Min float64
}

// PredicateCondition delegates to a named event predicate registered with
// the hooks registry. An unregistered name never holds.
type PredicateCondition struct {
	Name string
}

// UnknownCondition is produced for unrecognized condition kinds.
// It never holds.
type UnknownCondition struct {
	Name string
}

func (ThresholdCondition) Kind() string  { return "threshold" }
func (ComboCondition) Kind() string      { return "combo" }
func (TimeWindowCondition) Kind() string { return "time_window" }
func (DurationCondition) Kind() string   { return "duration" }
func (PredicateCondition) Kind() string  { return "custom" }
func (c UnknownCondition) Kind() string  { return c.Name }

func (ThresholdCondition) condition()  {}
func (ComboCondition) condition()      {}
func (TimeWindowCondition) condition() {}
func (DurationCondition) condition()   {}
func (PredicateCondition) condition()  {}
func (UnknownCondition) condition()    {}
