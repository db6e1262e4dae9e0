// Package missions is the Mission Evaluator: mission definitions plus the
// completion check that runs after every event.
package missions

import (
	"math"
	"time"

	"github.com/roach88/gamify/internal/catalog"
	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/reward"
	"github.com/roach88/gamify/internal/store"
)

// DefaultCooldown is the re-arm delay for repeatable missions that do not
// set their own.
const DefaultCooldown = 24 * time.Hour

// Completion describes one mission completed during a check.
type Completion struct {
	Mission ir.Mission
	Record  ir.Achievement
	Reward  reward.Applied
}

// Evaluator holds missions and checks users against them.
//
// Thread-safety: Evaluator is safe for concurrent use. Check must be
// called with the user locked, which store.Mutate guarantees.
type Evaluator struct {
	missions *catalog.Catalog[ir.Mission]
	hooks    *hooks.Registry
	rewards  *reward.Applicator
	cooldown time.Duration
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithDefaultCooldown sets the re-arm delay for repeatable missions that
// have no cooldown of their own.
func WithDefaultCooldown(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.cooldown = d
		}
	}
}

// New creates an evaluator that applies mission rewards through app.
func New(app *reward.Applicator, h *hooks.Registry, opts ...Option) *Evaluator {
	if h == nil {
		h = hooks.NewRegistry()
	}
	e := &Evaluator{
		missions: catalog.New[ir.Mission](),
		hooks:    h,
		rewards:  app,
		cooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add registers a mission, replacing any mission with the same id.
func (e *Evaluator) Add(m ir.Mission) bool {
	return e.missions.Upsert(m)
}

// Remove deletes a mission. Completion records already granted stay.
func (e *Evaluator) Remove(id string) bool {
	return e.missions.Remove(id)
}

// Get returns the mission with the given id.
func (e *Evaluator) Get(id string) (ir.Mission, bool) {
	return e.missions.Get(id)
}

// List returns every mission in registration order.
func (e *Evaluator) List() []ir.Mission {
	return e.missions.List()
}

// Count returns the number of registered missions.
func (e *Evaluator) Count() int {
	return e.missions.Len()
}

// ByCategory returns the missions in a category.
func (e *Evaluator) ByCategory(category string) []ir.Mission {
	return e.filter(func(m ir.Mission) bool { return m.Category == category })
}

// ByDifficulty returns the missions with a difficulty tag.
func (e *Evaluator) ByDifficulty(d ir.Difficulty) []ir.Mission {
	return e.filter(func(m ir.Mission) bool { return m.Difficulty == d })
}

// IsCompleted reports whether the user has a completion record for the
// mission.
func (e *Evaluator) IsCompleted(u ir.User, id string) bool {
	_, ok := u.Completion(ir.SourceMission, id)
	return ok
}

// Available returns the missions the user can still complete at now:
// never completed, or repeatable and past their cooldown.
func (e *Evaluator) Available(u ir.User, now time.Time) []ir.Mission {
	return e.filter(func(m ir.Mission) bool { return e.armed(u, m, now) })
}

// Completed returns the registered missions the user has completed.
func (e *Evaluator) Completed(u ir.User) []ir.Mission {
	return e.filter(func(m ir.Mission) bool { return e.IsCompleted(u, m.ID) })
}

// Progress returns the user's progress on a mission as a fraction in
// [0,1]. Unknown missions report 0.
func (e *Evaluator) Progress(u ir.User, id string) float64 {
	m, ok := e.missions.Get(id)
	if !ok {
		return 0
	}
	if len(m.Objectives) > 0 {
		var sum float64
		for _, o := range m.Objectives {
			sum += objectiveProgress(u, o)
		}
		return sum / float64(len(m.Objectives))
	}
	return e.goalProgress(u, m.Goal)
}

// Check completes every armed mission whose goal the record now meets and
// applies its reward. Missions are checked in registration order against
// the latest state, so one mission's reward can complete a later one.
func (e *Evaluator) Check(r *store.Record) []Completion {
	var done []Completion
	for _, m := range e.missions.Snapshot() {
		u := r.View()
		if !e.armed(u, m, r.Now()) || !e.met(u, m) {
			continue
		}
		done = append(done, e.complete(r, m))
	}
	return done
}

func (e *Evaluator) complete(r *store.Record, m ir.Mission) Completion {
	rec := ir.Achievement{
		ID:          m.ID,
		Source:      ir.SourceMission,
		Title:       m.Title,
		Description: m.Description,
		XPReward:    m.Reward.XP(),
		Rarity:      ir.RarityCommon,
		Category:    m.Category,
		Progress:    1,
		MaxProgress: 1,
		Completed:   true,
		CompletedAt: r.Now(),
		Completions: 1,
	}
	view := r.View()
	if prev, ok := view.Completion(ir.SourceMission, m.ID); ok {
		rec.Completions = prev.Completions + 1
	}
	r.RecordCompletion(rec)

	var applied reward.Applied
	if e.rewards != nil {
		applied = e.rewards.Apply(r, m.Reward)
	}
	return Completion{Mission: m, Record: rec, Reward: applied}
}

// armed reports whether the mission may complete for u at now.
func (e *Evaluator) armed(u ir.User, m ir.Mission, now time.Time) bool {
	prev, ok := u.Completion(ir.SourceMission, m.ID)
	if !ok {
		return true
	}
	if !m.Repeatable {
		return false
	}
	cooldown := m.Cooldown
	if cooldown <= 0 {
		cooldown = e.cooldown
	}
	return now.Sub(prev.CompletedAt) >= cooldown
}

// met reports whether u satisfies the mission. Objectives take precedence
// over the legacy goal.
func (e *Evaluator) met(u ir.User, m ir.Mission) bool {
	if len(m.Objectives) > 0 {
		for _, o := range m.Objectives {
			if !o.Kind.Recognized() || objectiveCount(u, o) < objectiveTarget(o) {
				return false
			}
		}
		return true
	}

	switch g := m.Goal.(type) {
	case ir.StreakGoal:
		for _, s := range u.Streaks {
			if s.CurrentCount >= g.Target {
				return true
			}
		}
		return false
	case ir.XPGoal:
		return u.XP >= g.Target
	case ir.BadgeGoal:
		return len(u.Badges) >= g.Target
	case ir.PredicateGoal:
		return e.hooks.Goal(g.Name, u)
	default:
		// nil goal, ir.UnknownGoal
		return false
	}
}

func (e *Evaluator) goalProgress(u ir.User, goal ir.Goal) float64 {
	switch g := goal.(type) {
	case ir.StreakGoal:
		return ratio(float64(u.MaxStreakCount()), float64(g.Target))
	case ir.XPGoal:
		return ratio(float64(u.XP), float64(g.Target))
	case ir.BadgeGoal:
		return ratio(float64(len(u.Badges)), float64(g.Target))
	case ir.PredicateGoal:
		if e.hooks.Goal(g.Name, u) {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (e *Evaluator) filter(keep func(ir.Mission) bool) []ir.Mission {
	var out []ir.Mission
	for _, m := range e.missions.Snapshot() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// objectiveCount is the objective's progress counter: the user's count of
// events of the objective's event type, or of its kind when unset.
func objectiveCount(u ir.User, o ir.Objective) int64 {
	eventType := o.EventType
	if eventType == "" {
		eventType = string(o.Kind)
	}
	return u.EventCount(eventType)
}

func objectiveTarget(o ir.Objective) int64 {
	if o.Target <= 0 {
		return 1
	}
	return o.Target
}

func objectiveProgress(u ir.User, o ir.Objective) float64 {
	if !o.Kind.Recognized() {
		return 0
	}
	return ratio(float64(objectiveCount(u, o)), float64(objectiveTarget(o)))
}

// ratio returns have/want clamped to [0,1]. A non-positive target is
// already met.
func ratio(have, want float64) float64 {
	if want <= 0 {
		return 1
	}
	return math.Max(0, math.Min(have/want, 1))
}
