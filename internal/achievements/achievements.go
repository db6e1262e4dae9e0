// Package achievements is the Achievement Evaluator: multi-condition
// templates that a user earns once, the first time every condition holds
// at the same moment.
package achievements

import (
	"github.com/roach88/gamify/internal/catalog"
	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/reward"
	"github.com/roach88/gamify/internal/store"
)

// Earned describes one achievement earned during a check.
type Earned struct {
	Template ir.AchievementTemplate
	Record   ir.Achievement
	Reward   reward.Applied
}

// Evaluator holds achievement templates and checks users against them.
//
// Earned achievements are stored on the user record with source
// ir.SourceAchievement and are never revoked.
type Evaluator struct {
	templates *catalog.Catalog[ir.AchievementTemplate]
	hooks     *hooks.Registry
	rewards   *reward.Applicator
}

// New creates an evaluator that applies achievement rewards through app.
func New(app *reward.Applicator, h *hooks.Registry) *Evaluator {
	if h == nil {
		h = hooks.NewRegistry()
	}
	return &Evaluator{
		templates: catalog.New[ir.AchievementTemplate](),
		hooks:     h,
		rewards:   app,
	}
}

// Register adds a template, replacing any template with the same id.
func (e *Evaluator) Register(t ir.AchievementTemplate) bool {
	return e.templates.Upsert(t)
}

// Remove deletes a template. Achievements already earned stay earned.
func (e *Evaluator) Remove(id string) bool {
	return e.templates.Remove(id)
}

// Templates returns every template in registration order.
func (e *Evaluator) Templates() []ir.AchievementTemplate {
	return e.templates.List()
}

// Template returns the template with the given id.
func (e *Evaluator) Template(id string) (ir.AchievementTemplate, bool) {
	return e.templates.Get(id)
}

// Visible returns the templates a user may see: every template except
// secret ones the user has not earned yet.
func (e *Evaluator) Visible(u ir.User) []ir.AchievementTemplate {
	var out []ir.AchievementTemplate
	for _, t := range e.templates.Snapshot() {
		if t.Secret && !Has(u, t.ID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Has reports whether the user has earned the achievement.
func Has(u ir.User, id string) bool {
	_, ok := u.Completion(ir.SourceAchievement, id)
	return ok
}

// UserAchievements returns the user's earned achievements in the order
// they were earned.
func UserAchievements(u ir.User) []ir.Achievement {
	var out []ir.Achievement
	for _, a := range u.Achievements {
		if a.Source == ir.SourceAchievement {
			out = append(out, a)
		}
	}
	return out
}

// Stats summarizes the user's earned achievements against the registered
// templates. Progress is a percentage.
func (e *Evaluator) Stats(u ir.User) ir.AchievementStats {
	earned := UserAchievements(u)
	stats := ir.AchievementStats{
		Total:    e.templates.Len(),
		Earned:   len(earned),
		ByRarity: make(map[ir.Rarity]int),
	}
	for _, a := range earned {
		if a.Rarity != "" {
			stats.ByRarity[a.Rarity]++
		}
	}
	if stats.Total > 0 {
		stats.Progress = float64(stats.Earned) / float64(stats.Total) * 100
	}
	return stats
}

// Check earns every unearned template whose conditions all hold for the
// record and the triggering event, applying each template's reward once.
func (e *Evaluator) Check(r *store.Record, ev ir.Event) []Earned {
	var out []Earned
	for _, t := range e.templates.Snapshot() {
		u := r.View()
		if Has(u, t.ID) || !e.holds(u, ev, t.Conditions) {
			continue
		}

		rec := ir.Achievement{
			ID:          t.ID,
			Source:      ir.SourceAchievement,
			Title:       t.Title,
			Description: t.Description,
			Icon:        t.Icon,
			XPReward:    t.Reward.XP(),
			Rarity:      t.Rarity,
			Category:    t.Category,
			Progress:    1,
			MaxProgress: 1,
			Completed:   true,
			CompletedAt: r.Now(),
			Completions: 1,
		}
		r.RecordCompletion(rec)

		var applied reward.Applied
		if e.rewards != nil {
			applied = e.rewards.Apply(r, t.Reward)
		}
		out = append(out, Earned{Template: t, Record: rec, Reward: applied})
	}
	return out
}

// holds reports whether every condition is true. A template without
// conditions holds on the first event.
func (e *Evaluator) holds(u ir.User, ev ir.Event, conds []ir.AchievementCondition) bool {
	for _, c := range conds {
		if !e.holdsOne(u, ev, c) {
			return false
		}
	}
	return true
}

func (e *Evaluator) holdsOne(u ir.User, ev ir.Event, c ir.AchievementCondition) bool {
	switch c.Kind {
	case ir.ConditionXPThreshold:
		return c.Operator.Compare(float64(u.XP), c.Value)

	case ir.ConditionBadgeCount:
		return c.Operator.Compare(float64(len(u.Badges)), c.Value)

	case ir.ConditionStreakDuration:
		kind := ir.StreakKind(c.Metadata[ir.MetaStreakType])
		if kind == "" {
			kind = ir.StreakDaily
		}
		s, ok := u.Streak(kind)
		if !ok {
			return false
		}
		return c.Operator.Compare(float64(s.CurrentCount), c.Value)

	case ir.ConditionEventCount:
		n := u.EventCount(c.Metadata[ir.MetaEventType])
		return c.Operator.Compare(float64(n), c.Value)

	case ir.ConditionCustom:
		return e.hooks.AchievementCheck(c.Metadata[ir.MetaPredicate], u, ev)

	default:
		return false
	}
}
