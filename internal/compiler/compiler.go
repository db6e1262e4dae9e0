// Package compiler turns configuration documents into engine values.
//
// Compile never stops at the first problem: it returns every structural
// error and every warning it finds. Unknown kinds are warnings and compile
// to variants that never hold, so a document written for a newer engine
// still loads.
package compiler

import (
	"fmt"
	"time"

	"github.com/roach88/gamify/internal/config"
	"github.com/roach88/gamify/internal/engine"
	"github.com/roach88/gamify/internal/ir"
)

// Result holds the compiled values of a document.
type Result struct {
	Rules        []ir.Rule
	Missions     []ir.Mission
	Achievements []ir.AchievementTemplate

	// Warnings lists non-fatal findings.
	Warnings []ValidationError
}

// Options registers the compiled values with a new engine.
func (r *Result) Options() []engine.Option {
	return []engine.Option{
		engine.WithRules(r.Rules...),
		engine.WithMissions(r.Missions...),
		engine.WithAchievements(r.Achievements...),
	}
}

// Compile converts doc. The returned errors are structural; when any are
// present the result holds only the items that compiled cleanly.
func Compile(doc *config.Document) (*Result, []ValidationError) {
	res := &Result{}
	if doc == nil {
		return res, nil
	}
	c := &collector{}

	seen := make(map[string]bool)
	for i, rd := range doc.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if !checkID(c, field, rd.ID, seen) {
			continue
		}
		before := len(c.errs)
		r := compileRule(c, field, rd)
		if len(c.errs) == before {
			res.Rules = append(res.Rules, r)
		}
	}

	seen = make(map[string]bool)
	for i, md := range doc.Missions {
		field := fmt.Sprintf("missions[%d]", i)
		if !checkID(c, field, md.ID, seen) {
			continue
		}
		before := len(c.errs)
		m := compileMission(c, field, md)
		if len(c.errs) == before {
			res.Missions = append(res.Missions, m)
		}
	}

	seen = make(map[string]bool)
	for i, ad := range doc.Achievements {
		field := fmt.Sprintf("achievements[%d]", i)
		if !checkID(c, field, ad.ID, seen) {
			continue
		}
		before := len(c.errs)
		t := compileAchievement(c, field, ad)
		if len(c.errs) == before {
			res.Achievements = append(res.Achievements, t)
		}
	}

	res.Warnings = c.warns
	return res, c.errs
}

func checkID(c *collector, field, id string, seen map[string]bool) bool {
	if id == "" {
		c.errorf(field+".id", ErrEmptyID, "id is required")
		return false
	}
	if seen[id] {
		c.errorf(field+".id", ErrDuplicateID, "duplicate id %q", id)
		return false
	}
	seen[id] = true
	return true
}

func compileRule(c *collector, field string, rd config.RuleDoc) ir.Rule {
	if rd.EventType == "" {
		c.errorf(field+".event_type", ErrEmptyEventType, "event type is required")
	}

	enabled := true
	if rd.Enabled != nil {
		enabled = *rd.Enabled
	}

	conds := make([]ir.Condition, 0, len(rd.Conditions))
	for i, cd := range rd.Conditions {
		conds = append(conds, compileCondition(c, fmt.Sprintf("%s.conditions[%d]", field, i), cd))
	}

	return ir.Rule{
		ID:       rd.ID,
		Enabled:  enabled,
		Priority: rd.Priority,
		Metadata: rd.Metadata,
		Trigger: ir.Trigger{
			EventType:  rd.EventType,
			Conditions: conds,
			Reward:     compileReward(c, field+".reward", rd.Reward),
		},
	}
}

func compileCondition(c *collector, field string, cd config.ConditionDoc) ir.Condition {
	switch cd.Kind {
	case "threshold":
		return ir.ThresholdCondition{Min: cd.Value}
	case "combo":
		return ir.ComboCondition{Keys: append([]string(nil), cd.Keys...)}
	case "time_window", "timeWindow":
		d, ok := parseDuration(c, field+".window", cd.Window)
		if !ok {
			return ir.UnknownCondition{Name: cd.Kind}
		}
		return ir.TimeWindowCondition{Window: d}
	case "duration":
		return ir.DurationCondition{Min: cd.Value}
	case "custom", "predicate":
		if cd.Predicate == "" {
			c.errorf(field+".predicate", ErrEmptyPredicateName, "custom condition needs a predicate name")
		}
		return ir.PredicateCondition{Name: cd.Predicate}
	default:
		c.warnf(field+".kind", WarnUnknownCondition, "unknown condition kind %q never holds", cd.Kind)
		return ir.UnknownCondition{Name: cd.Kind}
	}
}

func compileReward(c *collector, field string, rd config.RewardDoc) ir.Reward {
	var grants []ir.Grant
	if rd.XP != 0 {
		grants = append(grants, ir.XPGrant{Amount: rd.XP})
	}
	if rd.Badge != "" {
		grants = append(grants, ir.BadgeGrant{Name: rd.Badge})
	}
	if rd.Streak != "" {
		kind := ir.StreakKind(rd.Streak)
		if !kind.Valid() {
			c.warnf(field+".streak", WarnUnknownStreak, "unknown streak kind %q is skipped", rd.Streak)
		}
		grants = append(grants, ir.StreakGrant{Streak: kind})
	}
	for i, ed := range rd.Effects {
		if ed.Name == "" {
			c.errorf(fmt.Sprintf("%s.effects[%d].name", field, i), ErrEmptyEffectName, "effect name is required")
			continue
		}
		grants = append(grants, ir.EffectGrant{Name: ed.Name, Args: ed.Args})
	}
	switch {
	case rd.Multiplier < 0:
		c.errorf(field+".multiplier", ErrInvalidMultiplier, "multiplier must not be negative, got %g", rd.Multiplier)
	case rd.Multiplier > 0:
		grants = append(grants, ir.MultiplierGrant{Factor: rd.Multiplier})
	}
	return ir.Reward{Grants: grants}
}

func compileMission(c *collector, field string, md config.MissionDoc) ir.Mission {
	m := ir.Mission{
		ID:          md.ID,
		Title:       md.Title,
		Description: md.Description,
		Repeatable:  md.Repeatable,
		Category:    md.Category,
		Difficulty:  ir.Difficulty(md.Difficulty),
		Reward:      compileReward(c, field+".reward", md.Reward),
	}

	switch m.Difficulty {
	case "", ir.DifficultyEasy, ir.DifficultyMedium, ir.DifficultyHard, ir.DifficultyEpic:
	default:
		c.warnf(field+".difficulty", WarnUnknownDifficulty, "unknown difficulty %q", md.Difficulty)
	}

	if md.Cooldown != "" {
		if d, ok := parseDuration(c, field+".cooldown", md.Cooldown); ok {
			m.Cooldown = d
		}
	}

	if md.Goal == nil && len(md.Objectives) == 0 {
		c.errorf(field, ErrMissionNoGoal, "mission needs a goal or objectives")
		return m
	}
	if md.Goal != nil && len(md.Objectives) > 0 {
		c.warnf(field+".goal", WarnGoalIgnored, "goal is ignored when objectives are present")
	}

	for i, od := range md.Objectives {
		of := fmt.Sprintf("%s.objectives[%d]", field, i)
		kind := ir.ObjectiveKind(od.Kind)
		if !kind.Recognized() {
			c.warnf(of+".kind", WarnUnknownObjective, "unknown objective kind %q never completes", od.Kind)
		}
		if od.Target < 0 {
			c.errorf(of+".target", ErrNegativeTarget, "target must not be negative")
		}
		eventType := od.EventType
		if eventType == "" {
			eventType = od.Kind
		}
		m.Objectives = append(m.Objectives, ir.Objective{Kind: kind, EventType: eventType, Target: od.Target})
	}

	if md.Goal != nil {
		m.Goal = compileGoal(c, field+".goal", *md.Goal)
	}
	return m
}

func compileGoal(c *collector, field string, gd config.GoalDoc) ir.Goal {
	if gd.Target < 0 {
		c.errorf(field+".target", ErrNegativeTarget, "target must not be negative")
	}
	switch gd.Kind {
	case "xp":
		return ir.XPGoal{Target: gd.Target}
	case "streak":
		return ir.StreakGoal{Target: int(gd.Target)}
	case "badge":
		return ir.BadgeGoal{Target: int(gd.Target)}
	case "event", "custom":
		if gd.Predicate == "" {
			c.errorf(field+".predicate", ErrEmptyPredicateName, "event goal needs a predicate name")
		}
		return ir.PredicateGoal{Name: gd.Predicate}
	default:
		c.warnf(field+".kind", WarnUnknownGoal, "unknown goal kind %q never completes", gd.Kind)
		return ir.UnknownGoal{Name: gd.Kind}
	}
}

func compileAchievement(c *collector, field string, ad config.AchievementDoc) ir.AchievementTemplate {
	t := ir.AchievementTemplate{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		Reward:      compileReward(c, field+".reward", ad.Reward),
		Rarity:      ir.Rarity(ad.Rarity),
		Category:    ad.Category,
		Icon:        ad.Icon,
		Secret:      ad.Secret,
	}

	switch t.Rarity {
	case "":
		t.Rarity = ir.RarityCommon
	case ir.RarityCommon, ir.RarityUncommon, ir.RarityRare, ir.RarityEpic, ir.RarityLegendary:
	default:
		c.warnf(field+".rarity", WarnUnknownRarity, "unknown rarity %q", ad.Rarity)
	}

	for i, cd := range ad.Conditions {
		cf := fmt.Sprintf("%s.conditions[%d]", field, i)
		kind := ir.ConditionKind(cd.Kind)
		switch kind {
		case ir.ConditionXPThreshold, ir.ConditionBadgeCount, ir.ConditionStreakDuration, ir.ConditionEventCount:
		case ir.ConditionCustom:
			if cd.Metadata[ir.MetaPredicate] == "" {
				c.errorf(cf+".metadata", ErrEmptyPredicateName, "custom condition needs metadata.%s", ir.MetaPredicate)
			}
		default:
			c.warnf(cf+".kind", WarnUnknownAchievement, "unknown condition kind %q never holds", cd.Kind)
		}

		op := ir.Operator(cd.Operator)
		switch op {
		case "":
			op = ir.OpGreaterThanOrEqual
		case ir.OpEquals, ir.OpGreaterThan, ir.OpLessThan, ir.OpGreaterThanOrEqual:
		default:
			c.warnf(cf+".operator", WarnUnknownOperator, "unknown operator %q never holds", cd.Operator)
		}

		t.Conditions = append(t.Conditions, ir.AchievementCondition{
			Kind:     kind,
			Value:    cd.Value,
			Operator: op,
			Metadata: cd.Metadata,
		})
	}
	return t
}

func parseDuration(c *collector, field, raw string) (time.Duration, bool) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.errorf(field, ErrInvalidDuration, "invalid duration %q: %v", raw, err)
		return 0, false
	}
	if d <= 0 {
		c.errorf(field, ErrInvalidDuration, "duration must be positive, got %s", raw)
		return 0, false
	}
	return d, true
}
