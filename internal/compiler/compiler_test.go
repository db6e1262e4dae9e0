package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gamify/internal/config"
	"github.com/roach88/gamify/internal/ir"
)

func codes(vs []ValidationError) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Code
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func TestCompile_Nil(t *testing.T) {
	res, errs := Compile(nil)
	assert.Empty(t, errs)
	assert.Empty(t, res.Rules)
}

func TestCompile_Rule(t *testing.T) {
	doc := &config.Document{Rules: []config.RuleDoc{{
		ID:        "combo",
		EventType: "attack",
		Priority:  3,
		Conditions: []config.ConditionDoc{
			{Kind: "threshold", Value: 10},
			{Kind: "combo", Keys: []string{"a", "b"}},
			{Kind: "timeWindow", Window: "5s"},
			{Kind: "duration", Value: 30},
			{Kind: "custom", Predicate: "is-boss"},
		},
		Reward: config.RewardDoc{
			XP:         25,
			Badge:      "Comboist",
			Streak:     "daily",
			Multiplier: 1.5,
			Effects:    []config.EffectDoc{{Name: "confetti", Args: map[string]string{"color": "gold"}}},
		},
	}}}

	res, errs := Compile(doc)
	require.Empty(t, errs)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Rules, 1)

	r := res.Rules[0]
	assert.True(t, r.Enabled, "enabled by default")
	assert.Equal(t, 3, r.Priority)
	assert.Equal(t, "attack", r.Trigger.EventType)
	assert.Equal(t, []ir.Condition{
		ir.ThresholdCondition{Min: 10},
		ir.ComboCondition{Keys: []string{"a", "b"}},
		ir.TimeWindowCondition{Window: 5 * time.Second},
		ir.DurationCondition{Min: 30},
		ir.PredicateCondition{Name: "is-boss"},
	}, r.Trigger.Conditions)
	assert.Equal(t, []ir.Grant{
		ir.XPGrant{Amount: 25},
		ir.BadgeGrant{Name: "Comboist"},
		ir.StreakGrant{Streak: ir.StreakDaily},
		ir.EffectGrant{Name: "confetti", Args: map[string]string{"color": "gold"}},
		ir.MultiplierGrant{Factor: 1.5},
	}, r.Trigger.Reward.Grants)
}

func TestCompile_DisabledRule(t *testing.T) {
	doc := &config.Document{Rules: []config.RuleDoc{{ID: "off", EventType: "x", Enabled: boolPtr(false)}}}
	res, errs := Compile(doc)
	require.Empty(t, errs)
	assert.False(t, res.Rules[0].Enabled)
}

func TestCompile_UnknownKindsWarn(t *testing.T) {
	doc := &config.Document{
		Rules: []config.RuleDoc{{
			ID:         "r",
			EventType:  "x",
			Conditions: []config.ConditionDoc{{Kind: "lunar_phase"}},
			Reward:     config.RewardDoc{Streak: "yearly"},
		}},
		Missions: []config.MissionDoc{{
			ID:         "m",
			Goal:       &config.GoalDoc{Kind: "karma", Target: 1},
			Objectives: []config.ObjectiveDoc{{Kind: "dance", Target: 1}},
			Difficulty: "nightmare",
		}},
		Achievements: []config.AchievementDoc{{
			ID:         "a",
			Rarity:     "mythic",
			Conditions: []config.AchievementConditionDoc{{Kind: "moon", Operator: "roughly"}},
		}},
	}

	res, errs := Compile(doc)
	require.Empty(t, errs)
	assert.ElementsMatch(t, []string{
		WarnUnknownCondition,
		WarnUnknownStreak,
		WarnUnknownDifficulty,
		WarnGoalIgnored,
		WarnUnknownObjective,
		WarnUnknownGoal,
		WarnUnknownRarity,
		WarnUnknownAchievement,
		WarnUnknownOperator,
	}, codes(res.Warnings))

	assert.Equal(t, ir.UnknownCondition{Name: "lunar_phase"}, res.Rules[0].Trigger.Conditions[0])
	assert.Equal(t, ir.UnknownGoal{Name: "karma"}, res.Missions[0].Goal)
	assert.Equal(t, "dance", res.Missions[0].Objectives[0].EventType)
}

func TestCompile_StructuralErrors(t *testing.T) {
	doc := &config.Document{
		Rules: []config.RuleDoc{
			{ID: "", EventType: "x"},
			{ID: "dup", EventType: "x"},
			{ID: "dup", EventType: "y"},
			{ID: "no-type"},
			{ID: "bad-window", EventType: "x", Conditions: []config.ConditionDoc{{Kind: "time_window", Window: "soon"}}},
			{ID: "neg", EventType: "x", Reward: config.RewardDoc{Multiplier: -1}},
			{ID: "anon-effect", EventType: "x", Reward: config.RewardDoc{Effects: []config.EffectDoc{{}}}},
			{ID: "anon-pred", EventType: "x", Conditions: []config.ConditionDoc{{Kind: "custom"}}},
		},
		Missions: []config.MissionDoc{
			{ID: "empty"},
			{ID: "bad-cooldown", Goal: &config.GoalDoc{Kind: "xp", Target: 1}, Cooldown: "0s"},
			{ID: "neg-target", Objectives: []config.ObjectiveDoc{{Kind: "like", Target: -1}}},
		},
		Achievements: []config.AchievementDoc{
			{ID: "custom", Conditions: []config.AchievementConditionDoc{{Kind: "custom"}}},
		},
	}

	res, errs := Compile(doc)
	assert.Equal(t, []string{
		ErrEmptyID,
		ErrDuplicateID,
		ErrEmptyEventType,
		ErrInvalidDuration,
		ErrInvalidMultiplier,
		ErrEmptyEffectName,
		ErrEmptyPredicateName,
		ErrMissionNoGoal,
		ErrInvalidDuration,
		ErrNegativeTarget,
		ErrEmptyPredicateName,
	}, codes(errs))

	require.Len(t, res.Rules, 1, "only the clean rule compiles")
	assert.Equal(t, "dup", res.Rules[0].ID)
	assert.Empty(t, res.Missions)
	assert.Empty(t, res.Achievements)
}

func TestCompile_Mission(t *testing.T) {
	doc := &config.Document{Missions: []config.MissionDoc{{
		ID:         "social",
		Title:      "Be social",
		Objectives: []config.ObjectiveDoc{{Kind: "like", Target: 3}, {Kind: "comment", EventType: "reply", Target: 1}},
		Reward:     config.RewardDoc{XP: 50},
		Repeatable: true,
		Cooldown:   "12h",
		Category:   "social",
		Difficulty: "medium",
	}}}

	res, errs := Compile(doc)
	require.Empty(t, errs)
	require.Len(t, res.Missions, 1)

	m := res.Missions[0]
	assert.Equal(t, 12*time.Hour, m.Cooldown)
	assert.True(t, m.Repeatable)
	assert.Equal(t, ir.DifficultyMedium, m.Difficulty)
	assert.Equal(t, []ir.Objective{
		{Kind: ir.ObjectiveLike, EventType: "like", Target: 3},
		{Kind: ir.ObjectiveComment, EventType: "reply", Target: 1},
	}, m.Objectives)
	assert.Equal(t, int64(50), m.Reward.XP())
}

func TestCompile_Goals(t *testing.T) {
	tests := []struct {
		goal config.GoalDoc
		want ir.Goal
	}{
		{config.GoalDoc{Kind: "xp", Target: 500}, ir.XPGoal{Target: 500}},
		{config.GoalDoc{Kind: "streak", Target: 7}, ir.StreakGoal{Target: 7}},
		{config.GoalDoc{Kind: "badge", Target: 3}, ir.BadgeGoal{Target: 3}},
		{config.GoalDoc{Kind: "event", Predicate: "posted"}, ir.PredicateGoal{Name: "posted"}},
	}
	for _, tt := range tests {
		t.Run(tt.goal.Kind, func(t *testing.T) {
			g := tt.goal
			res, errs := Compile(&config.Document{Missions: []config.MissionDoc{{ID: "m", Goal: &g}}})
			require.Empty(t, errs)
			assert.Equal(t, tt.want, res.Missions[0].Goal)
		})
	}
}

func TestCompile_Achievement(t *testing.T) {
	doc := &config.Document{Achievements: []config.AchievementDoc{{
		ID:    "veteran",
		Title: "Veteran",
		Conditions: []config.AchievementConditionDoc{
			{Kind: "xp_threshold", Value: 1000},
			{Kind: "event_count", Value: 10, Operator: "greater_than", Metadata: map[string]string{"eventType": "login"}},
		},
		Reward: config.RewardDoc{Badge: "Veteran"},
		Secret: true,
	}}}

	res, errs := Compile(doc)
	require.Empty(t, errs)
	require.Len(t, res.Achievements, 1)

	tmpl := res.Achievements[0]
	assert.Equal(t, ir.RarityCommon, tmpl.Rarity)
	assert.True(t, tmpl.Secret)
	require.Len(t, tmpl.Conditions, 2)
	assert.Equal(t, ir.OpGreaterThanOrEqual, tmpl.Conditions[0].Operator, "default operator")
	assert.Equal(t, ir.OpGreaterThan, tmpl.Conditions[1].Operator)
	assert.Equal(t, "login", tmpl.Conditions[1].Metadata[ir.MetaEventType])
}

func TestCompile_Options(t *testing.T) {
	res, errs := Compile(&config.Document{Rules: []config.RuleDoc{{ID: "r", EventType: "x"}}})
	require.Empty(t, errs)
	assert.Len(t, res.Options(), 3)
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "rules[0].id", Code: ErrEmptyID, Message: "id is required"}
	assert.Equal(t, "[E200] rules[0].id: id is required", e.Error())
}
