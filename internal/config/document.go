// Package config loads gamification configuration documents and runtime
// settings.
//
// A Document declares rules, missions and achievement templates in YAML or
// CUE. Documents are plain data; package compiler turns them into engine
// values. Settings are engine knobs that may also come from the
// environment.
package config

// Document is the root of a configuration file.
type Document struct {
	Settings     *SettingsDoc     `yaml:"settings,omitempty" json:"settings,omitempty"`
	Rules        []RuleDoc        `yaml:"rules,omitempty" json:"rules,omitempty"`
	Missions     []MissionDoc     `yaml:"missions,omitempty" json:"missions,omitempty"`
	Achievements []AchievementDoc `yaml:"achievements,omitempty" json:"achievements,omitempty"`
}

// SettingsDoc holds engine settings as written in a file. Durations are Go
// duration strings such as "24h".
type SettingsDoc struct {
	Debug            bool   `yaml:"debug,omitempty" json:"debug,omitempty"`
	StreakWindow     string `yaml:"streak_window,omitempty" json:"streak_window,omitempty"`
	LeaderboardLimit int    `yaml:"leaderboard_limit,omitempty" json:"leaderboard_limit,omitempty"`
	MissionCooldown  string `yaml:"mission_cooldown,omitempty" json:"mission_cooldown,omitempty"`
}

// RuleDoc declares a rule. Enabled defaults to true.
type RuleDoc struct {
	ID         string            `yaml:"id" json:"id"`
	EventType  string            `yaml:"event_type" json:"event_type"`
	Priority   int               `yaml:"priority,omitempty" json:"priority,omitempty"`
	Enabled    *bool             `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Conditions []ConditionDoc    `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Reward     RewardDoc         `yaml:"reward,omitempty" json:"reward,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// ConditionDoc declares a trigger condition. Which fields apply depends on
// Kind:
//
//	threshold   value (minimum payload "value")
//	combo       keys
//	time_window window (duration string)
//	duration    value (minimum payload "duration")
//	custom      predicate
type ConditionDoc struct {
	Kind      string   `yaml:"kind" json:"kind"`
	Value     float64  `yaml:"value,omitempty" json:"value,omitempty"`
	Keys      []string `yaml:"keys,omitempty" json:"keys,omitempty"`
	Window    string   `yaml:"window,omitempty" json:"window,omitempty"`
	Predicate string   `yaml:"predicate,omitempty" json:"predicate,omitempty"`
}

// RewardDoc declares a reward. Every set field becomes one grant.
type RewardDoc struct {
	XP         int64       `yaml:"xp,omitempty" json:"xp,omitempty"`
	Badge      string      `yaml:"badge,omitempty" json:"badge,omitempty"`
	Streak     string      `yaml:"streak,omitempty" json:"streak,omitempty"`
	Multiplier float64     `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	Effects    []EffectDoc `yaml:"effects,omitempty" json:"effects,omitempty"`
}

// EffectDoc names a registered reward effect.
type EffectDoc struct {
	Name string            `yaml:"name" json:"name"`
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// MissionDoc declares a mission with either a goal or objectives.
type MissionDoc struct {
	ID          string         `yaml:"id" json:"id"`
	Title       string         `yaml:"title,omitempty" json:"title,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Goal        *GoalDoc       `yaml:"goal,omitempty" json:"goal,omitempty"`
	Objectives  []ObjectiveDoc `yaml:"objectives,omitempty" json:"objectives,omitempty"`
	Reward      RewardDoc      `yaml:"reward,omitempty" json:"reward,omitempty"`
	Repeatable  bool           `yaml:"repeatable,omitempty" json:"repeatable,omitempty"`
	Cooldown    string         `yaml:"cooldown,omitempty" json:"cooldown,omitempty"`
	Category    string         `yaml:"category,omitempty" json:"category,omitempty"`
	Difficulty  string         `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// GoalDoc declares a legacy single goal: kind streak, xp, badge or event.
// Event goals name a predicate.
type GoalDoc struct {
	Kind      string `yaml:"kind" json:"kind"`
	Target    int64  `yaml:"target,omitempty" json:"target,omitempty"`
	Predicate string `yaml:"predicate,omitempty" json:"predicate,omitempty"`
}

// ObjectiveDoc declares one mission objective. EventType defaults to Kind.
type ObjectiveDoc struct {
	Kind      string `yaml:"kind" json:"kind"`
	EventType string `yaml:"event_type,omitempty" json:"event_type,omitempty"`
	Target    int64  `yaml:"target,omitempty" json:"target,omitempty"`
}

// AchievementDoc declares an achievement template.
type AchievementDoc struct {
	ID          string                    `yaml:"id" json:"id"`
	Title       string                    `yaml:"title,omitempty" json:"title,omitempty"`
	Description string                    `yaml:"description,omitempty" json:"description,omitempty"`
	Conditions  []AchievementConditionDoc `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Reward      RewardDoc                 `yaml:"reward,omitempty" json:"reward,omitempty"`
	Rarity      string                    `yaml:"rarity,omitempty" json:"rarity,omitempty"`
	Category    string                    `yaml:"category,omitempty" json:"category,omitempty"`
	Icon        string                    `yaml:"icon,omitempty" json:"icon,omitempty"`
	Secret      bool                      `yaml:"secret,omitempty" json:"secret,omitempty"`
}

// AchievementConditionDoc declares one achievement condition.
// Operator defaults to greater_than_or_equal.
type AchievementConditionDoc struct {
	Kind     string            `yaml:"kind" json:"kind"`
	Value    float64           `yaml:"value,omitempty" json:"value,omitempty"`
	Operator string            `yaml:"operator,omitempty" json:"operator,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}
