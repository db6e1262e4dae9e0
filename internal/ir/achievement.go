package ir

// AchievementTemplate is a multi-condition milestone. A user earns it once,
// the first time every condition holds at the same moment.
type AchievementTemplate struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Conditions  []AchievementCondition `json:"conditions"`
	Reward      Reward                 `json:"-"`
	Rarity      Rarity                 `json:"rarity"`
	Category    string                 `json:"category"`
	Icon        string                 `json:"icon,omitempty"`
	Secret      bool                   `json:"secret,omitempty"`
}

// Key returns the catalog key for the template.
func (t AchievementTemplate) Key() string { return t.ID }

// ConditionKind names what an achievement condition measures.
type ConditionKind string

const (
	ConditionXPThreshold    ConditionKind = "xp_threshold"
	ConditionBadgeCount     ConditionKind = "badge_count"
	ConditionStreakDuration ConditionKind = "streak_duration"
	ConditionEventCount     ConditionKind = "event_count"
	ConditionCustom         ConditionKind = "custom"
)

// Operator compares a measured value against a condition's value.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
)

// Compare applies the operator. Unknown operators never hold.
func (op Operator) Compare(actual, want float64) bool {
	switch op {
	case OpEquals:
		return actual == want
	case OpGreaterThan:
		return actual > want
	case OpLessThan:
		return actual < want
	case OpGreaterThanOrEqual:
		return actual >= want
	default:
		return false
	}
}

// Metadata keys read by achievement conditions.
const (
	MetaStreakType = "streakType" // streak_duration: streak kind, default daily
	MetaEventType  = "eventType"  // event_count: event type, empty counts all
	MetaPredicate  = "predicate"  // custom: hooks registry predicate name
)

// AchievementCondition is one AND-ed clause of a template.
type AchievementCondition struct {
	Kind     ConditionKind     `json:"kind"`
	Value    float64           `json:"value"`
	Operator Operator          `json:"operator"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AchievementStats summarizes a user's earned achievements.
type AchievementStats struct {
	Total    int            `json:"total"`
	Earned   int            `json:"earned"`
	Progress float64        `json:"progress"` // percent of templates earned
	ByRarity map[Rarity]int `json:"by_rarity"`
}
