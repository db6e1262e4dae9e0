package ir

import "time"

// Difficulty tags a mission.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyEpic   Difficulty = "epic"
)

// Mission is a goal whose completion grants a reward and a permanent
// completion record.
//
// A mission uses either Objectives (all must complete) or the single
// legacy Goal. When Objectives is non-empty Goal is ignored.
type Mission struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Goal        Goal          `json:"-"`
	Objectives  []Objective   `json:"objectives,omitempty"`
	Reward      Reward        `json:"-"`
	Repeatable  bool          `json:"repeatable"`
	Cooldown    time.Duration `json:"cooldown,omitempty"` // re-arm delay for repeatable missions
	Category    string        `json:"category,omitempty"`
	Difficulty  Difficulty    `json:"difficulty"`
}

// Key returns the catalog key for the mission.
func (m Mission) Key() string { return m.ID }

// Goal is a sealed interface over legacy single-goal variants.
type Goal interface {
	Kind() string
	goal() // Sealed
}

// StreakGoal completes when any streak counter reaches Target.
type StreakGoal struct {
	Target int
}

// XPGoal completes when user XP reaches Target.
type XPGoal struct {
	Target int64
}

// BadgeGoal completes when the user holds at least Target badges.
type BadgeGoal struct {
	Target int
}

// PredicateGoal delegates to a named user predicate from the hooks
// registry. Unregistered names never complete.
type PredicateGoal struct {
	Name string
}

// UnknownGoal is produced for unrecognized goal kinds. It never completes.
type UnknownGoal struct {
	Name string
}

func (StreakGoal) Kind() string    { return "streak" }
func (XPGoal) Kind() string        { return "xp" }
func (BadgeGoal) Kind() string     { return "badge" }
func (PredicateGoal) Kind() string { return "event" }
func (g UnknownGoal) Kind() string { return g.Name }

func (StreakGoal) goal()    {}
func (XPGoal) goal()        {}
func (BadgeGoal) goal()     {}
func (PredicateGoal) goal() {}
func (UnknownGoal) goal()   {}

// ObjectiveKind is one of a closed set of objective kinds.
type ObjectiveKind string

const (
	ObjectiveProfileUpdate  ObjectiveKind = "profile_update"
	ObjectiveAvatarUpload   ObjectiveKind = "avatar_upload"
	ObjectiveLike           ObjectiveKind = "like"
	ObjectiveComment        ObjectiveKind = "comment"
	ObjectiveShare          ObjectiveKind = "share"
	ObjectiveSeasonalAction ObjectiveKind = "seasonal_action"
	ObjectiveTest           ObjectiveKind = "test"
)

// Recognized reports whether k belongs to the closed objective set.
func (k ObjectiveKind) Recognized() bool {
	switch k {
	case ObjectiveProfileUpdate, ObjectiveAvatarUpload, ObjectiveLike,
		ObjectiveComment, ObjectiveShare, ObjectiveSeasonalAction, ObjectiveTest:
		return true
	}
	return false
}

// Objective is one independently tracked part of a mission. Its progress
// counter is the user's count of EventType events.
type Objective struct {
	Kind      ObjectiveKind `json:"kind"`
	EventType string        `json:"event_type"`
	Target    int64         `json:"target"`
}
