package ir

import "time"

// Rarity classifies badges and achievements.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// StreakKind names one of the streak counters a user can hold.
type StreakKind string

const (
	StreakDaily   StreakKind = "daily"
	StreakWeekly  StreakKind = "weekly"
	StreakMonthly StreakKind = "monthly"
)

// Valid reports whether k is one of the three streak kinds.
func (k StreakKind) Valid() bool {
	switch k {
	case StreakDaily, StreakWeekly, StreakMonthly:
		return true
	}
	return false
}

// User is a user's progression record.
//
// Level always equals the level implied by XP under the level curve once a
// mutation has completed.
type User struct {
	ID           string           `json:"id"`
	Name         string           `json:"name,omitempty"`
	Email        string           `json:"email,omitempty"`
	XP           int64            `json:"xp"`
	Level        int              `json:"level"`
	Badges       []Badge          `json:"badges"`
	Streaks      []Streak         `json:"streaks"`
	Achievements []Achievement    `json:"achievements"`
	EventCounts  map[string]int64 `json:"event_counts,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Badge is an earned badge. Badges are unique by ID within a user.
type Badge struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Category    string            `json:"category,omitempty"`
	Rarity      Rarity            `json:"rarity"`
	EarnedAt    time.Time         `json:"earned_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Streak is a per-kind activity counter.
type Streak struct {
	ID           string     `json:"id"`
	Kind         StreakKind `json:"kind"`
	CurrentCount int        `json:"current_count"`
	MaxCount     int        `json:"max_count"`
	LastActivity time.Time  `json:"last_activity"`
	Multiplier   float64    `json:"multiplier"`
}

// AchievementSource tells which evaluator produced a completion record.
type AchievementSource string

const (
	SourceMission     AchievementSource = "mission"
	SourceAchievement AchievementSource = "achievement"
)

// Achievement is a permanent completion record for a mission or an earned
// achievement template. Records are unique by (Source, ID).
type Achievement struct {
	ID          string            `json:"id"`
	Source      AchievementSource `json:"source"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	XPReward    int64             `json:"xp_reward"`
	Rarity      Rarity            `json:"rarity,omitempty"`
	Category    string            `json:"category,omitempty"`
	Progress    float64           `json:"progress"`
	MaxProgress float64           `json:"max_progress"`
	Completed   bool              `json:"completed"`
	CompletedAt time.Time         `json:"completed_at"`
	Completions int               `json:"completions"`
}

// Clone returns a deep copy of the user so callers outside the store can
// never alias store-owned slices or maps.
func (u User) Clone() User {
	cp := u
	cp.Badges = append([]Badge(nil), u.Badges...)
	for i := range cp.Badges {
		cp.Badges[i].Metadata = cloneStrings(u.Badges[i].Metadata)
	}
	cp.Streaks = append([]Streak(nil), u.Streaks...)
	cp.Achievements = append([]Achievement(nil), u.Achievements...)
	if u.EventCounts != nil {
		cp.EventCounts = make(map[string]int64, len(u.EventCounts))
		for k, v := range u.EventCounts {
			cp.EventCounts[k] = v
		}
	}
	return cp
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// HasBadge reports whether the user holds a badge with the given ID.
func (u *User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Streak returns the user's counter of the given kind, if any.
func (u *User) Streak(kind StreakKind) (Streak, bool) {
	for _, s := range u.Streaks {
		if s.Kind == kind {
			return s, true
		}
	}
	return Streak{}, false
}

// MaxStreakCount returns the highest current count across all streaks.
func (u *User) MaxStreakCount() int {
	best := 0
	for _, s := range u.Streaks {
		if s.CurrentCount > best {
			best = s.CurrentCount
		}
	}
	return best
}

// Completion returns the completion record for (source, id), if any.
func (u *User) Completion(source AchievementSource, id string) (Achievement, bool) {
	for _, a := range u.Achievements {
		if a.Source == source && a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// EventCount returns how many events of the given type the user has
// produced. An empty type counts every event.
func (u *User) EventCount(eventType string) int64 {
	if eventType != "" {
		return u.EventCounts[eventType]
	}
	var total int64
	for _, n := range u.EventCounts {
		total += n
	}
	return total
}

// LeaderboardEntry is one row of an XP leaderboard.
type LeaderboardEntry struct {
	UserID   string  `json:"user_id"`
	UserName string  `json:"user_name,omitempty"`
	Score    int64   `json:"score"`
	Rank     int     `json:"rank"`
	Level    int     `json:"level"`
	Badges   []Badge `json:"badges"`
}

// LevelProgress reports the XP span bounding a user's level.
type LevelProgress struct {
	Current  int64   `json:"current"`
	Next     int64   `json:"next"`
	Progress float64 `json:"progress"`
}
