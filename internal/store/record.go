package store

import (
	"math"
	"time"

	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/levels"
)

// Record is a locked user handed to a Mutate callback.
//
// A Record is only valid inside the callback that received it.
type Record struct {
	store *Store
	user  *ir.User
	now   time.Time
}

// Now is the wall time captured when the mutation started.
func (r *Record) Now() time.Time {
	return r.now
}

// View returns the current state with the level brought up to date.
// Slices and maps in the result are shared with the record: read only.
func (r *Record) View() ir.User {
	r.settleLevel()
	return *r.user
}

// Snapshot returns a deep copy of the current state.
func (r *Record) Snapshot() ir.User {
	r.settleLevel()
	return r.user.Clone()
}

// User exposes the record for named reward effects, which may write any
// field. Level and the XP floor are restored when the mutation ends.
func (r *Record) User() *ir.User {
	return r.user
}

// AddXP adds delta (which may be negative) and recomputes the level.
// XP is floored at zero.
func (r *Record) AddXP(delta int64) {
	r.user.XP += delta
	r.settleLevel()
}

// ScaleXP multiplies the current XP by factor and floors the result.
// A factor below 1 reduces XP.
func (r *Record) ScaleXP(factor float64) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	r.user.XP = int64(math.Floor(float64(r.user.XP) * factor))
	r.settleLevel()
}

// AddBadge appends b unless a badge with the same ID is already held.
// Reports whether the badge was added.
func (r *Record) AddBadge(b ir.Badge) bool {
	if b.ID == "" {
		b.ID = r.store.ids.Generate()
	}
	if r.user.HasBadge(b.ID) {
		return false
	}
	if b.EarnedAt.IsZero() {
		b.EarnedAt = r.now
	}
	if b.Rarity == "" {
		b.Rarity = ir.RarityCommon
	}
	r.user.Badges = append(r.user.Badges, b)
	return true
}

// UpdateStreak records activity on the streak of the given kind and
// returns the updated counter. Invalid kinds are ignored.
//
// A new counter starts empty and is then updated like any other: within
// the window the count grows and the multiplier becomes 1 + 0.1*count;
// past the window the count resets to 1 and the multiplier to 1.
func (r *Record) UpdateStreak(kind ir.StreakKind) ir.Streak {
	if !kind.Valid() {
		return ir.Streak{}
	}

	idx := -1
	for i := range r.user.Streaks {
		if r.user.Streaks[i].Kind == kind {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.user.Streaks = append(r.user.Streaks, ir.Streak{
			ID:           r.store.ids.Generate(),
			Kind:         kind,
			LastActivity: r.now,
			Multiplier:   1,
		})
		idx = len(r.user.Streaks) - 1
	}

	st := &r.user.Streaks[idx]
	if r.now.Sub(st.LastActivity) <= r.store.window {
		st.CurrentCount++
		if st.CurrentCount > st.MaxCount {
			st.MaxCount = st.CurrentCount
		}
		st.Multiplier = 1 + 0.1*float64(st.CurrentCount)
	} else {
		st.CurrentCount = 1
		st.Multiplier = 1
	}
	st.LastActivity = r.now
	return *st
}

// CountEvent increments the user's counter for an event type.
func (r *Record) CountEvent(eventType string) {
	if r.user.EventCounts == nil {
		r.user.EventCounts = make(map[string]int64)
	}
	r.user.EventCounts[eventType]++
}

// RecordCompletion stores a completion record, replacing any record with
// the same (Source, ID).
func (r *Record) RecordCompletion(a ir.Achievement) {
	for i := range r.user.Achievements {
		cur := r.user.Achievements[i]
		if cur.Source == a.Source && cur.ID == a.ID {
			r.user.Achievements[i] = a
			return
		}
	}
	r.user.Achievements = append(r.user.Achievements, a)
}

func (r *Record) settleLevel() {
	if r.user.XP < 0 {
		r.user.XP = 0
	}
	r.user.Level = levels.LevelForXP(r.user.XP)
}

func (r *Record) settle() {
	r.settleLevel()
	r.user.UpdatedAt = r.now
}
