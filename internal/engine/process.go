package engine

import (
	"errors"
	"math"

	"github.com/roach88/gamify/internal/achievements"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/missions"
	"github.com/roach88/gamify/internal/notify"
	"github.com/roach88/gamify/internal/reward"
	"github.com/roach88/gamify/internal/store"
)

// Outcome reports everything one event changed.
type Outcome struct {
	Event ir.Event `json:"event"`

	// RuleID is the rule whose reward was applied; empty when none matched.
	RuleID string `json:"rule_id,omitempty"`

	// Reward is what the winning rule's reward changed.
	Reward reward.Applied `json:"-"`

	// XPDelta is the net XP change across the whole event.
	XPDelta  int64 `json:"xp_delta"`
	OldLevel int   `json:"old_level"`
	NewLevel int   `json:"new_level"`

	Missions     []missions.Completion `json:"-"`
	Achievements []achievements.Earned `json:"-"`

	// User is the record after the event.
	User ir.User `json:"user"`
}

// LeveledUp reports whether the event raised the user's level.
func (o Outcome) LeveledUp() bool {
	return o.NewLevel > o.OldLevel
}

// TriggerEvent processes one event for a user and returns what changed.
//
// Fails with ErrCodeUserNotFound for an unknown user and
// ErrCodeInvalidInput for an empty event type. A nil payload is treated
// as empty.
func (e *Engine) TriggerEvent(userID, eventType string, payload ir.Payload) (Outcome, error) {
	if eventType == "" {
		return Outcome{}, invalidInput(userID, "event type must not be empty", nil)
	}

	var out Outcome
	var beforeXP int64
	u, err := e.store.Mutate(userID, func(r *store.Record) error {
		before := r.View()
		beforeXP = before.XP
		out.OldLevel = before.Level

		ev := ir.Event{
			Seq:       e.seq.Next(),
			Type:      eventType,
			UserID:    userID,
			Timestamp: r.Now(),
			Payload:   payload.Clone(),
		}
		if ev.Payload == nil {
			ev.Payload = ir.Payload{}
		}
		out.Event = ev

		if xp, ok := ev.Payload.Number(ir.PayloadXP); ok {
			r.AddXP(int64(math.Floor(xp)))
		}
		r.CountEvent(ev.Type)

		if rule, ok := e.rules.Resolve(ev, r.Now()); ok {
			out.RuleID = rule.ID
			out.Reward = e.rewards.Apply(r, rule.Trigger.Reward)
		}

		out.Missions = e.missions.Check(r)
		out.Achievements = e.achievements.Check(r, ev)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return Outcome{}, userNotFound(userID, err)
		}
		return Outcome{}, err
	}

	out.User = u
	out.NewLevel = u.Level
	out.XPDelta = u.XP - beforeXP

	e.analytics.Track(out.Event, out.XPDelta)
	e.publishOutcome(out)

	e.logger.Debug("event processed",
		"user", userID,
		"type", eventType,
		"seq", out.Event.Seq,
		"rule", out.RuleID,
		"missions", len(out.Missions),
		"achievements", len(out.Achievements),
	)
	return out, nil
}

// publishOutcome emits the notifications for one processed event.
// Called without any user lock held.
func (e *Engine) publishOutcome(out Outcome) {
	at := out.Event.Timestamp
	base := notify.Notification{UserID: out.Event.UserID, At: at, Seq: out.Event.Seq}

	processed := base
	processed.Topic = notify.TopicEventProcessed
	processed.EventType = out.Event.Type
	processed.RuleID = out.RuleID
	processed.XPDelta = out.XPDelta
	e.publish(processed)

	if out.LeveledUp() {
		e.publishLevelUp(base, out.OldLevel, out.NewLevel)
	}

	for _, c := range out.Missions {
		n := base
		n.Topic = notify.TopicMissionCompleted
		rec := c.Record
		n.Achievement = &rec
		e.publish(n)
	}

	for _, a := range out.Achievements {
		n := base
		n.Topic = notify.TopicAchievementEarned
		rec := a.Record
		n.Achievement = &rec
		e.publish(n)
	}

	e.publishUser(out.User)
}

func (e *Engine) publishLevelUp(base notify.Notification, oldLevel, newLevel int) {
	n := base
	n.Topic = notify.TopicLevelUp
	n.OldLevel = oldLevel
	n.NewLevel = newLevel
	e.publish(n)
}

func (e *Engine) publishUser(u ir.User) {
	cp := u.Clone()
	e.publish(notify.Notification{
		Topic:  notify.TopicUserUpdated,
		UserID: u.ID,
		At:     u.UpdatedAt,
		User:   &cp,
	})
}

func (e *Engine) publish(n notify.Notification) {
	if err := e.bus.Publish(n); err != nil && !errors.Is(err, notify.ErrBusClosed) {
		e.logger.Error("publish notification", "topic", n.Topic, "error", err)
	}
}
