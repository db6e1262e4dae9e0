package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/gamify/internal/achievements"
	"github.com/roach88/gamify/internal/analytics"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/notify"
	"github.com/roach88/gamify/internal/plugin"
	"github.com/roach88/gamify/internal/store"
)

// ==================== USERS ====================

// CreateUser registers a new user. Fails with ErrCodeDuplicateUser if the
// id is taken.
func (e *Engine) CreateUser(id, name, email string) (ir.User, error) {
	if id == "" {
		return ir.User{}, invalidInput("", "user id must not be empty", nil)
	}
	u, err := e.store.CreateUser(id, name, email)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return ir.User{}, &Error{
				Code:    ErrCodeDuplicateUser,
				Message: "user already exists",
				UserID:  id,
				Err:     err,
			}
		}
		return ir.User{}, err
	}
	e.logger.Debug("created user", "user", id)
	e.publishUser(u)
	return u, nil
}

// GetUser returns a copy of a user. Unknown ids report false.
func (e *Engine) GetUser(id string) (ir.User, bool) {
	return e.store.GetUser(id)
}

// Users returns every user in creation order.
func (e *Engine) Users() []ir.User {
	return e.store.Users()
}

// UpdateUser changes a user's name or email.
func (e *Engine) UpdateUser(id string, p store.Profile) (ir.User, error) {
	u, err := e.store.UpdateUser(id, p)
	if err != nil {
		return ir.User{}, e.wrapStoreErr(id, err)
	}
	e.publishUser(u)
	return u, nil
}

// AddXP adds XP to a user outside of event processing.
func (e *Engine) AddXP(id string, amount int64) (ir.User, error) {
	return e.mutate(id, func(r *store.Record) { r.AddXP(amount) })
}

// AddBadge gives a user a badge. Already-held badges are left alone.
func (e *Engine) AddBadge(id string, b ir.Badge) (ir.User, error) {
	return e.mutate(id, func(r *store.Record) { r.AddBadge(b) })
}

// UpdateStreak records activity on a user's streak.
func (e *Engine) UpdateStreak(id string, kind ir.StreakKind) (ir.User, error) {
	if !kind.Valid() {
		return ir.User{}, invalidInput(id, fmt.Sprintf("invalid streak kind %q", kind), store.ErrInvalidStreakKind)
	}
	return e.mutate(id, func(r *store.Record) { r.UpdateStreak(kind) })
}

// LevelProgress reports the XP span bounding the user's level.
func (e *Engine) LevelProgress(u ir.User) ir.LevelProgress {
	return store.LevelProgress(u)
}

// Leaderboard returns the top users by XP. A zero limit uses the
// configured default; a negative limit returns everyone.
func (e *Engine) Leaderboard(limit int) []ir.LeaderboardEntry {
	if limit == 0 {
		limit = e.leaderboardLimit
	}
	return e.store.Leaderboard(limit)
}

// mutate runs a direct progression operation and publishes the level-up
// and user notifications it causes.
func (e *Engine) mutate(id string, fn func(*store.Record)) (ir.User, error) {
	var oldLevel int
	u, err := e.store.Mutate(id, func(r *store.Record) error {
		oldLevel = r.View().Level
		fn(r)
		return nil
	})
	if err != nil {
		return ir.User{}, e.wrapStoreErr(id, err)
	}
	if u.Level > oldLevel {
		base := notify.Notification{UserID: id, At: u.UpdatedAt}
		e.publishLevelUp(base, oldLevel, u.Level)
	}
	e.publishUser(u)
	return u, nil
}

func (e *Engine) wrapStoreErr(id string, err error) error {
	if errors.Is(err, store.ErrUserNotFound) {
		return userNotFound(id, err)
	}
	return err
}

// ==================== RULES ====================

// AddRule registers a rule, replacing any rule with the same id.
func (e *Engine) AddRule(r ir.Rule) {
	if e.rules.Add(r) {
		e.logger.Debug("replaced rule", "rule", r.ID)
	}
}

// RemoveRule deletes a rule.
func (e *Engine) RemoveRule(id string) bool {
	return e.rules.Remove(id)
}

// Rules returns every rule in registration order.
func (e *Engine) Rules() []ir.Rule {
	return e.rules.List()
}

// Rule returns one rule.
func (e *Engine) Rule(id string) (ir.Rule, bool) {
	return e.rules.Get(id)
}

// HasRule reports whether a rule exists.
func (e *Engine) HasRule(id string) bool {
	return e.rules.Has(id)
}

// RuleCount returns the number of rules.
func (e *Engine) RuleCount() int {
	return e.rules.Count()
}

// EnabledRuleCount returns the number of enabled rules.
func (e *Engine) EnabledRuleCount() int {
	return e.rules.EnabledCount()
}

// RulesByEventType returns every rule triggered by an event type.
func (e *Engine) RulesByEventType(eventType string) []ir.Rule {
	return e.rules.ByEventType(eventType)
}

// ApplicableRules returns the enabled rules for an event type in
// resolution order.
func (e *Engine) ApplicableRules(eventType string) []ir.Rule {
	return e.rules.Applicable(eventType)
}

// EnableRule turns a rule on.
func (e *Engine) EnableRule(id string) bool {
	return e.rules.Enable(id)
}

// DisableRule turns a rule off without removing it.
func (e *Engine) DisableRule(id string) bool {
	return e.rules.Disable(id)
}

// SetRulePriority re-prioritizes a rule.
func (e *Engine) SetRulePriority(id string, priority int) bool {
	return e.rules.SetPriority(id, priority)
}

// ==================== MISSIONS ====================

// AddMission registers a mission, replacing any mission with the same id.
func (e *Engine) AddMission(m ir.Mission) {
	e.missions.Add(m)
}

// RemoveMission deletes a mission.
func (e *Engine) RemoveMission(id string) bool {
	return e.missions.Remove(id)
}

// Missions returns every mission in registration order.
func (e *Engine) Missions() []ir.Mission {
	return e.missions.List()
}

// Mission returns one mission.
func (e *Engine) Mission(id string) (ir.Mission, bool) {
	return e.missions.Get(id)
}

// MissionsByCategory returns the missions in a category.
func (e *Engine) MissionsByCategory(category string) []ir.Mission {
	return e.missions.ByCategory(category)
}

// MissionsByDifficulty returns the missions with a difficulty tag.
func (e *Engine) MissionsByDifficulty(d ir.Difficulty) []ir.Mission {
	return e.missions.ByDifficulty(d)
}

// IsMissionCompleted reports whether a user has completed a mission.
// Unknown users report false.
func (e *Engine) IsMissionCompleted(userID, missionID string) bool {
	u, ok := e.store.GetUser(userID)
	return ok && e.missions.IsCompleted(u, missionID)
}

// AvailableMissions returns the missions a user can still complete.
// Unknown users have none.
func (e *Engine) AvailableMissions(userID string) []ir.Mission {
	u, ok := e.store.GetUser(userID)
	if !ok {
		return nil
	}
	return e.missions.Available(u, e.clock.Now())
}

// CompletedMissions returns the missions a user has completed.
func (e *Engine) CompletedMissions(userID string) []ir.Mission {
	u, ok := e.store.GetUser(userID)
	if !ok {
		return nil
	}
	return e.missions.Completed(u)
}

// MissionProgress returns a user's progress on a mission in [0,1].
// Unknown users or missions report 0.
func (e *Engine) MissionProgress(userID, missionID string) float64 {
	u, ok := e.store.GetUser(userID)
	if !ok {
		return 0
	}
	return e.missions.Progress(u, missionID)
}

// ==================== ACHIEVEMENTS ====================

// RegisterAchievement registers a template, replacing any template with
// the same id.
func (e *Engine) RegisterAchievement(t ir.AchievementTemplate) {
	e.achievements.Register(t)
}

// RemoveAchievement deletes a template. Earned achievements stay.
func (e *Engine) RemoveAchievement(id string) bool {
	return e.achievements.Remove(id)
}

// AchievementTemplates returns every template in registration order.
func (e *Engine) AchievementTemplates() []ir.AchievementTemplate {
	return e.achievements.Templates()
}

// AchievementTemplate returns one template.
func (e *Engine) AchievementTemplate(id string) (ir.AchievementTemplate, bool) {
	return e.achievements.Template(id)
}

// VisibleAchievements returns the templates a user may see.
func (e *Engine) VisibleAchievements(userID string) []ir.AchievementTemplate {
	u, _ := e.store.GetUser(userID)
	return e.achievements.Visible(u)
}

// HasAchievement reports whether a user has earned an achievement.
func (e *Engine) HasAchievement(userID, id string) bool {
	u, ok := e.store.GetUser(userID)
	return ok && achievements.Has(u, id)
}

// UserAchievements returns a user's earned achievements. Unknown users
// have none.
func (e *Engine) UserAchievements(userID string) []ir.Achievement {
	u, ok := e.store.GetUser(userID)
	if !ok {
		return nil
	}
	return achievements.UserAchievements(u)
}

// AchievementStats summarizes a user's earned achievements.
func (e *Engine) AchievementStats(userID string) ir.AchievementStats {
	u, _ := e.store.GetUser(userID)
	return e.achievements.Stats(u)
}

// ==================== ANALYTICS ====================

// EventStats returns the cross-user aggregate for an event type.
func (e *Engine) EventStats(eventType string) (analytics.EventStats, bool) {
	return e.analytics.Stats(eventType)
}

// EventAnalytics returns the aggregate for every event type.
func (e *Engine) EventAnalytics() []analytics.EventStats {
	return e.analytics.All()
}

// PopularEvents returns the most frequent event types.
func (e *Engine) PopularEvents(limit int) []analytics.Popular {
	return e.analytics.PopularEvents(limit)
}

// ==================== NOTIFICATIONS ====================

// Subscribe registers a handler for one notification topic. The returned
// function unsubscribes.
func (e *Engine) Subscribe(topic notify.Topic, h notify.Handler) (func(), error) {
	return e.bus.Subscribe(topic, h)
}

// SubscribeAll registers a handler for every notification.
func (e *Engine) SubscribeAll(h notify.Handler) (func(), error) {
	return e.bus.SubscribeAll(h)
}

// ==================== PLUGINS ====================

// Use installs a plugin. Installing a name twice fails with
// ErrCodeDuplicatePlugin.
func (e *Engine) Use(p plugin.Plugin) error {
	if err := e.plugins.Install(p, e); err != nil {
		return pluginError(p.Name(), err)
	}
	e.logger.Debug("installed plugin", "plugin", p.Name())
	return nil
}

// UninstallPlugin removes a plugin and everything it added.
func (e *Engine) UninstallPlugin(name string) error {
	if err := e.plugins.Uninstall(name, e); err != nil {
		return pluginError(name, err)
	}
	e.logger.Debug("uninstalled plugin", "plugin", name)
	return nil
}

// Plugins returns installed plugin names in install order.
func (e *Engine) Plugins() []string {
	return e.plugins.Names()
}

func pluginError(name string, err error) error {
	code := ErrCodePlugin
	switch {
	case errors.Is(err, plugin.ErrDuplicate):
		code = ErrCodeDuplicatePlugin
	case errors.Is(err, plugin.ErrNotFound):
		code = ErrCodePluginNotFound
	}
	return &Error{Code: code, Message: err.Error(), Plugin: name, Err: err}
}

var _ plugin.Host = (*Engine)(nil)
