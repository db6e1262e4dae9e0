package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/gamify/internal/ir"
)

func TestRegistry_UnknownNamesNeverHold(t *testing.T) {
	r := NewRegistry()
	u := ir.User{ID: "u1"}

	assert.False(t, r.Condition("nope", ir.Event{}))
	assert.False(t, r.Goal("nope", u))
	assert.False(t, r.AchievementCheck("nope", u, ir.Event{}))
	assert.False(t, r.RunEffect("nope", &u, nil))
}

func TestRegistry_Condition(t *testing.T) {
	r := NewRegistry()
	r.RegisterCondition("weekend", func(ev ir.Event) bool {
		return ev.Type == "login"
	})

	assert.True(t, r.Condition("weekend", ir.Event{Type: "login"}))
	assert.False(t, r.Condition("weekend", ir.Event{Type: "click"}))
}

func TestRegistry_GoalAndAchievementCheck(t *testing.T) {
	r := NewRegistry()
	r.RegisterGoal("rich", func(u ir.User) bool { return u.XP >= 100 })
	r.RegisterAchievementCheck("first-click", func(u ir.User, ev ir.Event) bool {
		return ev.Type == "click" && u.EventCount("click") == 1
	})

	assert.True(t, r.Goal("rich", ir.User{XP: 100}))
	assert.False(t, r.Goal("rich", ir.User{XP: 99}))

	u := ir.User{EventCounts: map[string]int64{"click": 1}}
	assert.True(t, r.AchievementCheck("first-click", u, ir.Event{Type: "click"}))
}

func TestRegistry_RunEffect(t *testing.T) {
	r := NewRegistry()
	r.RegisterEffect("rename", func(u *ir.User, args map[string]string) {
		u.Name = args["name"]
	})

	u := ir.User{Name: "old"}
	assert.True(t, r.RunEffect("rename", &u, map[string]string{"name": "new"}))
	assert.Equal(t, "new", u.Name)
}

func TestRegistry_UnregisterAndNames(t *testing.T) {
	r := NewRegistry()
	r.RegisterCondition("b", func(ir.Event) bool { return true })
	r.RegisterGoal("a", func(ir.User) bool { return true })
	r.RegisterEffect("b", func(*ir.User, map[string]string) {})

	assert.Equal(t, []string{"a", "b"}, r.Names())

	r.Unregister("b")
	assert.Equal(t, []string{"a"}, r.Names())
	assert.False(t, r.Condition("b", ir.Event{}))
}
