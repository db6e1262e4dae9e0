package achievements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ids"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/reward"
	"github.com/roach88/gamify/internal/store"
	"github.com/roach88/gamify/internal/testutil"
)

type fixture struct {
	store *store.Store
	hooks *hooks.Registry
	eval  *Evaluator
}

func setup(t *testing.T) *fixture {
	t.Helper()
	clk := testutil.NewManualClock(testutil.Epoch)
	s := store.New(store.WithClock(clk), store.WithIDs(ids.NewSequential("id")))
	_, err := s.CreateUser("u1", "", "")
	require.NoError(t, err)

	h := hooks.NewRegistry()
	return &fixture{
		store: s,
		hooks: h,
		eval:  New(reward.New(ids.NewSequential("badge"), h), h),
	}
}

func (f *fixture) check(t *testing.T, ev ir.Event, fn func(r *store.Record)) (ir.User, []Earned) {
	t.Helper()
	var earned []Earned
	u, err := f.store.Mutate("u1", func(r *store.Record) error {
		if fn != nil {
			fn(r)
		}
		earned = f.eval.Check(r, ev)
		return nil
	})
	require.NoError(t, err)
	return u, earned
}

func cond(kind ir.ConditionKind, op ir.Operator, value float64, meta ...string) ir.AchievementCondition {
	c := ir.AchievementCondition{Kind: kind, Operator: op, Value: value}
	if len(meta) == 2 {
		c.Metadata = map[string]string{meta[0]: meta[1]}
	}
	return c
}

func TestCheck_XPThresholdEarnedOnce(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{
		ID:         "thousand",
		Title:      "Thousandaire",
		Rarity:     ir.RarityRare,
		Conditions: []ir.AchievementCondition{cond(ir.ConditionXPThreshold, ir.OpGreaterThanOrEqual, 1000)},
		Reward:     ir.Reward{Grants: []ir.Grant{ir.XPGrant{Amount: 100}}},
	})
	click := ir.Event{Type: "click"}

	_, earned := f.check(t, click, func(r *store.Record) { r.AddXP(999) })
	assert.Empty(t, earned)

	u, earned := f.check(t, click, func(r *store.Record) { r.AddXP(1) })
	require.Len(t, earned, 1)
	assert.Equal(t, int64(1100), u.XP)
	assert.Equal(t, int64(100), earned[0].Record.XPReward)
	assert.Equal(t, ir.RarityRare, earned[0].Record.Rarity)
	assert.True(t, Has(u, "thousand"))

	u, earned = f.check(t, click, nil)
	assert.Empty(t, earned, "never re-earned")
	assert.Equal(t, int64(1100), u.XP, "never re-rewarded")
	assert.Len(t, UserAchievements(u), 1)
}

func TestCheck_AllConditionsRequired(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{
		ID: "both",
		Conditions: []ir.AchievementCondition{
			cond(ir.ConditionXPThreshold, ir.OpGreaterThan, 10),
			cond(ir.ConditionBadgeCount, ir.OpEquals, 1),
		},
	})

	_, earned := f.check(t, ir.Event{}, func(r *store.Record) { r.AddXP(11) })
	assert.Empty(t, earned)

	_, earned = f.check(t, ir.Event{}, func(r *store.Record) { r.AddBadge(ir.Badge{ID: "b"}) })
	assert.Len(t, earned, 1)
}

func TestCheck_NoConditionsHoldsVacuously(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{ID: "welcome"})

	u, earned := f.check(t, ir.Event{Type: "login"}, nil)
	require.Len(t, earned, 1)
	assert.True(t, Has(u, "welcome"))
}

func TestCheck_Operators(t *testing.T) {
	tests := []struct {
		op   ir.Operator
		xp   int64
		want bool
	}{
		{ir.OpEquals, 50, true},
		{ir.OpEquals, 51, false},
		{ir.OpGreaterThan, 50, false},
		{ir.OpGreaterThan, 51, true},
		{ir.OpLessThan, 49, true},
		{ir.OpLessThan, 50, false},
		{ir.OpGreaterThanOrEqual, 50, true},
		{"approximately", 50, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			f := setup(t)
			f.eval.Register(ir.AchievementTemplate{
				ID:         "a",
				Conditions: []ir.AchievementCondition{cond(ir.ConditionXPThreshold, tt.op, 50)},
			})
			_, earned := f.check(t, ir.Event{}, func(r *store.Record) { r.AddXP(tt.xp) })
			assert.Equal(t, tt.want, len(earned) == 1)
		})
	}
}

func TestCheck_StreakDuration(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{
		ID:         "daily2",
		Conditions: []ir.AchievementCondition{cond(ir.ConditionStreakDuration, ir.OpGreaterThanOrEqual, 2)},
	})
	f.eval.Register(ir.AchievementTemplate{
		ID: "weekly1",
		Conditions: []ir.AchievementCondition{
			cond(ir.ConditionStreakDuration, ir.OpGreaterThanOrEqual, 1, ir.MetaStreakType, "weekly"),
		},
	})

	_, earned := f.check(t, ir.Event{}, func(r *store.Record) {
		r.UpdateStreak(ir.StreakDaily)
		r.UpdateStreak(ir.StreakDaily)
	})
	require.Len(t, earned, 1, "missing weekly streak does not hold")
	assert.Equal(t, "daily2", earned[0].Template.ID)

	_, earned = f.check(t, ir.Event{}, func(r *store.Record) { r.UpdateStreak(ir.StreakWeekly) })
	require.Len(t, earned, 1)
	assert.Equal(t, "weekly1", earned[0].Template.ID)
}

func TestCheck_EventCount(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{
		ID: "clicker",
		Conditions: []ir.AchievementCondition{
			cond(ir.ConditionEventCount, ir.OpGreaterThanOrEqual, 3, ir.MetaEventType, "click"),
		},
	})
	f.eval.Register(ir.AchievementTemplate{
		ID:         "busy",
		Conditions: []ir.AchievementCondition{cond(ir.ConditionEventCount, ir.OpGreaterThanOrEqual, 4)},
	})

	_, earned := f.check(t, ir.Event{}, func(r *store.Record) {
		r.CountEvent("click")
		r.CountEvent("click")
		r.CountEvent("login")
	})
	assert.Empty(t, earned)

	_, earned = f.check(t, ir.Event{}, func(r *store.Record) { r.CountEvent("click") })
	assert.Len(t, earned, 2)
}

func TestCheck_Custom(t *testing.T) {
	f := setup(t)
	f.hooks.RegisterAchievementCheck("night-owl", func(u ir.User, ev ir.Event) bool {
		hour, ok := ev.Payload.Number("hour")
		return ok && hour < 5
	})
	f.eval.Register(ir.AchievementTemplate{
		ID:         "owl",
		Conditions: []ir.AchievementCondition{cond(ir.ConditionCustom, ir.OpEquals, 0, ir.MetaPredicate, "night-owl")},
	})
	f.eval.Register(ir.AchievementTemplate{
		ID:         "ghost",
		Conditions: []ir.AchievementCondition{cond(ir.ConditionCustom, ir.OpEquals, 0, ir.MetaPredicate, "unregistered")},
	})

	_, earned := f.check(t, ir.Event{Payload: ir.Payload{"hour": ir.Int(14)}}, nil)
	assert.Empty(t, earned)

	_, earned = f.check(t, ir.Event{Payload: ir.Payload{"hour": ir.Int(3)}}, nil)
	require.Len(t, earned, 1)
	assert.Equal(t, "owl", earned[0].Template.ID)
}

func TestCheck_UnknownKindNeverHolds(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{
		ID:         "odd",
		Conditions: []ir.AchievementCondition{cond("moon_phase", ir.OpEquals, 0)},
	})
	_, earned := f.check(t, ir.Event{}, nil)
	assert.Empty(t, earned)
}

func TestCheck_BadgeReward(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{
		ID:         "first",
		Conditions: []ir.AchievementCondition{cond(ir.ConditionXPThreshold, ir.OpGreaterThanOrEqual, 0)},
		Reward:     ir.Reward{Grants: []ir.Grant{ir.BadgeGrant{Name: "Newcomer"}}},
	})

	u, earned := f.check(t, ir.Event{}, nil)
	require.Len(t, earned, 1)
	require.Len(t, u.Badges, 1)
	assert.Equal(t, "Newcomer", u.Badges[0].Name)
}

func TestStatsAndVisibility(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{
		ID:         "a",
		Rarity:     ir.RarityCommon,
		Conditions: []ir.AchievementCondition{cond(ir.ConditionXPThreshold, ir.OpGreaterThanOrEqual, 0)},
	})
	f.eval.Register(ir.AchievementTemplate{
		ID:         "b",
		Rarity:     ir.RarityEpic,
		Conditions: []ir.AchievementCondition{cond(ir.ConditionXPThreshold, ir.OpGreaterThanOrEqual, 0)},
	})
	f.eval.Register(ir.AchievementTemplate{
		ID:         "c",
		Secret:     true,
		Conditions: []ir.AchievementCondition{cond(ir.ConditionXPThreshold, ir.OpGreaterThan, 10)},
	})
	f.eval.Register(ir.AchievementTemplate{
		ID:         "d",
		Conditions: []ir.AchievementCondition{cond(ir.ConditionXPThreshold, ir.OpGreaterThan, 10)},
	})

	u, _ := f.check(t, ir.Event{}, nil)

	stats := f.eval.Stats(u)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Earned)
	assert.InDelta(t, 50.0, stats.Progress, 1e-9)
	assert.Equal(t, map[ir.Rarity]int{ir.RarityCommon: 1, ir.RarityEpic: 1}, stats.ByRarity)

	visible := f.eval.Visible(u)
	require.Len(t, visible, 3)
	assert.Equal(t, "d", visible[2].ID)
}

func TestStats_NoTemplates(t *testing.T) {
	f := setup(t)
	stats := f.eval.Stats(ir.User{})
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Progress)
}

func TestTemplateQueries(t *testing.T) {
	f := setup(t)
	f.eval.Register(ir.AchievementTemplate{ID: "a", Title: "old"})
	assert.True(t, f.eval.Register(ir.AchievementTemplate{ID: "a", Title: "new"}))

	got, ok := f.eval.Template("a")
	require.True(t, ok)
	assert.Equal(t, "new", got.Title)
	assert.Len(t, f.eval.Templates(), 1)

	assert.True(t, f.eval.Remove("a"))
	_, ok = f.eval.Template("a")
	assert.False(t, ok)
}
