package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ir"
)

type fakeHost struct {
	rules        map[string]ir.Rule
	missions     map[string]ir.Mission
	achievements map[string]ir.AchievementTemplate
	hooks        *hooks.Registry
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		rules:        map[string]ir.Rule{},
		missions:     map[string]ir.Mission{},
		achievements: map[string]ir.AchievementTemplate{},
		hooks:        hooks.NewRegistry(),
	}
}

func (h *fakeHost) AddRule(r ir.Rule) { h.rules[r.ID] = r }
func (h *fakeHost) RemoveRule(id string) bool {
	_, ok := h.rules[id]
	delete(h.rules, id)
	return ok
}
func (h *fakeHost) AddMission(m ir.Mission) { h.missions[m.ID] = m }
func (h *fakeHost) RemoveMission(id string) bool {
	_, ok := h.missions[id]
	delete(h.missions, id)
	return ok
}
func (h *fakeHost) RegisterAchievement(t ir.AchievementTemplate) { h.achievements[t.ID] = t }
func (h *fakeHost) RemoveAchievement(id string) bool {
	_, ok := h.achievements[id]
	delete(h.achievements, id)
	return ok
}
func (h *fakeHost) Hooks() *hooks.Registry { return h.hooks }

type failing struct{}

func (failing) Name() string         { return "failing" }
func (failing) Install(Host) error   { return errors.New("nope") }
func (failing) Uninstall(Host) error { return nil }

func bundle() *Bundle {
	return &Bundle{
		ID:           "social",
		Rules:        []ir.Rule{{ID: "like", Enabled: true, Trigger: ir.Trigger{EventType: "like"}}},
		Missions:     []ir.Mission{{ID: "liker"}},
		Achievements: []ir.AchievementTemplate{{ID: "popular"}},
		Conditions: map[string]hooks.EventPredicate{
			"always": func(ir.Event) bool { return true },
		},
	}
}

func TestInstallAndUninstall(t *testing.T) {
	m := NewManager()
	h := newFakeHost()

	require.NoError(t, m.Install(bundle(), h))
	assert.True(t, m.Installed("social"))
	assert.Equal(t, []string{"social"}, m.Names())
	assert.Contains(t, h.rules, "like")
	assert.Contains(t, h.missions, "liker")
	assert.Contains(t, h.achievements, "popular")
	assert.True(t, h.hooks.Condition("always", ir.Event{}))

	require.NoError(t, m.Uninstall("social", h))
	assert.False(t, m.Installed("social"))
	assert.Empty(t, h.rules)
	assert.Empty(t, h.missions)
	assert.Empty(t, h.achievements)
	assert.False(t, h.hooks.Condition("always", ir.Event{}))
}

func TestInstall_Duplicate(t *testing.T) {
	m := NewManager()
	h := newFakeHost()

	require.NoError(t, m.Install(bundle(), h))
	err := m.Install(bundle(), h)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, m.Names(), 1)
}

func TestInstall_FailureLeavesUninstalled(t *testing.T) {
	m := NewManager()
	err := m.Install(failing{}, newFakeHost())
	assert.Error(t, err)
	assert.False(t, m.Installed("failing"))
}

func TestUninstall_Unknown(t *testing.T) {
	m := NewManager()
	err := m.Uninstall("ghost", newFakeHost())
	assert.ErrorIs(t, err, ErrNotFound)
}
