// Package plugin manages installable bundles of rules, missions and
// achievement templates.
//
// A plugin only ever changes the engine through Host, the same operations
// any other caller uses.
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ir"
)

var (
	// ErrDuplicate is returned when installing a plugin whose name is
	// already installed.
	ErrDuplicate = errors.New("plugin already installed")

	// ErrNotFound is returned when uninstalling an unknown plugin.
	ErrNotFound = errors.New("plugin not installed")
)

// Host is the engine surface a plugin may use.
type Host interface {
	AddRule(r ir.Rule)
	RemoveRule(id string) bool
	AddMission(m ir.Mission)
	RemoveMission(id string) bool
	RegisterAchievement(t ir.AchievementTemplate)
	RemoveAchievement(id string) bool
	Hooks() *hooks.Registry
}

// Plugin is an installable extension.
type Plugin interface {
	Name() string
	Install(h Host) error
	Uninstall(h Host) error
}

// Manager tracks installed plugins.
//
// Thread-safety: Manager is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	plugins map[string]Plugin
	order   []string
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{plugins: make(map[string]Plugin)}
}

// Install installs p into h. Installing a name twice fails with
// ErrDuplicate; a failed Install leaves the plugin uninstalled.
func (m *Manager) Install(p Plugin, h Host) error {
	name := p.Name()
	if name == "" {
		return errors.New("plugin name must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plugins[name]; ok {
		return fmt.Errorf("install %q: %w", name, ErrDuplicate)
	}
	if err := p.Install(h); err != nil {
		return fmt.Errorf("install %q: %w", name, err)
	}
	m.plugins[name] = p
	m.order = append(m.order, name)
	return nil
}

// Uninstall removes the named plugin from h.
func (m *Manager) Uninstall(name string, h Host) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plugins[name]
	if !ok {
		return fmt.Errorf("uninstall %q: %w", name, ErrNotFound)
	}
	if err := p.Uninstall(h); err != nil {
		return fmt.Errorf("uninstall %q: %w", name, err)
	}
	delete(m.plugins, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Installed reports whether a plugin with the given name is installed.
func (m *Manager) Installed(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.plugins[name]
	return ok
}

// Names returns installed plugin names in install order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Bundle is a Plugin built from static definitions. Uninstall removes
// exactly what Install added.
type Bundle struct {
	ID           string
	Rules        []ir.Rule
	Missions     []ir.Mission
	Achievements []ir.AchievementTemplate
	Conditions   map[string]hooks.EventPredicate
	Effects      map[string]hooks.Effect
}

// Name returns the bundle id.
func (b *Bundle) Name() string { return b.ID }

// Install adds every definition and hook to h.
func (b *Bundle) Install(h Host) error {
	for _, r := range b.Rules {
		h.AddRule(r)
	}
	for _, m := range b.Missions {
		h.AddMission(m)
	}
	for _, t := range b.Achievements {
		h.RegisterAchievement(t)
	}
	for _, name := range sortedKeys(b.Conditions) {
		h.Hooks().RegisterCondition(name, b.Conditions[name])
	}
	for _, name := range sortedKeys(b.Effects) {
		h.Hooks().RegisterEffect(name, b.Effects[name])
	}
	return nil
}

// Uninstall removes every definition and hook the bundle added.
func (b *Bundle) Uninstall(h Host) error {
	for _, r := range b.Rules {
		h.RemoveRule(r.ID)
	}
	for _, m := range b.Missions {
		h.RemoveMission(m.ID)
	}
	for _, t := range b.Achievements {
		h.RemoveAchievement(t.ID)
	}
	for name := range b.Conditions {
		h.Hooks().Unregister(name)
	}
	for name := range b.Effects {
		h.Hooks().Unregister(name)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
