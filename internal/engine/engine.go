package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/gamify/internal/achievements"
	"github.com/roach88/gamify/internal/analytics"
	"github.com/roach88/gamify/internal/clock"
	"github.com/roach88/gamify/internal/hooks"
	"github.com/roach88/gamify/internal/ids"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/missions"
	"github.com/roach88/gamify/internal/notify"
	"github.com/roach88/gamify/internal/plugin"
	"github.com/roach88/gamify/internal/reward"
	"github.com/roach88/gamify/internal/rules"
	"github.com/roach88/gamify/internal/store"
)

// DefaultLeaderboardLimit is used by Leaderboard when limit is zero.
const DefaultLeaderboardLimit = 10

// Engine wires the Progression Store, the Rule Engine, the Reward
// Applicator and both evaluators behind one facade.
//
// Thread-safety: every method is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	clock  clock.Clock
	seq    *clock.Sequence
	ids    ids.Generator
	hooks  *hooks.Registry

	store        *store.Store
	rules        *rules.Engine
	rewards      *reward.Applicator
	missions     *missions.Evaluator
	achievements *achievements.Evaluator
	analytics    *analytics.Tracker
	bus          *notify.Bus
	plugins      *plugin.Manager
	queue        *eventQueue

	debug            bool
	streakWindow     time.Duration
	missionCooldown  time.Duration
	leaderboardLimit int

	initialRules        []ir.Rule
	initialMissions     []ir.Mission
	initialAchievements []ir.AchievementTemplate
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the wall clock. Default: clock.System.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithSequence sets the logical clock, e.g. to resume numbering.
func WithSequence(s *clock.Sequence) Option {
	return func(e *Engine) {
		if s != nil {
			e.seq = s
		}
	}
}

// WithIDs sets the generator for badge and streak ids.
// Default: ids.UUIDv7Generator.
func WithIDs(g ids.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithHooks shares an existing hooks registry.
func WithHooks(h *hooks.Registry) Option {
	return func(e *Engine) {
		if h != nil {
			e.hooks = h
		}
	}
}

// WithDebug logs every processed event. Decisions are unaffected.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithStreakWindow overrides the 24h streak continuation window.
func WithStreakWindow(d time.Duration) Option {
	return func(e *Engine) {
		e.streakWindow = d
	}
}

// WithMissionCooldown sets the default re-arm delay for repeatable
// missions.
func WithMissionCooldown(d time.Duration) Option {
	return func(e *Engine) {
		e.missionCooldown = d
	}
}

// WithLeaderboardLimit sets the row count used when Leaderboard is called
// with a zero limit.
func WithLeaderboardLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.leaderboardLimit = n
		}
	}
}

// WithRules registers rules at construction.
func WithRules(rs ...ir.Rule) Option {
	return func(e *Engine) {
		e.initialRules = append(e.initialRules, rs...)
	}
}

// WithMissions registers missions at construction.
func WithMissions(ms ...ir.Mission) Option {
	return func(e *Engine) {
		e.initialMissions = append(e.initialMissions, ms...)
	}
}

// WithAchievements registers achievement templates at construction.
func WithAchievements(ts ...ir.AchievementTemplate) Option {
	return func(e *Engine) {
		e.initialAchievements = append(e.initialAchievements, ts...)
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:           slog.Default(),
		clock:            clock.System{},
		seq:              clock.NewSequence(),
		ids:              ids.UUIDv7Generator{},
		hooks:            hooks.NewRegistry(),
		leaderboardLimit: DefaultLeaderboardLimit,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.store = store.New(
		store.WithClock(e.clock),
		store.WithIDs(e.ids),
		store.WithStreakWindow(e.streakWindow),
	)
	e.rules = rules.New(e.hooks)
	e.rewards = reward.New(e.ids, e.hooks)
	e.missions = missions.New(e.rewards, e.hooks, missions.WithDefaultCooldown(e.missionCooldown))
	e.achievements = achievements.New(e.rewards, e.hooks)
	e.analytics = analytics.NewTracker()
	e.bus = notify.New(e.logger)
	e.plugins = plugin.NewManager()
	e.queue = newEventQueue()

	for _, r := range e.initialRules {
		e.rules.Add(r)
	}
	for _, m := range e.initialMissions {
		e.missions.Add(m)
	}
	for _, t := range e.initialAchievements {
		e.achievements.Register(t)
	}
	e.initialRules, e.initialMissions, e.initialAchievements = nil, nil, nil

	if e.debug {
		e.enableDebugLogging()
	}
	return e
}

// enableDebugLogging subscribes a logger to every processed event.
func (e *Engine) enableDebugLogging() {
	// Subscribe only fails on a closed bus; this one was just created.
	_, _ = e.bus.Subscribe(notify.TopicEventProcessed, func(n notify.Notification) error {
		e.logger.Info("event processed",
			"user", n.UserID,
			"type", n.EventType,
			"seq", n.Seq,
			"rule", n.RuleID,
			"xp_delta", n.XPDelta,
		)
		return nil
	})
}

// Hooks returns the registry used for custom conditions, goals and
// effects.
func (e *Engine) Hooks() *hooks.Registry {
	return e.hooks
}

// Now returns the engine's wall time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Close stops the intake queue and shuts down the notification bus.
// Events already submitted are still processed by Run or Drain, but their
// notifications are dropped.
func (e *Engine) Close() error {
	e.queue.Close()
	return e.bus.Close()
}
