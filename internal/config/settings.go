package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/gamify/internal/engine"
	"github.com/roach88/gamify/internal/missions"
	"github.com/roach88/gamify/internal/store"
)

// Settings are the engine knobs. Values come from defaults, then the
// document's settings block, then the environment.
type Settings struct {
	Debug            bool          `env:"GAMIFY_DEBUG"`
	StreakWindow     time.Duration `env:"GAMIFY_STREAK_WINDOW"`
	LeaderboardLimit int           `env:"GAMIFY_LEADERBOARD_LIMIT"`
	MissionCooldown  time.Duration `env:"GAMIFY_MISSION_COOLDOWN"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		StreakWindow:     store.DefaultStreakWindow,
		LeaderboardLimit: engine.DefaultLeaderboardLimit,
		MissionCooldown:  missions.DefaultCooldown,
	}
}

// ResolveSettings overlays a document settings block on the defaults.
// A nil block yields the defaults.
func ResolveSettings(doc *SettingsDoc) (Settings, error) {
	s := DefaultSettings()
	if doc == nil {
		return s, nil
	}

	s.Debug = doc.Debug
	if doc.LeaderboardLimit > 0 {
		s.LeaderboardLimit = doc.LeaderboardLimit
	}
	if doc.StreakWindow != "" {
		d, err := parsePositiveDuration(doc.StreakWindow)
		if err != nil {
			return Settings{}, fmt.Errorf("settings.streak_window: %w", err)
		}
		s.StreakWindow = d
	}
	if doc.MissionCooldown != "" {
		d, err := parsePositiveDuration(doc.MissionCooldown)
		if err != nil {
			return Settings{}, fmt.Errorf("settings.mission_cooldown: %w", err)
		}
		s.MissionCooldown = d
	}
	return s, nil
}

// ApplyEnv overrides settings from GAMIFY_* environment variables. Unset
// variables leave the current value alone.
func (s *Settings) ApplyEnv() error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSettings resolves the document block and applies the environment.
func LoadSettings(doc *SettingsDoc) (Settings, error) {
	s, err := ResolveSettings(doc)
	if err != nil {
		return Settings{}, err
	}
	if err := s.ApplyEnv(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// EngineOptions converts settings into engine options.
func (s Settings) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithDebug(s.Debug),
		engine.WithStreakWindow(s.StreakWindow),
		engine.WithLeaderboardLimit(s.LeaderboardLimit),
		engine.WithMissionCooldown(s.MissionCooldown),
	}
}

func parsePositiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", raw)
	}
	return d, nil
}
