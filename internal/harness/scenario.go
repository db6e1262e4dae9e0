package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gamify/internal/config"
)

// Scenario is a scripted run of the engine with expectations.
//
// Rules, missions and achievement templates come from the Configs files
// and from the inline document; inline items are appended after the files'.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario shows.
	Description string `yaml:"description"`

	// Configs lists configuration files, relative to the scenario file.
	Configs []string `yaml:"configs,omitempty"`

	// Inline configuration.
	config.Document `yaml:",inline"`

	// Start is the initial wall time. Defaults to testutil.Epoch.
	Start *time.Time `yaml:"start,omitempty"`

	// Users are created before the first step.
	Users []UserSpec `yaml:"users"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions check the final state.
	Assertions []Assertion `yaml:"assertions"`

	// dir is the directory Configs are resolved against.
	dir string
}

// UserSpec creates one user.
type UserSpec struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// Step either advances the clock or triggers an event.
type Step struct {
	// Advance moves the wall clock forward by a duration such as "20h".
	Advance string `yaml:"advance,omitempty"`

	// Event is the event type to trigger for User.
	Event   string         `yaml:"event,omitempty"`
	User    string         `yaml:"user,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`

	// Repeat triggers the event this many times. Defaults to 1.
	Repeat int `yaml:"repeat,omitempty"`

	// Expect is checked against the last repetition.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of an event step. Unset fields are not
// checked.
type Expect struct {
	Rule         *string  `yaml:"rule,omitempty"`
	XPDelta      *int64   `yaml:"xp_delta,omitempty"`
	Level        *int     `yaml:"level,omitempty"`
	LevelUp      *bool    `yaml:"level_up,omitempty"`
	Missions     []string `yaml:"missions,omitempty"`
	Achievements []string `yaml:"achievements,omitempty"`

	// Error is the expected engine error code, e.g. USER_NOT_FOUND.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks final state. Which fields apply depends on Type.
type Assertion struct {
	Type string `yaml:"type"`

	User        string `yaml:"user,omitempty"`
	Mission     string `yaml:"mission,omitempty"`
	Achievement string `yaml:"achievement,omitempty"`
	Kind        string `yaml:"kind,omitempty"`
	Topic       string `yaml:"topic,omitempty"`

	XP          *int64   `yaml:"xp,omitempty"`
	Level       *int     `yaml:"level,omitempty"`
	Badges      []string `yaml:"badges,omitempty"`
	Count       *int     `yaml:"count,omitempty"`
	Max         *int     `yaml:"max,omitempty"`
	Completions *int     `yaml:"completions,omitempty"`
	Order       []string `yaml:"order,omitempty"`
}

// Assertion types.
const (
	AssertUser         = "user"
	AssertLeaderboard  = "leaderboard"
	AssertMission      = "mission_completed"
	AssertAchievement  = "achievement_earned"
	AssertStreak       = "streak"
	AssertNotification = "notification_count"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// errors, so typos such as "assertion:" are caught.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)

	for _, c := range s.Configs {
		if _, err := os.Stat(s.resolve(c)); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("invalid scenario: config file not found: %s", c)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML. Config paths are
// resolved against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Config merges the referenced config files and the inline document.
// The settings block of the inline document wins over the files'.
func (s *Scenario) Config() (*config.Document, error) {
	paths := make([]string, len(s.Configs))
	for i, c := range s.Configs {
		paths[i] = s.resolve(c)
	}
	merged, err := config.LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	inline := s.Document
	return config.Merge(merged, &inline), nil
}

func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	users := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
		if users[u.ID] {
			return fmt.Errorf("users[%d]: duplicate id %q", i, u.ID)
		}
		users[u.ID] = true
	}

	for i, st := range s.Steps {
		if err := validateStep(i, st); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st Step) error {
	switch {
	case st.Advance != "" && st.Event != "":
		return fmt.Errorf("steps[%d]: advance and event are mutually exclusive", i)
	case st.Advance != "":
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", i, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: advance must not be negative", i)
		}
	case st.Event != "":
		if st.User == "" {
			return fmt.Errorf("steps[%d]: user is required for event steps", i)
		}
		if st.Repeat < 0 {
			return fmt.Errorf("steps[%d]: repeat must not be negative", i)
		}
	default:
		return fmt.Errorf("steps[%d]: advance or event is required", i)
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	case AssertUser:
		if a.User == "" {
			return fmt.Errorf("assertions[%d]: user is required for %s", i, a.Type)
		}
	case AssertLeaderboard:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order is required for leaderboard", i)
		}
	case AssertMission:
		if a.User == "" || a.Mission == "" {
			return fmt.Errorf("assertions[%d]: user and mission are required for %s", i, a.Type)
		}
	case AssertAchievement:
		if a.User == "" || a.Achievement == "" {
			return fmt.Errorf("assertions[%d]: user and achievement are required for %s", i, a.Type)
		}
	case AssertStreak:
		if a.User == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: user and kind are required for streak", i)
		}
	case AssertNotification:
		if a.Topic == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: topic and count are required for %s", i, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
