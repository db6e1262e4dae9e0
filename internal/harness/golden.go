package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/notify"
)

// Snapshot renders a result as a plain map for canonical JSON. Empty
// collections are left out to keep golden files short.
func Snapshot(name string, r *Result) map[string]any {
	trace := make([]any, len(r.Trace))
	for i, te := range r.Trace {
		m := map[string]any{
			"user":     te.User,
			"type":     te.Type,
			"xp_delta": te.XPDelta,
			"level":    te.Level,
		}
		if te.Seq != 0 {
			m["seq"] = te.Seq
		}
		if te.Rule != "" {
			m["rule"] = te.Rule
		}
		if len(te.Missions) > 0 {
			m["missions"] = te.Missions
		}
		if len(te.Achievements) > 0 {
			m["achievements"] = te.Achievements
		}
		if te.Error != "" {
			m["error"] = te.Error
		}
		trace[i] = m
	}

	users := make([]any, len(r.Users))
	for i, u := range r.Users {
		users[i] = userSnapshot(u)
	}

	board := make([]any, len(r.Leaderboard))
	for i, e := range r.Leaderboard {
		board[i] = map[string]any{
			"rank":  e.Rank,
			"user":  e.UserID,
			"score": e.Score,
		}
	}

	notes := make(map[string]any)
	for _, topic := range notify.Topics {
		if n := r.Notifications[topic]; n > 0 {
			notes[string(topic)] = n
		}
	}

	return map[string]any{
		"scenario":      name,
		"trace":         trace,
		"users":         users,
		"leaderboard":   board,
		"notifications": notes,
	}
}

func userSnapshot(u ir.User) map[string]any {
	m := map[string]any{
		"id":    u.ID,
		"xp":    u.XP,
		"level": u.Level,
	}
	if len(u.Badges) > 0 {
		m["badges"] = badgeNames(u)
	}
	if len(u.Streaks) > 0 {
		streaks := make([]any, len(u.Streaks))
		for i, s := range u.Streaks {
			streaks[i] = map[string]any{
				"kind":  string(s.Kind),
				"count": s.CurrentCount,
				"max":   s.MaxCount,
			}
		}
		m["streaks"] = streaks
	}
	if len(u.Achievements) > 0 {
		recs := make([]any, len(u.Achievements))
		for i, a := range u.Achievements {
			recs[i] = map[string]any{
				"id":          a.ID,
				"source":      string(a.Source),
				"completions": a.Completions,
			}
		}
		m["achievements"] = recs
	}
	if len(u.EventCounts) > 0 {
		counts := make(map[string]any, len(u.EventCounts))
		for k, v := range u.EventCounts {
			counts[k] = v
		}
		m["events"] = counts
	}
	return m
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, r *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot(name, r))
}

// RunWithGolden runs a scenario and compares its snapshot with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
