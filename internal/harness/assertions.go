package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/gamify/internal/engine"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/notify"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Index    int
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertions[%d] (%s): expected %s, got %s", e.Index, e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against the engine's final
// state and returns one message per failure.
func EvaluateAssertions(eng *engine.Engine, result *Result, assertions []Assertion) []string {
	var msgs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertUser:
			err = assertUser(eng, a)
		case AssertLeaderboard:
			err = assertLeaderboard(eng, a)
		case AssertMission:
			err = assertCompletion(eng, a, ir.SourceMission, a.Mission)
		case AssertAchievement:
			err = assertCompletion(eng, a, ir.SourceAchievement, a.Achievement)
		case AssertStreak:
			err = assertStreak(eng, a)
		case AssertNotification:
			err = assertNotifications(result, a)
		default:
			err = &AssertionError{Type: a.Type, Expected: "a known assertion type", Actual: a.Type}
		}
		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Index = i
			}
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

func lookupUser(eng *engine.Engine, a Assertion) (ir.User, error) {
	u, ok := eng.GetUser(a.User)
	if !ok {
		return ir.User{}, &AssertionError{Type: a.Type, Expected: fmt.Sprintf("user %q", a.User), Actual: "no such user"}
	}
	return u, nil
}

func assertUser(eng *engine.Engine, a Assertion) error {
	u, err := lookupUser(eng, a)
	if err != nil {
		return err
	}
	if a.XP != nil && u.XP != *a.XP {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s xp %d", u.ID, *a.XP), Actual: fmt.Sprint(u.XP)}
	}
	if a.Level != nil && u.Level != *a.Level {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s level %d", u.ID, *a.Level), Actual: fmt.Sprint(u.Level)}
	}
	if a.Badges != nil {
		names := badgeNames(u)
		if !slices.Equal(a.Badges, names) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s badges %v", u.ID, a.Badges), Actual: fmt.Sprint(names)}
		}
	}
	return nil
}

func assertLeaderboard(eng *engine.Engine, a Assertion) error {
	board := eng.Leaderboard(-1)
	got := make([]string, 0, len(a.Order))
	for i := 0; i < len(board) && i < len(a.Order); i++ {
		got = append(got, board[i].UserID)
	}
	if !slices.Equal(a.Order, got) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Order), Actual: fmt.Sprint(got)}
	}
	return nil
}

func assertCompletion(eng *engine.Engine, a Assertion, source ir.AchievementSource, id string) error {
	u, err := lookupUser(eng, a)
	if err != nil {
		return err
	}
	rec, ok := u.Completion(source, id)
	if !ok || !rec.Completed {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s completed %s %q", u.ID, source, id), Actual: "not completed"}
	}
	if a.Completions != nil && rec.Completions != *a.Completions {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d completions of %q", *a.Completions, id), Actual: fmt.Sprint(rec.Completions)}
	}
	return nil
}

func assertStreak(eng *engine.Engine, a Assertion) error {
	u, err := lookupUser(eng, a)
	if err != nil {
		return err
	}
	s, ok := u.Streak(ir.StreakKind(a.Kind))
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s %s streak", u.ID, a.Kind), Actual: "no streak"}
	}
	if a.Count != nil && s.CurrentCount != *a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s streak count %d", a.Kind, *a.Count), Actual: fmt.Sprint(s.CurrentCount)}
	}
	if a.Max != nil && s.MaxCount != *a.Max {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s streak max %d", a.Kind, *a.Max), Actual: fmt.Sprint(s.MaxCount)}
	}
	return nil
}

func assertNotifications(result *Result, a Assertion) error {
	got := result.Notifications[notify.Topic(a.Topic)]
	if got != *a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d %s notifications", *a.Count, a.Topic), Actual: fmt.Sprint(got)}
	}
	return nil
}

func badgeNames(u ir.User) []string {
	names := make([]string, len(u.Badges))
	for i, b := range u.Badges {
		names[i] = b.Name
	}
	return names
}
