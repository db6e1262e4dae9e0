package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/roach88/gamify/internal/compiler"
	"github.com/roach88/gamify/internal/config"
	"github.com/roach88/gamify/internal/engine"
	"github.com/roach88/gamify/internal/ids"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/notify"
	"github.com/roach88/gamify/internal/testutil"
)

// TraceEvent records one processed (or rejected) event.
type TraceEvent struct {
	Seq          int64    `json:"seq,omitempty"`
	User         string   `json:"user"`
	Type         string   `json:"type"`
	Rule         string   `json:"rule,omitempty"`
	XPDelta      int64    `json:"xp_delta"`
	Level        int      `json:"level"`
	Missions     []string `json:"missions,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Warnings are the compiler's non-fatal findings.
	Warnings []string `json:"warnings,omitempty"`

	// Final state.
	Users         []ir.User             `json:"users"`
	Leaderboard   []ir.LeaderboardEntry `json:"leaderboard"`
	Notifications map[notify.Topic]int  `json:"notifications"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:          true,
		Trace:         []TraceEvent{},
		Notifications: make(map[notify.Topic]int),
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness runs one scenario against a fresh engine with a manual clock
// and sequential ids, so runs are reproducible.
type Harness struct {
	engine *engine.Engine
	clock  *testutil.ManualClock
	result *Result
}

// Run executes a scenario. The error is non-nil only when the scenario
// cannot run at all (bad configuration, duplicate users); failed
// expectations are reported in the Result.
func Run(s *Scenario) (*Result, error) {
	doc, err := s.Config()
	if err != nil {
		return nil, err
	}

	compiled, verrs := compiler.Compile(doc)
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Error()
		}
		return nil, fmt.Errorf("compile scenario config: %s", strings.Join(msgs, "; "))
	}

	// The environment is ignored so scenarios behave the same everywhere.
	settings, err := config.ResolveSettings(doc.Settings)
	if err != nil {
		return nil, err
	}

	start := testutil.Epoch
	if s.Start != nil {
		start = *s.Start
	}

	h := &Harness{
		clock:  testutil.NewManualClock(start),
		result: NewResult(),
	}
	for _, w := range compiled.Warnings {
		h.result.Warnings = append(h.result.Warnings, w.Error())
	}

	opts := settings.EngineOptions()
	opts = append(opts, compiled.Options()...)
	opts = append(opts,
		engine.WithClock(h.clock),
		engine.WithIDs(ids.NewSequential("id")),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	h.engine = engine.New(opts...)
	defer h.engine.Close()

	if _, err := h.engine.SubscribeAll(func(n notify.Notification) error {
		h.result.Notifications[n.Topic]++
		return nil
	}); err != nil {
		return nil, err
	}

	for _, u := range s.Users {
		if _, err := h.engine.CreateUser(u.ID, u.Name, u.Email); err != nil {
			return nil, fmt.Errorf("create user %q: %w", u.ID, err)
		}
	}

	for i, st := range s.Steps {
		if err := h.executeStep(i, st); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(h.engine, h.result, s.Assertions) {
		h.result.AddError(msg)
	}

	h.result.Users = h.engine.Users()
	h.result.Leaderboard = h.engine.Leaderboard(-1)
	return h.result, nil
}

func (h *Harness) executeStep(i int, st Step) error {
	if st.Advance != "" {
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		h.clock.Advance(d)
		return nil
	}

	payload, err := ir.PayloadFromMap(st.Payload)
	if err != nil {
		return fmt.Errorf("steps[%d]: %w", i, err)
	}

	repeat := st.Repeat
	if repeat == 0 {
		repeat = 1
	}

	var out engine.Outcome
	var evErr error
	for n := 0; n < repeat; n++ {
		out, evErr = h.engine.TriggerEvent(st.User, st.Event, payload)
		h.result.Trace = append(h.result.Trace, traceEvent(st, out, evErr))
	}

	if st.Expect != nil {
		for _, msg := range checkExpect(i, *st.Expect, out, evErr) {
			h.result.AddError(msg)
		}
	}
	return nil
}

func traceEvent(st Step, out engine.Outcome, err error) TraceEvent {
	if err != nil {
		return TraceEvent{User: st.User, Type: st.Event, Error: errorCode(err)}
	}
	te := TraceEvent{
		Seq:     out.Event.Seq,
		User:    st.User,
		Type:    st.Event,
		Rule:    out.RuleID,
		XPDelta: out.XPDelta,
		Level:   out.NewLevel,
	}
	for _, c := range out.Missions {
		te.Missions = append(te.Missions, c.Record.ID)
	}
	for _, a := range out.Achievements {
		te.Achievements = append(te.Achievements, a.Record.ID)
	}
	return te
}

func checkExpect(i int, exp Expect, out engine.Outcome, err error) []string {
	prefix := fmt.Sprintf("steps[%d]", i)
	if exp.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("%s: expected error %s, got none", prefix, exp.Error)}
		}
		if got := errorCode(err); got != exp.Error {
			return []string{fmt.Sprintf("%s: expected error %s, got %s", prefix, exp.Error, got)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("%s: unexpected error: %v", prefix, err)}
	}

	var errs []string
	if exp.Rule != nil && *exp.Rule != out.RuleID {
		errs = append(errs, fmt.Sprintf("%s: expected rule %q, got %q", prefix, *exp.Rule, out.RuleID))
	}
	if exp.XPDelta != nil && *exp.XPDelta != out.XPDelta {
		errs = append(errs, fmt.Sprintf("%s: expected xp delta %d, got %d", prefix, *exp.XPDelta, out.XPDelta))
	}
	if exp.Level != nil && *exp.Level != out.NewLevel {
		errs = append(errs, fmt.Sprintf("%s: expected level %d, got %d", prefix, *exp.Level, out.NewLevel))
	}
	if exp.LevelUp != nil && *exp.LevelUp != out.LeveledUp() {
		errs = append(errs, fmt.Sprintf("%s: expected level up %t, got %t", prefix, *exp.LevelUp, out.LeveledUp()))
	}
	if exp.Missions != nil {
		got := make([]string, len(out.Missions))
		for j, c := range out.Missions {
			got[j] = c.Record.ID
		}
		if !slices.Equal(exp.Missions, got) {
			errs = append(errs, fmt.Sprintf("%s: expected missions %v, got %v", prefix, exp.Missions, got))
		}
	}
	if exp.Achievements != nil {
		got := make([]string, len(out.Achievements))
		for j, a := range out.Achievements {
			got[j] = a.Record.ID
		}
		if !slices.Equal(exp.Achievements, got) {
			errs = append(errs, fmt.Sprintf("%s: expected achievements %v, got %v", prefix, exp.Achievements, got))
		}
	}
	return errs
}

// errorCode reports an engine error's code, or the message for other
// errors.
func errorCode(err error) string {
	var ee *engine.Error
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return err.Error()
}
