package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gamify/internal/analytics"
	"github.com/roach88/gamify/internal/compiler"
	"github.com/roach88/gamify/internal/config"
	"github.com/roach88/gamify/internal/engine"
	"github.com/roach88/gamify/internal/ids"
	"github.com/roach88/gamify/internal/ir"
	"github.com/roach88/gamify/internal/notify"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Events        string // path to a JSON Lines event file, "-" for stdin
	Start         string // RFC 3339 start of the virtual clock
	Async         bool   // feed events through Submit/Run instead of TriggerEvent
	NoCreate      bool   // fail events for unknown users instead of creating them
	SequentialIDs bool   // use id-1, id-2, ... for generated ids
	Top           int    // number of leaderboard and popular-event rows
}

// EventLine is one line of a simulate event file.
//
//	{"user": "alice", "type": "click", "payload": {"xp": 5}, "advance": "2h"}
//
// Advance moves the virtual clock before the event; At sets it outright.
type EventLine struct {
	User    string          `json:"user"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Advance string          `json:"advance,omitempty"`
	At      *time.Time      `json:"at,omitempty"`
}

// SimulatedEvent reports what one event did.
type SimulatedEvent struct {
	Line         int      `json:"line"`
	User         string   `json:"user"`
	Type         string   `json:"type"`
	Rule         string   `json:"rule,omitempty"`
	XPDelta      int64    `json:"xp_delta"`
	Level        int      `json:"level"`
	LevelUp      bool     `json:"level_up,omitempty"`
	Missions     []string `json:"missions,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// SimulationResult is the final state after a simulation.
type SimulationResult struct {
	Processed     int                   `json:"processed"`
	Failed        int                   `json:"failed"`
	Events        []SimulatedEvent      `json:"events,omitempty"`
	Users         []ir.User             `json:"users"`
	Leaderboard   []ir.LeaderboardEntry `json:"leaderboard"`
	Popular       []analytics.Popular   `json:"popular"`
	Notifications map[notify.Topic]int  `json:"notifications,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <config>... --events <file>",
		Short: "Replay an event stream through the engine",
		Long: `Compile the given configs, then feed a JSON Lines event stream through a
fresh engine running on a virtual clock and print the resulting state.
Unknown users are created on first sight unless --no-create is set.

Settings come from the config's settings block, overridden by GAMIFY_*
environment variables.

Examples:
  gamify simulate game.yaml --events events.jsonl
  gamify simulate rules.cue missions.yaml --events - --format json
  gamify simulate game.yaml --events events.jsonl --async`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Events, "events", "e", "-", "JSON Lines event file (- for stdin)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "virtual clock start (RFC 3339, default now)")
	cmd.Flags().BoolVar(&opts.Async, "async", false, "process events through the async intake queue")
	cmd.Flags().BoolVar(&opts.NoCreate, "no-create", false, "do not create unknown users")
	cmd.Flags().BoolVar(&opts.SequentialIDs, "sequential-ids", false, "generate sequential ids instead of UUIDs")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "leaderboard and popular-event rows to report")

	return cmd
}

func runSimulate(opts *SimulateOptions, configs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Top < 0 {
		return argFailure(formatter, fmt.Sprintf("--top must not be negative, got %d", opts.Top))
	}
	start := time.Now().UTC()
	if opts.Start != "" {
		t, err := time.Parse(time.RFC3339, opts.Start)
		if err != nil {
			return argFailure(formatter, fmt.Sprintf("--start: %v", err))
		}
		start = t
	}

	doc, err := config.LoadFiles(configs...)
	if err != nil {
		return loadFailure(formatter, err)
	}
	compiled, errs := compiler.Compile(doc)
	if len(errs) > 0 {
		if outErr := formatter.Error(ErrCodeInvalid,
			fmt.Sprintf("%d validation error(s)", len(errs)), errs); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s: config does not compile", ErrCodeInvalid))
	}
	for _, w := range compiled.Warnings {
		formatter.VerboseLog("warning: %s", w.Error())
	}

	settings, err := config.LoadSettings(doc.Settings)
	if err != nil {
		if outErr := formatter.Error(ErrCodeSettings, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, ErrCodeSettings, err)
	}

	lines, err := readEvents(opts.Events, cmd.InOrStdin())
	if err != nil {
		if outErr := formatter.Error(ErrCodeBadEvent, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, ErrCodeBadEvent, err)
	}

	clk := newVirtualClock(start)
	var gen ids.Generator = ids.UUIDv7Generator{}
	if opts.SequentialIDs {
		gen = ids.NewSequential("id")
	}
	engOpts := settings.EngineOptions()
	engOpts = append(engOpts, compiled.Options()...)
	engOpts = append(engOpts,
		engine.WithClock(clk),
		engine.WithIDs(gen),
		engine.WithLogger(slog.Default()),
	)
	eng := engine.New(engOpts...)
	defer eng.Close()

	sim := &simulation{eng: eng, clock: clk, opts: opts}
	var result SimulationResult
	if opts.Async {
		result, err = sim.runAsync(cmd.Context(), lines)
	} else {
		result, err = sim.runSync(lines)
	}
	if err != nil {
		if outErr := formatter.Error(ErrCodeBadEvent, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, ErrCodeBadEvent, err)
	}

	result.Users = eng.Users()
	result.Leaderboard = eng.Leaderboard(opts.Top)
	result.Popular = eng.PopularEvents(opts.Top)

	if opts.Format == "json" {
		plain, err := toPlain(CLIResponse{Status: "ok", Data: result})
		if err != nil {
			return err
		}
		return formatter.Canonical(plain)
	}
	writeSimulationText(cmd.OutOrStdout(), result)
	return nil
}

// numberedLine is an event line with its 1-based position in the input.
type numberedLine struct {
	n    int
	line EventLine
}

func readEvents(path string, stdin io.Reader) ([]numberedLine, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open events: %w", err)
		}
		defer f.Close()
		r = f
	}

	var out []numberedLine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var ev EventLine
		dec := json.NewDecoder(strings.NewReader(text))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ev); err != nil {
			return nil, fmt.Errorf("events line %d: %w", n, err)
		}
		out = append(out, numberedLine{n: n, line: ev})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return out, nil
}

type simulation struct {
	eng   *engine.Engine
	clock *virtualClock
	opts  *SimulateOptions
}

// prepare decodes the payload and creates the user when allowed.
func (s *simulation) prepare(nl numberedLine) (ir.Payload, error) {
	payload := ir.Payload{}
	if len(nl.line.Payload) > 0 && string(nl.line.Payload) != "null" {
		p, err := ir.ParsePayloadJSON(nl.line.Payload)
		if err != nil {
			return nil, fmt.Errorf("events line %d: %w", nl.n, err)
		}
		payload = p
	}

	if !s.opts.NoCreate && nl.line.User != "" {
		if _, ok := s.eng.GetUser(nl.line.User); !ok {
			if _, err := s.eng.CreateUser(nl.line.User, nl.line.User, ""); err != nil {
				return nil, fmt.Errorf("events line %d: %w", nl.n, err)
			}
		}
	}
	return payload, nil
}

func (s *simulation) moveClock(nl numberedLine) error {
	if nl.line.At != nil {
		s.clock.Set(*nl.line.At)
	}
	if nl.line.Advance != "" {
		d, err := time.ParseDuration(nl.line.Advance)
		if err != nil {
			return fmt.Errorf("events line %d: advance: %w", nl.n, err)
		}
		if d < 0 {
			return fmt.Errorf("events line %d: advance must not be negative", nl.n)
		}
		s.clock.Advance(d)
	}
	return nil
}

func (s *simulation) runSync(lines []numberedLine) (SimulationResult, error) {
	result := SimulationResult{
		Events:        make([]SimulatedEvent, 0, len(lines)),
		Notifications: make(map[notify.Topic]int),
	}
	var mu sync.Mutex
	unsubscribe, err := s.eng.SubscribeAll(func(n notify.Notification) error {
		mu.Lock()
		result.Notifications[n.Topic]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		return result, err
	}
	defer unsubscribe()

	for _, nl := range lines {
		if err := s.moveClock(nl); err != nil {
			return result, err
		}
		payload, err := s.prepare(nl)
		if err != nil {
			return result, err
		}

		ev := SimulatedEvent{Line: nl.n, User: nl.line.User, Type: nl.line.Type}
		out, err := s.eng.TriggerEvent(nl.line.User, nl.line.Type, payload)
		if err != nil {
			result.Failed++
			ev.Error = err.Error()
			var ee *engine.Error
			if errors.As(err, &ee) {
				ev.Error = string(ee.Code)
			}
			result.Events = append(result.Events, ev)
			continue
		}

		result.Processed++
		ev.Rule = out.RuleID
		ev.XPDelta = out.XPDelta
		ev.Level = out.NewLevel
		ev.LevelUp = out.LeveledUp()
		for _, m := range out.Missions {
			ev.Missions = append(ev.Missions, m.Mission.ID)
		}
		for _, a := range out.Achievements {
			ev.Achievements = append(ev.Achievements, a.Template.ID)
		}
		result.Events = append(result.Events, ev)
	}
	return result, nil
}

// runAsync submits every event and lets Engine.Run process them. Events
// that fail are logged by the engine and counted here by comparing event
// counts before and after.
func (s *simulation) runAsync(ctx context.Context, lines []numberedLine) (SimulationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var result SimulationResult

	for _, nl := range lines {
		if nl.line.Advance != "" || nl.line.At != nil {
			return result, fmt.Errorf("events line %d: clock moves are not supported with --async", nl.n)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- s.eng.Run(ctx)
	}()

	submitted := 0
	for _, nl := range lines {
		payload, err := s.prepare(nl)
		if err != nil {
			cancel()
			<-done
			return result, err
		}
		if err := s.eng.Submit(nl.line.User, nl.line.Type, payload); err != nil {
			cancel()
			<-done
			return result, err
		}
		submitted++
	}

	// Close stops the intake; Run returns once the queue is drained.
	if err := s.eng.Close(); err != nil {
		return result, err
	}
	if err := <-done; err != nil {
		return result, fmt.Errorf("run: %w", err)
	}

	var counted int64
	for _, st := range s.eng.EventAnalytics() {
		counted += st.Occurrences
	}
	result.Processed = int(counted)
	result.Failed = submitted - result.Processed
	return result, nil
}

func writeSimulationText(w io.Writer, r SimulationResult) {
	for _, ev := range r.Events {
		if ev.Error != "" {
			fmt.Fprintf(w, "✗ line %d %s/%s: %s\n", ev.Line, ev.User, ev.Type, ev.Error)
			continue
		}
		fmt.Fprintf(w, "✓ line %d %s/%s: %+d XP, level %d", ev.Line, ev.User, ev.Type, ev.XPDelta, ev.Level)
		if ev.Rule != "" {
			fmt.Fprintf(w, " (rule %s)", ev.Rule)
		}
		if ev.LevelUp {
			fmt.Fprint(w, " LEVEL UP")
		}
		for _, m := range ev.Missions {
			fmt.Fprintf(w, " mission:%s", m)
		}
		for _, a := range ev.Achievements {
			fmt.Fprintf(w, " achievement:%s", a)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nProcessed %d event(s), %d failed\n", r.Processed, r.Failed)

	if len(r.Leaderboard) > 0 {
		fmt.Fprintln(w, "\nLeaderboard:")
		for _, e := range r.Leaderboard {
			fmt.Fprintf(w, "  %2d. %-20s %8d XP  level %d  %d badge(s)\n",
				e.Rank, e.UserID, e.Score, e.Level, len(e.Badges))
		}
	}
	if len(r.Popular) > 0 {
		fmt.Fprintln(w, "\nPopular events:")
		for _, p := range r.Popular {
			fmt.Fprintf(w, "  %-20s %d\n", p.EventType, p.Count)
		}
	}
}

func argFailure(formatter *OutputFormatter, msg string) error {
	if err := formatter.Error(ErrCodeBadArgs, msg, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeBadArgs, msg))
}

// virtualClock is a settable clock shared by the command and the engine.
type virtualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newVirtualClock(start time.Time) *virtualClock {
	return &virtualClock{now: start}
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *virtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *virtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
