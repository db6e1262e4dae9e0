package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gamify/internal/notify"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/first_steps.yaml")
	require.NoError(t, err)

	assert.Equal(t, "first_steps", s.Name)
	assert.Equal(t, []string{"../configs/basic.yaml"}, s.Configs)
	require.Len(t, s.Users, 2)
	require.Len(t, s.Steps, 5)
	assert.Equal(t, 2, s.Steps[2].Repeat)
	require.NotNil(t, s.Steps[2].Expect)
	assert.Equal(t, []string{"reach-100"}, s.Steps[2].Expect.Missions)

	doc, err := s.Config()
	require.NoError(t, err)
	assert.Len(t, doc.Rules, 1)
	assert.Len(t, doc.Missions, 1)
	assert.Len(t, doc.Achievements, 1)
}

func TestLoadScenario_MissingFiles(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", "name: a\ndescription: b\nstep: []\n", "failed to parse YAML"},
		{"no name", "description: b\nsteps: [{advance: 1h}]\n", "name is required"},
		{"no description", "name: a\nsteps: [{advance: 1h}]\n", "description is required"},
		{"no steps", "name: a\ndescription: b\n", "steps list is required"},
		{"empty step", "name: a\ndescription: b\nsteps: [{}]\n", "advance or event is required"},
		{"both", "name: a\ndescription: b\nsteps: [{advance: 1h, event: x, user: u}]\n", "mutually exclusive"},
		{"bad advance", "name: a\ndescription: b\nsteps: [{advance: soon}]\n", "advance"},
		{"event without user", "name: a\ndescription: b\nsteps: [{event: x}]\n", "user is required"},
		{"duplicate user", "name: a\ndescription: b\nusers: [{id: u}, {id: u}]\nsteps: [{advance: 1h}]\n", "duplicate id"},
		{"unknown assertion", "name: a\ndescription: b\nsteps: [{advance: 1h}]\nassertions: [{type: vibes}]\n", "unknown assertion type"},
		{"notification without count", "name: a\ndescription: b\nsteps: [{advance: 1h}]\nassertions: [{type: notification_count, topic: level.up}]\n", "topic and count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_FirstStepsGolden(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/first_steps.yaml")
	require.NoError(t, err)

	res, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
	assert.Len(t, res.Trace, 5)
	assert.Equal(t, "USER_NOT_FOUND", res.Trace[4].Error)
	assert.Equal(t, 6, res.Notifications[notify.TopicUserUpdated])
}

func TestRunAll_Testdata(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, paths, 3)

	sum := RunAll(paths)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 3, sum.Passed, "failures: %+v", sum.Failures)
	assert.Empty(t, sum.Failures)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/streaks_and_penalties.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

const failingScenario = `
name: wrong_expectations
description: Every expectation here is wrong
rules:
  - id: click
    event_type: click
    reward: {xp: 10}
users:
  - id: u1
steps:
  - event: click
    user: u1
    expect:
      rule: other
      xp_delta: 99
      level: 3
      level_up: true
      missions: [m]
  - event: click
    user: u1
    expect:
      error: USER_NOT_FOUND
  - event: click
    user: nobody
assertions:
  - type: user
    user: u1
    xp: 1
  - type: user
    user: ghost
  - type: leaderboard
    order: [ghost]
  - type: mission_completed
    user: u1
    mission: m
  - type: achievement_earned
    user: u1
    achievement: a
  - type: streak
    user: u1
    kind: daily
  - type: notification_count
    topic: level.up
    count: 5
`

func TestRun_ReportsFailures(t *testing.T) {
	s, err := ParseScenario([]byte(failingScenario))
	require.NoError(t, err)

	res, err := Run(s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	// 5 expectation mismatches, 1 missing error, 7 assertions.
	assert.Len(t, res.Errors, 13)
	assert.Equal(t, "USER_NOT_FOUND", res.Trace[2].Error)
}

func TestRun_CompileErrorsStopTheRun(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: broken
description: A rule without an event type
rules:
  - id: r
steps:
  - advance: 1h
`))
	require.NoError(t, err)

	_, err = Run(s)
	assert.ErrorContains(t, err, "E202")
}

func TestRun_WarningsKept(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: warned
description: Unknown condition kinds compile with a warning
rules:
  - id: r
    event_type: x
    conditions: [{kind: lunar}]
    reward: {xp: 5}
users: [{id: u}]
steps:
  - event: x
    user: u
    expect: {xp_delta: 0}
`))
	require.NoError(t, err)

	res, err := Run(s)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "W201")
}
