package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gamify/internal/harness"
)

const scenariosDir = "../harness/testdata/scenarios"

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandRunsScenarios(t *testing.T) {
	out, err := executeTest(t, "text", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := executeTest(t, "json", scenariosDir)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   harness.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
	assert.Empty(t, resp.Data.Failures)
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeTest(t, "text", scenariosDir, "--filter", "first*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = executeTest(t, "text", scenariosDir, "--filter", "zzz*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	_, err = executeTest(t, "text", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandMissingDir(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/no-such-dir")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	cfg, err := filepath.Abs("testdata/game.yaml")
	require.NoError(t, err)

	scenario := `name: wrong_xp
description: Expects more XP than a click gives
configs:
  - ` + cfg + `
users:
  - id: alice
steps:
  - event: click
    user: alice
    expect:
      xp_delta: 999
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_xp.yaml"), []byte(scenario), 0o644))

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_xp")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommandGoldenUpdateThenCompare(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")

	_, err := executeTest(t, "text", scenariosDir, "--golden-dir", golden, "--update")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(golden, "first_steps.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario":"first_steps"`)

	out, err := executeTest(t, "text", scenariosDir, "--golden-dir", golden)
	require.NoError(t, err)
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")

	require.NoError(t, os.WriteFile(filepath.Join(golden, "first_steps.golden"), []byte("{}"), 0o644))
	out, err = executeTest(t, "text", scenariosDir, "--golden-dir", golden)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot differs")
}

func TestTestCommandUpdateNeedsGoldenDir(t *testing.T) {
	_, err := executeTest(t, "text", scenariosDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFilterScenarios(t *testing.T) {
	paths := []string{"a/first_steps.yaml", "a/streaks.yml", "b/first_login.yaml"}

	got, err := filterScenarios(paths, "first_*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/first_steps.yaml", "b/first_login.yaml"}, got)

	got, err = filterScenarios(paths, "")
	require.NoError(t, err)
	assert.Equal(t, paths, got)
}
