package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidConfig(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/game.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Config valid: 1 rule(s), 1 mission(s), 1 achievement(s)")
}

func TestValidateValidConfigJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/game.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Rules)
	assert.Equal(t, 1, resp.Data.Missions)
	assert.Equal(t, 1, resp.Data.Achievements)
}

func TestValidateMergesYAMLAndCUE(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/game.yaml", "testdata/game.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rule(s)")
}

func TestValidateInvalidConfig(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ [E202]")
	assert.Contains(t, out, "! [W201]")
	assert.Contains(t, out, "1 error(s), 1 warning(s)")
}

func TestValidateInvalidConfigJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/invalid.yaml")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, details["valid"])
	assert.Len(t, details["errors"], 1)
	assert.Len(t, details["warnings"], 1)
}

func TestValidateMissingFile(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateMalformedFile(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/malformed.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "malformed.yaml")
}

func TestValidateRequiresArgs(t *testing.T) {
	_, err := executeValidate(t, "text")
	require.Error(t, err)
}
