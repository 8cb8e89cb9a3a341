package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_Pass(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "pass.yaml", passingScenario)

	out, err := execCommand(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  cli-pass")
}

func TestRunCommand_FailExitsOne(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "fail.yaml", failingScenario)

	out, err := execCommand(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL  cli-fail")
	assert.Contains(t, out, "unit_deactivated")
}

func TestRunCommand_MissingFileExitsTwo(t *testing.T) {
	_, err := execCommand(t, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "pass.yaml", passingScenario)

	out, err := execCommand(t, "run", path, "--format", "json")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result RunResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "cli-pass", result.Name)
	assert.True(t, result.Pass)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "unit_activated", result.Events[0].Kind)
}

func TestRunCommand_VerbosePrintsTrace(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "pass.yaml", passingScenario)

	out, err := execCommand(t, "run", path, "--verbose")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "[1] unit_activated parent"), "verbose output should list events, got: %s", out)
}
