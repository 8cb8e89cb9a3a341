package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommand_CanonicalOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "s.yaml", `name: cli-trace
description: Single activation trace.
units:
  - parent
script:
  - activate: parent
`)

	out, err := execCommand(t, "trace", path)
	require.NoError(t, err)
	assert.Equal(t,
		`{"events":[{"kind":"unit_activated","seq":1,"subject":"parent"}],"name":"cli-trace"}`,
		out)
}

func TestTraceCommand_Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "s.yaml", passingScenario)

	first, err := execCommand(t, "trace", path)
	require.NoError(t, err)
	second, err := execCommand(t, "trace", path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTraceCommand_InvalidScenarioExitsTwo(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "bad.yaml", "name: only-a-name\n")

	_, err := execCommand(t, "trace", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
