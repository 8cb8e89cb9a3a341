package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "ok.yaml", passingScenario)

	out, err := execCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestValidateCommand_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "bad.yaml", `name: bad-types
description: advance must be an integer.
script:
  - advance: soon
`)

	out, err := execCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeSchema)
}

func TestValidateCommand_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "typo.yaml", `name: typo
description: Misspelled assertions key.
units:
  - parent
script:
  - activate: parent
assertion:
  - type: trace_contains
    kind: unit_activated
`)

	out, err := execCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "ERROR")
}

func TestValidateCommand_DanglingReference(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "dangling.yaml", `name: dangling
description: Schema-valid but activates an undeclared unit.
script:
  - activate: ghost
`)

	out, err := execCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeParse)
	assert.Contains(t, out, "unknown unit")
}

func TestValidateCommand_Directory(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, dir, "b.yaml", failingScenario)

	out, err := execCommand(t, "validate", dir)
	require.NoError(t, err, "failing assertions are still structurally valid")
	assert.Contains(t, out, "OK")
}

func TestValidateCommand_MissingPathExitsTwo(t *testing.T) {
	_, err := execCommand(t, "validate", "/does/not/exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileSchema(t *testing.T) {
	schema, err := compileSchema()
	require.NoError(t, err)
	assert.True(t, schema.Exists())
}
