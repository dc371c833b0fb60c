package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCommandWorkflowOnly(t *testing.T) {
	dir := t.TempDir()
	wf := writeFile(t, dir, "workflow.yaml", testWorkflow)

	stdout, _, err := executeCommand(newRootCmd(), "validate", "--workflow", wf)
	require.NoError(t, err)
	require.Contains(t, stdout, `workflow "calibration": 4 commands in 3 runs`)
	require.Contains(t, stdout, "Run 0 (injection, 2 commands): annotate, fail_on")
	require.NotContains(t, stdout, "ok\n")
}

func TestValidateCommandWithSession(t *testing.T) {
	dir := t.TempDir()
	wf := writeFile(t, dir, "workflow.toml", `version = "1.0"
name = "picked"

[selectors]
injections = ["inj1", "inj9"]

[[commands]]
method = "annotate"
`)
	session := writeFile(t, dir, "session.yaml", testSession)

	stdout, _, err := executeCommand(newRootCmd(), "validate", "-w", wf, "-s", session)
	require.NoError(t, err)
	require.Contains(t, stdout, "3 injections, 1 segments, 1 groups")
	require.Contains(t, stdout, `warning: selected injection "inj9" is not in the session`)
	require.Contains(t, stdout, "ok")
}

func TestValidateCommandRejectsBadParameters(t *testing.T) {
	dir := t.TempDir()
	wf := writeFile(t, dir, "workflow.yaml", "version: \"1.0\"\nname: w\ncommands:\n  - method: wait\n")
	session := writeFile(t, dir, "session.yaml", "name: s\nparameters:\n  wait:\n    duration_ms: \"[1, 2]\"\n    extra: 1\n")

	_, _, err := executeCommand(newRootCmd(), "validate", "-w", wf, "-s", session)
	require.ErrorContains(t, err, "parameters of wait")
}

func TestValidateCommandAcceptsExamples(t *testing.T) {
	for _, wf := range []string{"../../examples/calibration/workflow.yaml", "../../examples/calibration/workflow.toml"} {
		stdout, _, err := executeCommand(newRootCmd(), "validate", "-w", wf, "-s", "../../examples/calibration/session.yaml")
		require.NoError(t, err, wf)
		require.Contains(t, stdout, "ok", wf)
	}
}
