package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func executeCommand(root *cobra.Command, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const testWorkflow = `version: "1.0"
name: calibration
settings:
  parallel: 2
commands:
  - method: annotate
    overrides:
      inj2:
        value: standard
  - method: fail_on
  - method: summarize_segment
  - method: summarize_group
`

const failingWorkflow = `version: "1.0"
name: strict
settings:
  parallel: 1
commands:
  - method: fail_on
  - method: summarize_segment
`

const testSession = `name: batch-1
parameters:
  annotate:
    value: blank
  fail_on:
    entities: "[inj3]"
    message: saturated
injections:
  - name: inj1
  - name: inj2
  - name: inj3
segments:
  - name: seg1
    members: [inj1, inj2, inj3]
groups:
  - name: grp1
    members: [inj2]
`
