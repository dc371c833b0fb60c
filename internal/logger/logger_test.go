package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

func TestLoggerInfoWithFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log = log.WithFields(map[string]any{"run_id": "abc", "component": "runner"})
	log.Info("workflow started")

	var entry logEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "workflow started", entry["message"])
	require.Equal(t, "abc", entry["run_id"])
	require.Equal(t, "runner", entry["component"])
	require.Equal(t, "info", entry["level"])
}

func TestLoggerDebugRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log.Debug("this should not appear")
	require.Equal(t, "", strings.TrimSpace(buf.String()))
}

func TestLoggerErrorIncludesContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "debug", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log = log.With("entity", "inj_01")
	log.Error(errors.New("boom"), "method failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "method failed", entry["message"])
	require.Equal(t, "inj_01", entry["entity"])
	require.Equal(t, "boom", entry["error"])
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestNilLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var log *Logger
	require.NotPanics(t, func() {
		log.Info("ignored")
		log.Warn("ignored")
		log.Error(errors.New("x"), "ignored")
		require.Nil(t, log.With("k", "v"))
	})
}

func TestDefaultLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "warn", Writer: buf})
	require.NoError(t, err)

	SetDefault(log)
	t.Cleanup(func() { SetDefault(nil) })

	Default().Warn("mismatch")
	require.Contains(t, buf.String(), "mismatch")

	SetDefault(nil)
	buf.Reset()
	Default().Warn("discarded")
	require.Empty(t, buf.String())
}
