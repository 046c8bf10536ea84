package kernel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelWarn, &buf)

	assert.False(t, l.IsEnabled(LevelDebug))
	assert.False(t, l.IsEnabled(LevelInfo))
	assert.True(t, l.IsEnabled(LevelWarn))
	assert.True(t, l.IsEnabled(LevelError))

	l.Log(LogEntry{Level: LevelInfo, Category: catMemory, Message: "should not appear"})
	assert.Empty(t, buf.String())

	l.Log(LogEntry{Level: LevelError, Category: catFatal, Message: "heap exhausted", Pid: 42})
	out := buf.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "fatal")
	assert.Contains(t, out, "heap exhausted")
	assert.Contains(t, out, "pid=42")
}

func TestDefaultLoggerOmitsPidAndErrWhenAbsent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelDebug, &buf)

	l.Log(LogEntry{Level: LevelDebug, Category: catScheduler, Message: "tick", Pid: NullPid})
	out := buf.String()
	assert.NotContains(t, out, "pid=")
	assert.NotContains(t, out, "err=")

	buf.Reset()
	l.Log(LogEntry{Level: LevelError, Category: catMemory, Message: "boom", Err: errors.New("disk on fire")})
	out = buf.String()
	assert.Contains(t, out, "err=disk on fire")
}

func TestNoOpLoggerDiscardsEverything(t *testing.T) {
	var l NoOpLogger
	assert.False(t, l.IsEnabled(LevelError))
	assert.False(t, l.IsEnabled(LevelDebug))
	// Log must not panic even though there's nowhere for the entry to go.
	l.Log(LogEntry{Level: LevelError, Category: catFatal, Message: "ignored"})
}

func TestLogifaceLoggerFiltersAndRendersThroughTheSameLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogifaceLogger(LevelWarn, &buf)

	assert.True(t, l.IsEnabled(LevelWarn), "warn is at the configured threshold")
	assert.True(t, l.IsEnabled(LevelError), "error is more severe than the configured threshold")
	assert.False(t, l.IsEnabled(LevelInfo), "info is less severe than the configured threshold")
	assert.False(t, l.IsEnabled(LevelDebug), "debug is less severe than the configured threshold")

	l.Log(LogEntry{Level: LevelError, Category: catFatal, Message: "heap exhausted"})
	out := buf.String()
	assert.True(t, strings.Contains(out, "heap exhausted"))
}

func TestLogifaceLoggerDisabledLevelNeverEnabled(t *testing.T) {
	var buf bytes.Buffer
	require.NotPanics(t, func() {
		l := NewLogifaceLogger(LevelError, &buf)
		assert.False(t, l.IsEnabled(LevelDebug))
		assert.True(t, l.IsEnabled(LevelError))
	})
}

func TestLogLevelStringRoundTrip(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Contains(t, LogLevel(99).String(), "UNKNOWN")
}
