package debuglog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{" info ", LevelInfo},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"none", LevelOff},
		{"verbose", LevelInfo}, // unknown falls back to INFO
		{"", LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLogLevel(tt.input), "ParseLogLevel(%q)", tt.input)
	}
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestSetupWritesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "radar.log")

	require.NoError(t, Setup(LevelInfo, logPath))
	assert.Equal(t, LevelInfo, GetLevel())

	Debugf("debug message")
	Infof("info message")
	Warnf("warn %d", 2)
	require.NoError(t, Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	out := string(content)
	assert.NotContains(t, out, "debug message")
	assert.Contains(t, out, "[INFO] info message")
	assert.Contains(t, out, "[WARN] warn 2")
}

func TestLevelOffDropsEverything(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelOff, &buf)
	defer SetOutput(LevelOff, nil)

	Errorf("should not appear")
	assert.Empty(t, buf.String())
}

func TestFieldLoggerSortsFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelDebug, &buf)
	defer SetOutput(LevelOff, nil)

	WithFields(Fields{"source": "THE BRIDGE", "count": 3}).Warnf("fetch failed")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "fetch failed [count=3 source=THE BRIDGE]"), line)
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(LevelDebug, &buf)
	defer SetOutput(LevelOff, nil)

	SetLevel(LevelError)
	Warnf("quiet")
	Errorf("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
