package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		format        string
		expectedLevel logrus.Level
		expectJSON    bool
	}{
		{name: "defaults", expectedLevel: logrus.InfoLevel},
		{name: "debug json", level: "debug", format: "json", expectedLevel: logrus.DebugLevel, expectJSON: true},
		{name: "case insensitive", level: "WARN", format: "JSON", expectedLevel: logrus.WarnLevel, expectJSON: true},
		{name: "invalid level", level: "loud", expectedLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithOutput(tt.level, tt.format, &buf)

			assert.Equal(t, tt.expectedLevel, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestInvalidLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	NewWithOutput("loud", "text", &buf)
	assert.Contains(t, buf.String(), "Invalid LOG_LEVEL")
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", "json", &buf)

	WithRun(log, "abc").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "hello", entry["msg"])
}
