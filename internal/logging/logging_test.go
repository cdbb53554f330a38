package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"trace", logrus.TraceLevel},
		{"DEBUG", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tc := range tests {
		log := NewLogger(tc.input, "json", &bytes.Buffer{})
		assert.Equal(t, tc.expected, log.GetLevel(), "level %q", tc.input)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", "json", &buf)
	log.WithField("table", "archives").Info("counted")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "counted", line["msg"])
	assert.Equal(t, "archives", line["table"])

	buf.Reset()
	// A buffer is never a terminal, so auto falls back to JSON.
	log = NewLogger("info", "auto", &buf)
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger("info", "text", &buf)
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
