package helpers

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerTagsApp(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	logger := NewLogger("blog", "production")
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.Warn("disk almost full")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "blog", line["app"])
	assert.Equal(t, "disk almost full", line["msg"])
}

func TestNewLoggerDevelopment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	logger := NewLogger("blog", "development")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
