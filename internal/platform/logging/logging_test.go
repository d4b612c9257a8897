package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Console: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("submitted %d parts", 3)
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "submitted 3 parts")
	assert.NotContains(t, out, "hidden")
}

func TestNew_FileSink(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := New(Config{
		Level:    "debug",
		Dir:      tmpDir,
		Filename: "test.log",
		Console:  &bytes.Buffer{},
	})
	require.NoError(t, err)

	logger.InfoTag("提交", "record %s stored", "rec-1")
	logger.Warn("quota", map[string]interface{}{"remaining": 0, "limit": 10})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(tmpDir, "test.log"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[提交] record rec-1 stored")
	assert.Contains(t, content, `"remaining":0`)
	assert.Equal(t, 2, strings.Count(content, "\n"))
}

func TestTaggedConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Console: &buf})
	require.NoError(t, err)

	logger.ErrorTag("审核", "failed: %s", "bad input")
	assert.Contains(t, buf.String(), "[审核] failed: bad input")
	assert.NotContains(t, buf.String(), "[错误]", "tagged lines replace the level label")
}

func TestFormatLog(t *testing.T) {
	tests := []struct {
		tag, msg, want string
	}{
		{"引导", "ready", "[引导] ready"},
		{"", "plain", "plain"},
		{"HTTP", "[HTTP] already", "[HTTP] already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatLog(tt.tag, tt.msg))
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Info("ignored")
	logger.InfoTag("x", "ignored")
	assert.NoError(t, logger.Close())
	assert.Nil(t, logger.Slog())
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	require.NotNil(t, logger)
	logger.Error("dropped")
}
