package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.log")
	log, err := New("debug", DefaultFileConfig(path), false)
	require.NoError(t, err)

	log.Info("hello from the pipeline")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the pipeline")
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestNewNoSinksIsNop(t *testing.T) {
	log, err := New("info", FileConfig{}, false)
	require.NoError(t, err)
	log.Info("dropped")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", FileConfig{}, true)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = parseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)
}
