package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesPipelineDefaults(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Loader.ValidateOnLoad)
	assert.Equal(t, 4, cfg.Loader.MaxBoneInfluences)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.LogFile)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	doc := `
loader:
  validate_on_load: false
  max_texture_size: 1024
logging:
  level: debug
  log_file: /tmp/assets.log
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden keys take the file's values.
	assert.False(t, cfg.Loader.ValidateOnLoad)
	assert.Equal(t, 1024, cfg.Loader.MaxTextureSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/assets.log", cfg.Logging.LogFile)

	// Untouched keys keep their defaults.
	assert.Equal(t, 4, cfg.Loader.MaxBoneInfluences)
	assert.True(t, cfg.Loader.PreloadTextures)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loader: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
