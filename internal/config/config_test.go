package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Adapters)
}

func TestLoadDiscoversClosestFile(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg", "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(root, "testingls.toml"), []byte(`log-level = "error"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".testingls.toml"), []byte(`log-level = "debug"`), 0o644))

	cfg, err := config.Load(sub, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(sub, ".testingls.toml"), cfg.ConfigFile)
}

func TestLoadFileWinsOverInitializationOptions(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "testingls.toml"), []byte(`log-level = "error"`), 0o644))

	cfg, err := config.Load(root, map[string]any{"log-level": "debug"})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadInitializationOptionsUsedWhenNoFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := config.Load(root, map[string]any{"log-level": "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadNoConfigFileUsesDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Load(root, nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ConfigFile)
}
