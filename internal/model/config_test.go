package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), cfg)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gesture:\n  long_press_ms: 800\nsync:\n  event_buffer: -3\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Gesture.LongPressMs)
	assert.Equal(t, 300, cfg.Gesture.DoubleTapMs)
	assert.Equal(t, 64, cfg.Sync.EventBuffer, "non-positive buffer falls back to default")
	assert.Equal(t, 300.0, cfg.Canvas.Jitter)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Data.DBPath = "/tmp/plotta-test.db"
	cfg.Sync.RefreshIntervalSec = 30
	cfg.Display.Theme = "dark"

	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [unterminated\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
