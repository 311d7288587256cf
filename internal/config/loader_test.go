package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadReturnsCurrentConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fusion:\n  fuse_window_ms: 400\n"), 0o644))

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Fusion.FuseWindowMs)
	assert.Same(t, cfg, l.Config())
}

func TestLoader_WatchAppliesLiveFieldOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("application:\n  log_level: info\n"), 0o644))

	l := NewLoader(path)
	_, err := l.Load()
	require.NoError(t, err)
	require.NoError(t, l.Watch())
	defer l.Close()

	changed := make(chan *Config, 1)
	l.OnChange(func(cfg *Config) { changed <- cfg })

	require.NoError(t, os.WriteFile(path, []byte("application:\n  log_level: debug\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "debug", cfg.Application.LogLevel)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}

func TestLoader_CloseStopsWatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	l := NewLoader(path)
	_, err := l.Load()
	require.NoError(t, err)
	require.NoError(t, l.Watch())
	assert.NoError(t, l.Close())
}
