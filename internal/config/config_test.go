package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Monitor.EnabledAdapters, cfg.Monitor.EnabledAdapters)
}

func TestLoad_ParsesOverridesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fusion:\n  fuse_window_ms: 500\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Fusion.FuseWindowMs)
	assert.Equal(t, DefaultConfig().Sinks.JSONText.Format, cfg.Sinks.JSONText.Format)
}

func TestLoad_RejectsInvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sinks:\n  jsontext:\n    format: xml\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_RejectsEmptyAdapterSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Monitor.EnabledAdapters = nil
	assert.Error(t, cfg.Validate())
}

func TestApplyEnvOverrides_LogLevel(t *testing.T) {
	t.Setenv("CONTEXTFUSION_LOG_LEVEL", "debug")
	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "debug", cfg.Application.LogLevel)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestStructuralDiff_DetectsAdapterSetChange(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	b.Monitor.EnabledAdapters = []string{"workspace"}
	diff := a.StructuralDiff(b)
	assert.Contains(t, diff, "monitor.enabled_adapters")
}

func TestApplyLive_CopiesOnlyLiveFields(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	b.Application.LogLevel = "debug"
	b.Monitor.EnabledAdapters = []string{"workspace"}

	a.ApplyLive(b)
	assert.Equal(t, "debug", a.Application.LogLevel)
	assert.NotEqual(t, b.Monitor.EnabledAdapters, a.Monitor.EnabledAdapters)
}

func TestClone_DeepCopiesSlices(t *testing.T) {
	a := DefaultConfig()
	b := a.Clone()
	b.Monitor.EnabledAdapters[0] = "mutated"
	assert.NotEqual(t, a.Monitor.EnabledAdapters[0], b.Monitor.EnabledAdapters[0])
}
