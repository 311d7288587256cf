// Package config loads and hot-reloads contextfusiond's YAML configuration.
//
// Fields fall into two classes: live-reloadable (ignore lists, sink
// enablement, log level) are swapped in place by Watch; structural fields
// (fuse window, adapter set) require a restart and are only logged as a
// diff when they change underneath a running process.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration tree.
type Config struct {
	Application ApplicationConfig `yaml:"application"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Fusion      FusionConfig      `yaml:"fusion"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Sinks       SinksConfig       `yaml:"sinks"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ApplicationConfig is ambient process identity and logging verbosity.
type ApplicationConfig struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	LogLevel string `yaml:"log_level"` // live-reloadable
	Debug    bool   `yaml:"debug"`
}

// MonitorConfig selects which platform adapters run and what they ignore.
// EnabledAdapters is structural (restart required); the filter lists are
// live-reloadable.
type MonitorConfig struct {
	EnabledAdapters []string     `yaml:"enabled_adapters"`
	EventBufferSize int          `yaml:"event_buffer_size"`
	Filters         FilterConfig `yaml:"filters"`
}

// FilterConfig names apps/titles the extractor should not bother enriching.
type FilterConfig struct {
	IgnoreApps         []string `yaml:"ignore_apps"`
	IgnoreWindowTitles []string `yaml:"ignore_window_titles"`
}

// FusionConfig tunes the Event Fusion Hub. All fields are structural: they
// change merge-window semantics and would produce inconsistent event
// sequences if swapped under a running Hub.
type FusionConfig struct {
	FuseWindowMs           int `yaml:"fuse_window_ms"`
	ClipboardFusionWindowMs int `yaml:"clipboard_fusion_window_ms"`
	RebindGraceMs          int `yaml:"rebind_grace_ms"`
}

// ExtractorConfig tunes the Context Extractor's soft deadline and the
// Script Oracle's response cache.
type ExtractorConfig struct {
	DeadlineMs     int `yaml:"deadline_ms"`
	OracleTTLMs    int `yaml:"oracle_ttl_ms"`
	OracleCacheCap int `yaml:"oracle_cache_cap"`
}

// SinksConfig controls which sinks are attached to the Fan-out. ApplyLive
// copies only the Enabled flags on a reload; paths and formats keep the
// values they had at startup.
type SinksConfig struct {
	JSONText      JSONTextSinkConfig      `yaml:"jsontext"`
	SQLiteArchive SQLiteArchiveSinkConfig `yaml:"sqlite_archive"`
	HostBridge    HostBridgeSinkConfig    `yaml:"host_bridge"`
}

type JSONTextSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
}

type SQLiteArchiveSinkConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Path            string `yaml:"path"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	BatchSize       int    `yaml:"batch_size"`
	FlushIntervalMs int    `yaml:"flush_interval_ms"`
}

type HostBridgeSinkConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig mirrors internal/logger's environment-driven knobs so a
// config file can set them without exporting env vars.
type LoggingConfig struct {
	Level string     `yaml:"level"` // live-reloadable
	File  FileConfig `yaml:"file"`
}

type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns the built-in configuration used when no file is
// present or a field is left unset.
func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:     "contextfusiond",
			Version:  "0.1.0",
			LogLevel: "info",
		},
		Monitor: MonitorConfig{
			EnabledAdapters: []string{
				"workspace", "windowlist", "accessibility", "inputtap",
				"clipboard", "scriptoracle", "processsampler",
			},
			EventBufferSize: 1024,
			Filters: FilterConfig{
				IgnoreApps:         []string{},
				IgnoreWindowTitles: []string{},
			},
		},
		Fusion: FusionConfig{
			FuseWindowMs:            300,
			ClipboardFusionWindowMs: 500,
			RebindGraceMs:           150,
		},
		Extractor: ExtractorConfig{
			DeadlineMs:     100,
			OracleTTLMs:    200,
			OracleCacheCap: 256,
		},
		Sinks: SinksConfig{
			JSONText: JSONTextSinkConfig{Enabled: true, Format: "json"},
			SQLiteArchive: SQLiteArchiveSinkConfig{
				Enabled:         false,
				Path:            "~/.contextfusiond/events.db",
				MaxOpenConns:    4,
				MaxIdleConns:    2,
				ConnMaxLifetime: "1h",
				BatchSize:       50,
				FlushIntervalMs: 1000,
			},
			HostBridge: HostBridgeSinkConfig{Enabled: false},
		},
		Logging: LoggingConfig{
			Level: "info",
			File: FileConfig{
				MaxSizeMB:  100,
				MaxBackups: 3,
				MaxAgeDays: 7,
				Compress:   true,
			},
		},
	}
}

// ConfigPath returns the default config file location, $HOME/.contextfusiond/config.yaml.
func ConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(homeDir, ".contextfusiond", "config.yaml")
}

// Load reads path, falling back to DefaultConfig when the file is absent,
// then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides lets CONTEXTFUSION_LOG_LEVEL / CONTEXTFUSION_DEBUG
// override the file-loaded values, matching the teacher's env-override
// convention for containerized/CLI runs.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CONTEXTFUSION_LOG_LEVEL"); v != "" {
		c.Application.LogLevel = v
		c.Logging.Level = v
	}
	if v := os.Getenv("CONTEXTFUSION_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Application.Debug = b
		}
	}
}

// Validate rejects configurations that would violate an invariant of the
// components that consume them (non-positive windows, empty adapter set).
func (c *Config) Validate() error {
	if len(c.Monitor.EnabledAdapters) == 0 {
		return fmt.Errorf("monitor.enabled_adapters must not be empty")
	}
	if c.Monitor.EventBufferSize <= 0 {
		return fmt.Errorf("monitor.event_buffer_size must be positive")
	}
	if c.Fusion.FuseWindowMs <= 0 {
		return fmt.Errorf("fusion.fuse_window_ms must be positive")
	}
	if c.Fusion.ClipboardFusionWindowMs <= 0 {
		return fmt.Errorf("fusion.clipboard_fusion_window_ms must be positive")
	}
	if c.Extractor.DeadlineMs <= 0 {
		return fmt.Errorf("extractor.deadline_ms must be positive")
	}
	switch strings.ToLower(c.Sinks.JSONText.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("sinks.jsontext.format must be json or text, got %q", c.Sinks.JSONText.Format)
	}
	return nil
}

// Clone deep-copies the slices that Diff/ApplyLive mutate independently.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Monitor.EnabledAdapters = append([]string(nil), c.Monitor.EnabledAdapters...)
	cp.Monitor.Filters.IgnoreApps = append([]string(nil), c.Monitor.Filters.IgnoreApps...)
	cp.Monitor.Filters.IgnoreWindowTitles = append([]string(nil), c.Monitor.Filters.IgnoreWindowTitles...)
	return &cp
}

// StructuralDiff reports which restart-required fields differ between c and
// other, by name, for logging when a hot-reload detects but cannot apply
// a structural change.
func (c *Config) StructuralDiff(other *Config) []string {
	var changed []string
	if !stringSliceEqual(c.Monitor.EnabledAdapters, other.Monitor.EnabledAdapters) {
		changed = append(changed, "monitor.enabled_adapters")
	}
	if c.Fusion != other.Fusion {
		changed = append(changed, "fusion")
	}
	if c.Extractor != other.Extractor {
		changed = append(changed, "extractor")
	}
	return changed
}

// ApplyLive copies the live-reloadable fields from other into c in place.
func (c *Config) ApplyLive(other *Config) {
	c.Application.LogLevel = other.Application.LogLevel
	c.Application.Debug = other.Application.Debug
	c.Monitor.Filters = FilterConfig{
		IgnoreApps:         append([]string(nil), other.Monitor.Filters.IgnoreApps...),
		IgnoreWindowTitles: append([]string(nil), other.Monitor.Filters.IgnoreWindowTitles...),
	}
	c.Sinks.JSONText.Enabled = other.Sinks.JSONText.Enabled
	c.Sinks.SQLiteArchive.Enabled = other.Sinks.SQLiteArchive.Enabled
	c.Sinks.HostBridge.Enabled = other.Sinks.HostBridge.Enabled
	c.Logging.Level = other.Logging.Level
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
