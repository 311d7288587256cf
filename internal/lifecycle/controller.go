// Package lifecycle implements the Controller (spec §4.G): the 5-step
// startup sequence, its reverse teardown, and WaitForAccessibility, a
// helper that re-queries accessibility trust on a fixed cadence. Start
// itself fails when the permission is denied; the engine does not run
// degraded without it.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/internal/config"
	"github.com/open-runtime/contextfusion/internal/extractor"
	"github.com/open-runtime/contextfusion/internal/fusion"
	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/internal/scheduler"
	"github.com/open-runtime/contextfusion/internal/sink"
	"github.com/open-runtime/contextfusion/internal/sink/jsontext"
	"github.com/open-runtime/contextfusion/internal/sink/sqlitearchive"
	"github.com/open-runtime/contextfusion/internal/store"
)

// recheckInterval is the cadence at which WaitForAccessibility re-queries
// accessibility trust. Nothing in the Controller calls WaitForAccessibility;
// a denied Start returns an error to its caller.
const recheckInterval = 30 * time.Second

// Options carries the flag-derived overrides a CLI layer applies on top of
// the loaded Config before Start, plus the host process's writer for the
// jsontext sink and whether the OS accessibility prompt may fire.
type Options struct {
	Config      *config.Config
	ConfigPath  string
	Stdout      *os.File
	NoPrompt    bool
	ExtraSinks  []sink.Sink
	PermChecker platform.PermissionChecker
}

// Controller sequences startup and teardown of every long-lived component:
// the Scheduler, the five polling/observing adapters, the Fusion Hub, and
// the Sink Fan-out. It is constructed fresh per process run.
type Controller struct {
	cfg         *config.Config
	configPath  string
	permChecker platform.PermissionChecker
	noPrompt    bool
	extraSinks  []sink.Sink
	stdout      *os.File

	cfgLoader *config.Loader

	scheduler *scheduler.Scheduler
	fanin     *scheduler.FanIn
	adapters  []startedAdapter
	hub       *fusion.Hub
	fanout    *sink.Fanout
	archive   *sqlitearchive.Sink

	hubCtx    context.Context
	hubCancel context.CancelFunc
}

type startedAdapter struct {
	name    string
	adapter platform.Adapter
}

// New builds a Controller from opts. A nil PermChecker falls back to
// platform.NewPermissionChecker(); tests supply a fake to avoid depending
// on the real OS prompt.
func New(opts Options) *Controller {
	pc := opts.PermChecker
	if pc == nil {
		pc = platform.NewPermissionChecker()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Controller{
		cfg:         opts.Config,
		configPath:  opts.ConfigPath,
		permChecker: pc,
		noPrompt:    opts.NoPrompt,
		extraSinks:  opts.ExtraSinks,
		stdout:      stdout,
	}
}

// Start runs the spec §4.G startup sequence. It returns cferrors.ErrPermissionDenied
// (wrapped) if accessibility trust cannot be obtained, which the CLI layer
// maps to exit code 1.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.ensureAccessibilityTrust(); err != nil {
		return err
	}

	if err := platform.SetAgentActivationPolicy(); err != nil {
		logger.Warn("failed to set agent activation policy", zap.Error(err))
	}

	c.scheduler = scheduler.New()
	c.scheduler.Start()

	c.fanin = scheduler.NewFanIn(c.cfg.Monitor.EventBufferSize)

	enabledAdapters := make(map[string]bool, len(c.cfg.Monitor.EnabledAdapters))
	for _, name := range c.cfg.Monitor.EnabledAdapters {
		enabledAdapters[name] = true
	}

	var ax extractor.AccessibilityQuerier
	if enabledAdapters[platform.AdapterAccessibility] {
		ax = platform.NewAccessibilityAdapter()
	}
	var oracle extractor.ScriptRunner
	if enabledAdapters[platform.AdapterScriptOracle] {
		oracle = platform.NewScriptOracle(
			250*time.Millisecond,
			time.Duration(c.cfg.Extractor.OracleTTLMs)*time.Millisecond,
			c.cfg.Extractor.OracleCacheCap,
		)
	}
	ext := extractor.New(ax, oracle)
	ext.Deadline = time.Duration(c.cfg.Extractor.DeadlineMs) * time.Millisecond

	fanout, err := c.buildSinks()
	if err != nil {
		c.scheduler.Stop(2 * time.Second)
		return fmt.Errorf("build sinks: %w", err)
	}
	c.fanout = fanout

	st := store.New()
	hubCfg := fusion.Config{
		FuseWindow:            time.Duration(c.cfg.Fusion.FuseWindowMs) * time.Millisecond,
		ClipboardFusionWindow: time.Duration(c.cfg.Fusion.ClipboardFusionWindowMs) * time.Millisecond,
		RebindGrace:           time.Duration(c.cfg.Fusion.RebindGraceMs) * time.Millisecond,
		SecondaryDebounce:     fusion.DefaultConfig().SecondaryDebounce,
	}
	c.hub = fusion.New(hubCfg, c.fanin.Out(), ext, st, fanout)

	if err := c.startAdapters(ctx, enabledAdapters); err != nil {
		c.Stop()
		return fmt.Errorf("start adapters: %w", err)
	}

	c.hubCtx, c.hubCancel = context.WithCancel(ctx)
	go c.fanin.Run()
	go c.hub.Run(c.hubCtx)

	c.seedFromFrontmostApp()

	c.startConfigWatch()

	logger.Info("lifecycle controller started", zap.Int("adapters", len(c.adapters)))
	return nil
}

// startConfigWatch wires internal/config's fsnotify-backed hot reload, if a
// config path was given. Structural field changes are logged by the loader
// itself rather than applied, since the Scheduler, FanIn, and Hub are
// already constructed with the values in effect at Start.
func (c *Controller) startConfigWatch() {
	if c.configPath == "" {
		return
	}
	l := config.NewLoader(c.configPath)
	if _, err := l.Load(); err != nil {
		logger.Warn("config hot-reload disabled", zap.Error(err))
		return
	}
	if err := l.Watch(); err != nil {
		logger.Warn("config hot-reload disabled", zap.Error(err))
		return
	}
	c.cfgLoader = l
}

// ensureAccessibilityTrust implements spec §4.G step 1: query, optionally
// prompt and re-query, fail with a diagnostic if still absent.
func (c *Controller) ensureAccessibilityTrust() error {
	status := c.permChecker.CheckPermission(platform.PermissionAccessibility)
	if status == platform.PermissionStatusGranted {
		return nil
	}

	if !c.noPrompt {
		if err := c.permChecker.RequestPermission(platform.PermissionAccessibility); err != nil {
			logger.Warn("accessibility prompt failed", zap.Error(err))
		}
		status = c.permChecker.CheckPermission(platform.PermissionAccessibility)
	}

	if status == platform.PermissionStatusGranted {
		return nil
	}

	logger.Error("accessibility permission not granted, cannot start")
	return fmt.Errorf("%w: grant Accessibility access in System Settings and restart", cferrors.ErrPermissionDenied)
}

// WaitForAccessibility blocks, polling on a 30-second cadence (spec §4.G,
// §7 PermissionDenied), until the permission is granted or ctx is done. A
// CLI invoked with --no-prompt and denied at launch can use this to retry
// Start without busy-looping the whole process.
func (c *Controller) WaitForAccessibility(ctx context.Context) error {
	ticker := time.NewTicker(recheckInterval)
	defer ticker.Stop()
	for {
		if c.permChecker.CheckPermission(platform.PermissionAccessibility) == platform.PermissionStatusGranted {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Controller) buildSinks() (*sink.Fanout, error) {
	var sinks []sink.Sink

	if c.cfg.Sinks.JSONText.Enabled {
		format := jsontext.FormatJSON
		if strings.EqualFold(c.cfg.Sinks.JSONText.Format, "text") {
			format = jsontext.FormatText
		}
		sinks = append(sinks, jsontext.New(c.stdout, format))
	}

	if c.cfg.Sinks.SQLiteArchive.Enabled {
		lifetime, err := time.ParseDuration(c.cfg.Sinks.SQLiteArchive.ConnMaxLifetime)
		if err != nil {
			lifetime = time.Hour
		}
		archiveCfg := sqlitearchive.Config{
			Path:            expandHome(c.cfg.Sinks.SQLiteArchive.Path),
			MaxOpenConns:    c.cfg.Sinks.SQLiteArchive.MaxOpenConns,
			MaxIdleConns:    c.cfg.Sinks.SQLiteArchive.MaxIdleConns,
			ConnMaxLifetime: lifetime,
			BatchSize:       c.cfg.Sinks.SQLiteArchive.BatchSize,
			FlushInterval:   time.Duration(c.cfg.Sinks.SQLiteArchive.FlushIntervalMs) * time.Millisecond,
		}
		if err := os.MkdirAll(filepath.Dir(archiveCfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
		archive, err := sqlitearchive.New(archiveCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite archive: %w", err)
		}
		c.archive = archive
		sinks = append(sinks, archive)
	}

	sinks = append(sinks, c.extraSinks...)

	return sink.New(sinks...), nil
}

// startAdapters implements spec §4.G step 4: Workspace, WindowList,
// InputTap, Clipboard, Process Sampler, started in that fixed order and
// attached to the FanIn. ScriptOracle and Accessibility are query-only
// collaborators of the Extractor, not streaming adapters, so they are not
// started here even when listed in EnabledAdapters.
func (c *Controller) startAdapters(ctx context.Context, enabled map[string]bool) error {
	order := []struct {
		name    string
		factory func() platform.Adapter
	}{
		{platform.AdapterWorkspace, func() platform.Adapter { return platform.NewWorkspaceAdapter() }},
		{platform.AdapterWindowList, func() platform.Adapter { return platform.NewWindowListAdapter() }},
		{platform.AdapterInputTap, func() platform.Adapter { return platform.NewInputTapAdapter() }},
		{platform.AdapterClipboard, func() platform.Adapter { return platform.NewClipboardAdapter() }},
		{platform.AdapterProcessSampler, func() platform.Adapter { return platform.NewProcessSampler() }},
	}

	for _, entry := range order {
		if !enabled[entry.name] {
			continue
		}
		a := entry.factory()
		ch, err := a.Start(ctx)
		if err != nil {
			logger.Warn("adapter unavailable, continuing degraded",
				zap.String("adapter", entry.name), zap.Error(err))
			continue
		}
		c.fanin.Attach(ctx, ch)
		c.adapters = append(c.adapters, startedAdapter{name: entry.name, adapter: a})
		logger.Info("adapter started", zap.String("adapter", entry.name))
	}

	if len(c.adapters) == 0 {
		return fmt.Errorf("%w: no adapters could be started", cferrors.ErrSourceUnavailable)
	}
	return nil
}

// seedFromFrontmostApp implements spec §4.G step 5 by pushing a synthetic
// activation observation for the current frontmost app through the normal
// FanIn/Hub pipeline: onActivate already seeds the State Store, requests
// the initial ContextSnapshot, and emits app_switch{from=None}, so no
// separate Hub entry point is needed here.
func (c *Controller) seedFromFrontmostApp() {
	app, err := platform.FrontmostApp()
	if err != nil {
		logger.Warn("could not determine frontmost app at startup", zap.Error(err))
		return
	}

	seed := make(chan platform.Observation, 1)
	seed <- platform.Observation{
		Kind:      platform.ObsAppActivate,
		PID:       app.PID,
		Timestamp: time.Now(),
		App:       app,
	}
	close(seed)
	c.fanin.Attach(c.hubCtx, seed)
}

// Stop reverses step 4/3 of startup: adapters stop (releasing their OS
// subscriptions), then the Hub drains and exits, then the Scheduler's
// worker and run-loop threads are joined, then sinks are closed.
func (c *Controller) Stop() {
	if c.cfgLoader != nil {
		if err := c.cfgLoader.Close(); err != nil {
			logger.Warn("config loader close failed", zap.Error(err))
		}
	}

	for i := len(c.adapters) - 1; i >= 0; i-- {
		a := c.adapters[i]
		if err := a.adapter.Stop(); err != nil {
			logger.Warn("adapter stop failed", zap.String("adapter", a.name), zap.Error(err))
		}
	}

	if c.hubCancel != nil {
		c.hubCancel()
	}
	if c.hub != nil {
		c.hub.Stop()
	}

	if c.scheduler != nil {
		c.scheduler.Stop(2 * time.Second)
	}

	if c.archive != nil {
		if err := c.archive.Close(); err != nil {
			logger.Warn("archive sink close failed", zap.Error(err))
		}
	}

	logger.Info("lifecycle controller stopped")
}

// Dropped reports the observation queue's overflow counter (spec §5's
// "counts drops in a metric").
func (c *Controller) Dropped() uint64 {
	if c.fanin == nil {
		return 0
	}
	return c.fanin.Dropped()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
