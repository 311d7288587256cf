package main

import (
	"context"
	"embed"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/lifecycle"
	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/internal/sink"
	"github.com/open-runtime/contextfusion/internal/sink/hostbridge"
)

//go:embed all:frontend/dist
var assets embed.FS

// guiApp is the Wails-bound surface: it owns nothing of its own besides
// the lifecycle.Controller, started on OnStartup and stopped on OnShutdown
// the same way the headless `run` subcommand drives it, with one addition
// the hostbridge sink forwarding every event to the webview over
// runtime.EventsEmit.
type guiApp struct {
	flags runFlags
	ctrl  *lifecycle.Controller
}

func (g *guiApp) startup(ctx context.Context) {
	bridge := hostbridge.New(ctx)
	if err := runDaemonInto(g, []sink.Sink{bridge}); err != nil {
		logger.Error("gui startup failed", zap.Error(err))
	}
}

func (g *guiApp) shutdown(context.Context) {
	if g.ctrl != nil {
		g.ctrl.Stop()
	}
}

func newGUICmd() *cobra.Command {
	flags := runFlags{format: "json", clipboard: true, network: true, deep: true}

	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Run the fusion engine behind a Wails webview host bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", flags.format, "renderer output shape: text or json")
	cmd.Flags().BoolVar(&flags.noPrompt, "no-prompt", false, "do not trigger the OS accessibility prompt; fail fast if untrusted")
	cmd.Flags().BoolVar(&flags.clipboard, "clipboard", flags.clipboard, "enable the clipboard adapter")
	cmd.Flags().BoolVar(&flags.network, "network", flags.network, "enable per-app network-connection sampling")
	cmd.Flags().BoolVar(&flags.deep, "deep", flags.deep, "enable full AX mining")

	return cmd
}

func runGUI(flags runFlags) error {
	app := &guiApp{flags: flags}

	return wails.Run(&options.App{
		Title:  "contextfusiond",
		Width:  480,
		Height: 320,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
	})
}

// runDaemonInto starts the lifecycle controller for g, using the given
// extra sinks (the hostbridge sink, in practice) in addition to whatever
// internal/config enables. The controller is stored on g so shutdown can
// reach it.
func runDaemonInto(g *guiApp, extraSinks []sink.Sink) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Sinks.JSONText.Format = g.flags.format
	cfg.Monitor.EnabledAdapters = adapterSetFor(g.flags)

	g.ctrl = lifecycle.New(lifecycle.Options{
		Config:     cfg,
		ConfigPath: configPath,
		NoPrompt:   g.flags.noPrompt,
		ExtraSinks: extraSinks,
	})

	return g.ctrl.Start(context.Background())
}
