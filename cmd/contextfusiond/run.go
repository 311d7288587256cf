package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/internal/lifecycle"
	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/internal/sink"
)

type runFlags struct {
	format    string
	noPrompt  bool
	clipboard bool
	network   bool
	deep      bool
}

func newRunCmd() *cobra.Command {
	flags := runFlags{format: "json", clipboard: true, network: true, deep: true}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the headless fusion daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(flags, nil)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flags.format, "format", flags.format, "renderer output shape: text or json")
	cmd.Flags().BoolVar(&flags.noPrompt, "no-prompt", false, "do not trigger the OS accessibility prompt; fail fast if untrusted")
	cmd.Flags().BoolVar(&flags.clipboard, "clipboard", flags.clipboard, "enable the clipboard adapter")
	cmd.Flags().BoolVar(&flags.network, "network", flags.network, "enable per-app network-connection sampling")
	cmd.Flags().BoolVar(&flags.deep, "deep", flags.deep, "enable full AX mining")

	return cmd
}

func runDaemon(flags runFlags, extraSinks []sink.Sink) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cfg.Sinks.JSONText.Format = flags.format

	cfg.Monitor.EnabledAdapters = adapterSetFor(flags)

	ctrl := lifecycle.New(lifecycle.Options{
		Config:     cfg,
		ConfigPath: configPath,
		NoPrompt:   flags.noPrompt,
		ExtraSinks: extraSinks,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx); err != nil {
		if errors.Is(err, cferrors.ErrPermissionDenied) {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		return fmt.Errorf("start lifecycle controller: %w", err)
	}

	logger.Info("contextfusiond running, press Ctrl+C to stop")
	<-ctx.Done()

	ctrl.Stop()
	return nil
}

// adapterSetFor derives the structural Monitor.EnabledAdapters list from
// the CLI toggles: --clipboard=false drops the clipboard adapter;
// --deep=false drops the accessibility/script-oracle adapters the Extractor
// uses for full AX mining. The toggles are plain boolean flags, so there is
// no --no-clipboard/--no-network/--no-deep spelling. --network is parsed but
// not read anywhere: no adapter samples network connections (A.7's process
// sampler reports CPU/RSS only), and it does not change EnabledAdapters.
func adapterSetFor(flags runFlags) []string {
	adapters := []string{"workspace", "windowlist", "inputtap", "processsampler"}
	if flags.clipboard {
		adapters = append(adapters, "clipboard")
	}
	if flags.deep {
		adapters = append(adapters, "accessibility", "scriptoracle")
	}
	return adapters
}
