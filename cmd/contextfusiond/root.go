// Command contextfusiond is the Context Fusion Engine's daemon: it
// multiplexes macOS event sources into a stream of ContextEvent/
// ClipboardEvent values and pushes them to the configured sinks until
// interrupted.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-runtime/contextfusion/internal/config"
	"github.com/open-runtime/contextfusion/internal/logger"
)

var configPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contextfusiond",
		Short: "Fuse macOS event sources into a single annotated context stream",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.InitLogger()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", config.ConfigPath(), "path to config.yaml")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newGUICmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
