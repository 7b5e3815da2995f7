// Package cmd defines and implements the CLI commands for the showfetch
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/config"
	"github.com/calvera-dev/showfetch/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showfetch",
		Short: "Multi-source media catalog extraction pipeline",
		Long: `showfetch walks a registry of media catalog sites, fetches their listing
pages with domain failover, extracts normalized content records, and
aggregates everything into catalog and search index artifacts.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus SHOWFETCH_* env)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newResolveCmd())

	return cmd
}

// loadConfig reads the optional .env file, then builds the Config and logger
// shared by every subcommand.
func loadConfig() (config.Config, *zap.Logger, error) {
	// Missing .env is the normal case outside local development.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return config.Config{}, nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point. A non-nil command error maps to exit
// status 1; partial source failures are reported in logs, not the status.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
