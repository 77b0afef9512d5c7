// Package cmd defines the CLI commands for the enricher executable.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/config"
	"github.com/kruzhok-data/org-enricher/internal/logging"
)

var cfgFile string

// NewRootCmd creates and configures the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enricher",
		Short: "Enriches kruzhok organization records with site and social data",
		Long: `enricher takes a list of hobby-club organizations and, for each one,
checks the availability of its website, extracts page metadata, discovers
social media profiles, and resolves their follower counts. Every input
organization produces exactly one output record, in input order, no matter
how badly its probes go.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults and ENRICHER_* env vars apply without one")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// bootstrap loads the configuration and builds the root logger.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, nil
}
