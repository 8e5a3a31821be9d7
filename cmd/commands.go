package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/fleet-monitor/config"
	apperrors "github.com/angeloszaimis/fleet-monitor/internal/errors"
	"github.com/angeloszaimis/fleet-monitor/internal/inventory"
)

type rootOptions struct {
	configFile string
	overrides  config.Overrides
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var failOnInvestigation bool

	sweep := func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd.Context(), opts, failOnInvestigation)
	}

	root := &cobra.Command{
		Use:           "fleet-monitor",
		Short:         "Check the health of every active server in the fleet inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          sweep,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to config.yaml (default ./config/config.yaml or ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.overrides.InventoryFile, "inventory", "", "Path to the fleet inventory (overrides inventory.file)")
	root.PersistentFlags().IntVar(&opts.overrides.Workers, "workers", 0, "Hosts checked in parallel (overrides sweep.workers)")
	root.PersistentFlags().StringVar(&opts.overrides.LogLevel, "log-level", "", "debug|info|warn|error (overrides logging.level)")
	root.PersistentFlags().BoolVar(&failOnInvestigation, "fail-on-investigation", false, "Exit with status 5 when any host needs investigation")

	root.AddCommand(
		&cobra.Command{
			Use:   "sweep",
			Short: "Run one health sweep and publish the report (default)",
			Args:  cobra.NoArgs,
			RunE:  sweep,
		},
		newValidateCommand(opts),
	)
	return root
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and inventory without probing any host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile, opts.overrides)
			if err != nil {
				return apperrors.ConfigError("invalid configuration", err)
			}
			inv, err := inventory.Load(cfg.Inventory.File)
			if err != nil {
				return apperrors.InventoryError("invalid inventory", err)
			}

			targets := inv.Targets()
			active := inv.Active()
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK (environment %s)\n", cfg.Environment)
			fmt.Fprintf(cmd.OutOrStdout(), "Inventory %s: %d targets, %d active, %d inactive\n",
				cfg.Inventory.File, len(targets), len(active), len(targets)-len(active))
			for _, t := range active {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s ssh=%s http=%s\n", t.Host(), t.SSHAddress(), t.Endpoint())
			}
			return nil
		},
	}
}
