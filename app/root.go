// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "marketops-admin",
		Short: "MarketOps-Admin manages markets, branches and their settings",
		Long: `MarketOps-Admin is the operations console of a multi market shop.
Admins maintain the setting definitions, market owners override them per branch.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			if cfg, err = config.ReadConfig(configPath); err != nil {
				return err
			}

			return logger.Init(cfg.Log)
		},
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "directory containing main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
