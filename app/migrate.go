package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/daemon"
)

func init() { //nolint: gochecknoinits
	migrateCmd.Flags().BoolVar(&seedData, "seed", true, "create the default admin and sample definitions")

	rootCmd.AddCommand(migrateCmd)
}

var (
	seedData bool

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			if err = daemon.Migrate(db); err != nil {
				return err
			}

			if seedData {
				if err = daemon.Seed(cmd.Context(), db); err != nil {
					return err
				}
			}

			log.Info().Str("engine", cfg.DB.GormEngine).Msg("database migrated")

			return nil
		},
	}
)
