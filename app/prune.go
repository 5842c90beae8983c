package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/daemon"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/override"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/session"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove orphaned branch overrides and expired sessions",
	Long: `prune deletes branch overrides whose branch or setting definition no longer exists.
Deleting a definition keeps its overrides. Until prune runs, creating the same key
again brings those overrides back into effect; after prune the new definition starts clean.
With the sqlite engine it also removes expired login sessions; the mysql and postgres
session storages expire sessions on their own.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := daemon.OpenDB(&cfg)
		if err != nil {
			return err
		}

		n, err := override.PurgeOrphans(cmd.Context(), db)
		if err != nil {
			return err
		}

		log.Info().Int64("rows", n).Msg("orphaned branch overrides removed")

		if cfg.DB.GormEngine != config.EngineSQLite {
			return nil
		}

		expired, err := session.NewGormStorage(db).DeleteExpired()
		if err != nil {
			return err
		}

		log.Info().Int64("rows", expired).Msg("expired sessions removed")

		return nil
	},
}
