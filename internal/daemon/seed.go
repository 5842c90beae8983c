package daemon

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/definition"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/user"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "changeme"

	autoAcceptKey = "auto_accept"
)

// Seed creates the default admin on an empty user table and the auto_accept definition if absent.
func Seed(ctx context.Context, db *gorm.DB) error {
	count, err := user.Count(ctx, db)
	if err != nil {
		return err
	}

	if count == 0 {
		admin := &models.User{
			Username: defaultAdminUsername,
			Email:    "admin@localhost",
			Active:   true,
			Role:     models.RoleAdmin,
		}

		if err = user.Create(ctx, db, admin, defaultAdminPassword); err != nil {
			return err
		}

		log.Warn().Str("username", defaultAdminUsername).Msg("created default admin user, change its password")
	}

	exists, err := definition.Exists(ctx, db, autoAcceptKey)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = definition.Create(ctx, db, autoAcceptKey, definition.Fields{
		AppliesTo:    models.AppliesToBranches,
		ValueKind:    models.KindSwitch,
		DefaultValue: models.SwitchOff,
		Description:  "Accept incoming orders automatically",
	})

	return err
}
