// Package branch reads the branch directory of a market.
package branch

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/override"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

// ErrBranchNotFound is returned when a branch does not exist.
var ErrBranchNotFound = errors.New("branch not found")

// ListByMarket returns the branches of a market, newest first.
func ListByMarket(ctx context.Context, db *gorm.DB, marketID uint64) ([]models.Branch, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	var branches []models.Branch

	err := db.WithContext(ctx).Where("market_id = ?", marketID).Order("id DESC").Find(&branches).Error
	if err != nil {
		return nil, controller.Storage("list branches", err)
	}

	return branches, nil
}

// Get retrieves a branch by id.
func Get(ctx context.Context, db *gorm.DB, id uint64) (*models.Branch, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	var b models.Branch
	if err := db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}

		return nil, controller.Storage("get branch", err)
	}

	return &b, nil
}

// Delete removes a branch together with its overrides.
func Delete(ctx context.Context, db *gorm.DB, id uint64) error {
	if db == nil {
		return controller.ErrDBNil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Branch{}, id)
		if result.Error != nil {
			return controller.Storage("delete branch", result.Error)
		}

		if result.RowsAffected == 0 {
			return ErrBranchNotFound
		}

		_, err := override.DeleteAllForBranch(ctx, tx, id)

		return err
	})
}
