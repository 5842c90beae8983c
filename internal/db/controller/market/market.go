// Package market reads markets.
package market

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

// ErrMarketNotFound is returned when a market does not exist.
var ErrMarketNotFound = errors.New("market not found")

// Get retrieves a market by id.
func Get(ctx context.Context, db *gorm.DB, id uint64) (*models.Market, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	var m models.Market
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMarketNotFound
		}

		return nil, controller.Storage("get market", err)
	}

	return &m, nil
}
