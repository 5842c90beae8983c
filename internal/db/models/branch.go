package models

import "time"

// Branch is a location of a Market. Settings are overridden per branch.
type Branch struct {
	// ID is the unique identifier for the branch.
	ID uint64 `gorm:"primaryKey"`
	// MarketID is the owning market.
	MarketID uint64 `gorm:"not null;index"`
	// Name is the display name.
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
