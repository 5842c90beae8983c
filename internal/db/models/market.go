package models

import "time"

// Market is a tenant owning a set of branches.
type Market struct {
	// ID is the unique identifier for the market.
	ID uint64 `gorm:"primaryKey"`
	// Name is the display name.
	Name string `gorm:"size:255;not null"`
	// Branches of this market.
	Branches  []Branch `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
