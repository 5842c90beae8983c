// Package user looks up user accounts.
package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

var (
	// ErrUserNotFound is returned when no active user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole is returned when creating a user with an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)

// GetByUsername returns the active user with username.
func GetByUsername(ctx context.Context, db *gorm.DB, username string) (*models.User, error) {
	return first(ctx, db, "username = ? AND active = ?", username, true)
}

// GetByID returns the active user with id.
func GetByID(ctx context.Context, db *gorm.DB, id uint64) (*models.User, error) {
	return first(ctx, db, "id = ? AND active = ?", id, true)
}

// Create stores u, hashing the given plaintext password.
func Create(ctx context.Context, db *gorm.DB, u *models.User, password string) error {
	if db == nil {
		return controller.ErrDBNil
	}

	if !u.Role.Valid() {
		return ErrInvalidRole
	}

	if u.Role == models.RoleAdmin {
		u.MarketID = nil
	}

	u.Password = models.HashPassword(password)

	return controller.Storage("create user", db.WithContext(ctx).Create(u).Error)
}

// Count returns the number of stored users.
func Count(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, controller.ErrDBNil
	}

	var n int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, controller.Storage("count users", err)
	}

	return n, nil
}

func first(ctx context.Context, db *gorm.DB, query string, args ...any) (*models.User, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	var u models.User
	if err := db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, controller.Storage("get user", err)
	}

	return &u, nil
}
