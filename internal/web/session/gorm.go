package session

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

// GormStorage implements fiber.Storage on the application database.
// It is used for the sqlite engine, which has no gofiber storage driver in this build.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage returns a storage writing to the web_sessions table of db.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Get returns the stored value, nil if missing or expired.
func (s *GormStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	var rows []models.Session

	err := s.db.Where("id = ? AND (expires_at IS NULL OR expires_at > ?)", key, time.Now()).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	return rows[0].Data, nil
}

// Set stores val. A zero exp never expires.
func (s *GormStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	row := models.Session{ID: key, Data: val}

	if exp > 0 {
		t := time.Now().Add(exp)
		row.ExpiresAt = &t
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&row).Error
}

// Delete removes key.
func (s *GormStorage) Delete(key string) error {
	if key == "" {
		return nil
	}

	return s.db.Where("id = ?", key).Delete(&models.Session{}).Error
}

// Reset removes every session.
func (s *GormStorage) Reset() error {
	return s.db.Where("1 = 1").Delete(&models.Session{}).Error
}

// Close is a no-op, the database is owned by the caller.
func (s *GormStorage) Close() error {
	return nil
}

// DeleteExpired removes expired sessions and returns how many were removed.
func (s *GormStorage) DeleteExpired() (int64, error) {
	result := s.db.Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).Delete(&models.Session{})

	return result.RowsAffected, result.Error
}
