// Package override stores per-branch setting values.
package override

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

const (
	branchQueryPattern = "branch_id = ?"
	cellQueryPattern   = "branch_id = ? AND setting_key = ?"
)

// Get returns the overrides of a branch as key -> value.
func Get(ctx context.Context, db *gorm.DB, branchID uint64) (map[string]string, error) {
	all, err := ForBranches(ctx, db, []uint64{branchID})
	if err != nil {
		return nil, err
	}

	if m, ok := all[branchID]; ok {
		return m, nil
	}

	return map[string]string{}, nil
}

// ForBranches returns the overrides of several branches in one query, as branch -> key -> value.
// Branches without overrides are absent from the result.
func ForBranches(ctx context.Context, db *gorm.DB, branchIDs []uint64) (map[uint64]map[string]string, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	out := make(map[uint64]map[string]string, len(branchIDs))
	if len(branchIDs) == 0 {
		return out, nil
	}

	var rows []models.BranchOverride
	if err := db.WithContext(ctx).Where("branch_id IN ?", branchIDs).Find(&rows).Error; err != nil {
		return nil, controller.Storage("get overrides", err)
	}

	for _, r := range rows {
		m, ok := out[r.BranchID]
		if !ok {
			m = make(map[string]string)
			out[r.BranchID] = m
		}

		m[r.Key] = r.Value
	}

	return out, nil
}

// Upsert writes value for the cell in a single insert-or-update statement.
func Upsert(ctx context.Context, db *gorm.DB, branchID uint64, key, value string) error {
	if db == nil {
		return controller.ErrDBNil
	}

	row := models.BranchOverride{BranchID: branchID, Key: key, Value: value}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "branch_id"}, {Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error

	return controller.Storage("upsert override", err)
}

// Delete removes the cell if present.
func Delete(ctx context.Context, db *gorm.DB, branchID uint64, key string) error {
	if db == nil {
		return controller.ErrDBNil
	}

	err := db.WithContext(ctx).Where(cellQueryPattern, branchID, key).Delete(&models.BranchOverride{}).Error

	return controller.Storage("delete override", err)
}

// DeleteAllForBranch removes every override of a branch.
func DeleteAllForBranch(ctx context.Context, db *gorm.DB, branchID uint64) (int64, error) {
	if db == nil {
		return 0, controller.ErrDBNil
	}

	result := db.WithContext(ctx).Where(branchQueryPattern, branchID).Delete(&models.BranchOverride{})
	if result.Error != nil {
		return 0, controller.Storage("delete branch overrides", result.Error)
	}

	return result.RowsAffected, nil
}

// PurgeOrphans removes overrides whose branch or definition no longer exists.
func PurgeOrphans(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, controller.ErrDBNil
	}

	tx := db.WithContext(ctx)

	result := tx.
		Where("branch_id NOT IN (?)", tx.Model(&models.Branch{}).Select("id")).
		Or("setting_key NOT IN (?)", tx.Model(&models.SettingDefinition{}).Select("setting_key")).
		Delete(&models.BranchOverride{})
	if result.Error != nil {
		return 0, controller.Storage("purge orphan overrides", result.Error)
	}

	return result.RowsAffected, nil
}
