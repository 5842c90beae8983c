package models

import "time"

// BranchOverride stores a branch specific value for a SettingDefinition.
// A row only exists while the value differs from the definition default.
type BranchOverride struct {
	BranchID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	Key       string `gorm:"column:setting_key;primaryKey;size:100"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName of BranchOverride.
func (BranchOverride) TableName() string {
	return "branch_overrides"
}
