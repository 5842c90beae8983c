package models

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownValueKind is returned by ParseValueKind for anything outside the closed kind set.
var ErrUnknownValueKind = errors.New("unknown value kind")

// ValueKind tells how a setting value is entered and interpreted.
type ValueKind string

const (
	// KindSwitch is a boolean stored as "0" or "1".
	KindSwitch ValueKind = "switch"
	// KindText is a single line of free text.
	KindText ValueKind = "text"
	// KindTextarea is multi line free text.
	KindTextarea ValueKind = "textarea"
	// KindSelect is one value out of the definition's Options.
	KindSelect ValueKind = "select"
	// KindImage is a reference (path or url) to an uploaded image.
	KindImage ValueKind = "image"
)

// Grouping tags for SettingDefinition.AppliesTo.
const (
	AppliesToBranches  = "branches"
	AppliesToAppConfig = "app_config"
)

// Switch values as stored.
const (
	SwitchOff = "0"
	SwitchOn  = "1"
)

// ParseValueKind accepts a kind name case-insensitively.
func ParseValueKind(s string) (ValueKind, error) {
	k := ValueKind(strings.ToLower(strings.TrimSpace(s)))

	switch k {
	case KindSwitch, KindText, KindTextarea, KindSelect, KindImage:
		return k, nil
	default:
		return "", ErrUnknownValueKind
	}
}

// Normalize maps a submitted value to its stored form.
// Only switch values are rewritten; ok is false when a non-empty value has no meaning for the kind.
func (k ValueKind) Normalize(v string) (normalized string, ok bool) {
	if k != KindSwitch || v == "" {
		return v, true
	}

	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes":
		return SwitchOn, true
	case "0", "off", "false", "no":
		return SwitchOff, true
	default:
		return v, false
	}
}

// DefinitionStatus enables or disables a definition without deleting it.
type DefinitionStatus string

const (
	// StatusActive definitions take part in resolution.
	StatusActive DefinitionStatus = "active"
	// StatusInactive definitions are kept but never resolved.
	StatusInactive DefinitionStatus = "inactive"
)

// SettingDefinition is a typed configurable item with a default value.
// Branches may store overrides of it in BranchOverride.
type SettingDefinition struct {
	// Key is the globally unique identifier, matching ^[a-z0-9._-]{1,100}$.
	Key string `gorm:"column:setting_key;primaryKey;size:100"`
	// AppliesTo groups definitions; only "branches" is resolved per branch.
	AppliesTo string `gorm:"size:50;not null;index;default:'app_config'"`
	// ValueKind controls how values are entered and normalized.
	ValueKind ValueKind `gorm:"type:varchar(20);not null;default:'text'"`
	// DefaultValue is the effective value for every branch without an override.
	DefaultValue string `gorm:"type:text"`
	// Description is shown next to the setting.
	Description string `gorm:"type:text"`
	// Status toggles the definition.
	Status DefinitionStatus `gorm:"type:varchar(20);not null;default:'active'"`
	// Options holds the choices of a select definition.
	Options Options
	// BlockedBranchIDs lists branches a non-admin may never override.
	BlockedBranchIDs BranchIDSet `gorm:"column:blocked_branch_ids"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName of SettingDefinition.
func (SettingDefinition) TableName() string {
	return "setting_definitions"
}

// IsActive reports whether d takes part in resolution.
func (d *SettingDefinition) IsActive() bool {
	return d.Status != StatusInactive
}

// IsBlocked reports whether branchID is on the block list.
func (d *SettingDefinition) IsBlocked(branchID uint64) bool {
	return d.BlockedBranchIDs.Contains(branchID)
}
