// Package definition manages the registry of setting definitions.
package definition

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

const (
	keyQueryPattern       = "setting_key = ?"
	appliesToQueryPattern = "applies_to = ?"
	orderByKey            = "setting_key ASC"
)

var (
	// ErrDefinitionNotFound is returned when no definition has the requested key.
	ErrDefinitionNotFound = errors.New("setting definition not found")
	// ErrDefinitionAlreadyExists is returned when creating a key that is taken.
	ErrDefinitionAlreadyExists = errors.New("setting definition already exists")
	// ErrInvalidKey is returned when a new key does not match KeyPattern.
	ErrInvalidKey = errors.New("setting key must match " + KeyPattern)
)

// KeyPattern is the accepted format of a definition key.
const KeyPattern = `^[a-z0-9._-]{1,100}$`

var keyRegex = regexp.MustCompile(KeyPattern)

// ValidKey reports whether key can be used for a new definition.
func ValidKey(key string) bool {
	return keyRegex.MatchString(key)
}

// Fields are the mutable attributes of a definition.
type Fields struct {
	AppliesTo        string
	ValueKind        models.ValueKind
	DefaultValue     string
	Description      string
	Status           models.DefinitionStatus
	Options          models.Options
	BlockedBranchIDs models.BranchIDSet
}

// normalize fills defaults and drops what does not apply to the kind.
func (f Fields) normalize() Fields {
	if f.AppliesTo == "" {
		f.AppliesTo = models.AppliesToAppConfig
	}

	if f.ValueKind == "" {
		f.ValueKind = models.KindText
	}

	if f.Status != models.StatusInactive {
		f.Status = models.StatusActive
	}

	if f.ValueKind != models.KindSelect {
		f.Options = models.Options{}
	} else if f.Options == nil {
		f.Options = models.Options{}
	}

	f.BlockedBranchIDs = models.NewBranchIDSet(f.BlockedBranchIDs...)

	if f.ValueKind == models.KindSwitch {
		if v, ok := f.ValueKind.Normalize(f.DefaultValue); ok && v != "" {
			f.DefaultValue = v
		} else {
			f.DefaultValue = models.SwitchOff
		}
	}

	return f
}

func (f Fields) apply(d *models.SettingDefinition) {
	f = f.normalize()

	d.AppliesTo = f.AppliesTo
	d.ValueKind = f.ValueKind
	d.DefaultValue = f.DefaultValue
	d.Description = f.Description
	d.Status = f.Status
	d.Options = f.Options
	d.BlockedBranchIDs = f.BlockedBranchIDs
}

// ListActive returns the active definitions of a tag, key ascending.
func ListActive(ctx context.Context, db *gorm.DB, appliesTo string) ([]models.SettingDefinition, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	var defs []models.SettingDefinition

	err := db.WithContext(ctx).
		Where(appliesToQueryPattern, appliesTo).
		Where("status <> ?", models.StatusInactive).
		Order(orderByKey).
		Find(&defs).Error
	if err != nil {
		return nil, controller.Storage("list active definitions", err)
	}

	return defs, nil
}

// List returns every definition including inactive ones, key ascending.
// An empty appliesTo returns all tags.
func List(ctx context.Context, db *gorm.DB, appliesTo string) ([]models.SettingDefinition, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	q := db.WithContext(ctx).Order(orderByKey)
	if appliesTo != "" {
		q = q.Where(appliesToQueryPattern, appliesTo)
	}

	var defs []models.SettingDefinition
	if err := q.Find(&defs).Error; err != nil {
		return nil, controller.Storage("list definitions", err)
	}

	return defs, nil
}

// Get retrieves a definition by key.
func Get(ctx context.Context, db *gorm.DB, key string) (*models.SettingDefinition, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	var def models.SettingDefinition

	err := db.WithContext(ctx).Where(keyQueryPattern, key).First(&def).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefinitionNotFound
		}

		return nil, controller.Storage("get definition", err)
	}

	return &def, nil
}

// Exists reports whether a definition with key is stored.
func Exists(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	if db == nil {
		return false, controller.ErrDBNil
	}

	var n int64
	if err := db.WithContext(ctx).Model(&models.SettingDefinition{}).Where(keyQueryPattern, key).Count(&n).Error; err != nil {
		return false, controller.Storage("count definition", err)
	}

	return n > 0, nil
}

// Create stores a new definition. The key must be valid and unused.
func Create(ctx context.Context, db *gorm.DB, key string, f Fields) (*models.SettingDefinition, error) {
	if db == nil {
		return nil, controller.ErrDBNil
	}

	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}

	exists, err := Exists(ctx, db, key)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, ErrDefinitionAlreadyExists
	}

	def := &models.SettingDefinition{Key: key}
	f.apply(def)

	if err = db.WithContext(ctx).Create(def).Error; err != nil {
		return nil, controller.Storage("create definition", err)
	}

	return def, nil
}

// Update replaces every mutable field of an existing definition.
func Update(ctx context.Context, db *gorm.DB, key string, f Fields) (*models.SettingDefinition, error) {
	def, err := Get(ctx, db, key)
	if err != nil {
		return nil, err
	}

	f.apply(def)

	// Select("*") so zero values such as an empty description are written too
	if err = db.WithContext(ctx).Model(def).Select("*").Omit("setting_key", "created_at").Updates(def).Error; err != nil {
		return nil, controller.Storage("update definition", err)
	}

	return def, nil
}

// Upsert creates the definition if absent, otherwise replaces its mutable fields.
// The key format is only checked when creating.
func Upsert(ctx context.Context, db *gorm.DB, key string, f Fields) (*models.SettingDefinition, error) {
	exists, err := Exists(ctx, db, key)
	if err != nil {
		return nil, err
	}

	if exists {
		return Update(ctx, db, key, f)
	}

	return Create(ctx, db, key, f)
}

// Delete removes a definition. Overrides of the key are left in place.
func Delete(ctx context.Context, db *gorm.DB, key string) error {
	if db == nil {
		return controller.ErrDBNil
	}

	result := db.WithContext(ctx).Where(keyQueryPattern, key).Delete(&models.SettingDefinition{})
	if result.Error != nil {
		return controller.Storage("delete definition", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrDefinitionNotFound
	}

	return nil
}
