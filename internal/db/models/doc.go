// Package models contains database model definitions.
package models

// All lists every table of the application in migration order.
func All() []any {
	return []any{
		&Market{},
		&Branch{},
		&SettingDefinition{},
		&BranchOverride{},
		&User{},
		&Session{},
	}
}
