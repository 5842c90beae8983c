package branchconfig

import (
	"context"

	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/branch"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/definition"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/override"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

// Row is one resolved setting of one branch.
type Row struct {
	Key         string           `json:"key"`
	ValueKind   models.ValueKind `json:"valueKind"`
	Options     models.Options   `json:"options"`
	Description string           `json:"description"`
	Default     string           `json:"default"`
	// Override is the stored value, nil when the branch uses the default.
	Override *string `json:"override"`
	// Value is the effective value.
	Value    string `json:"value"`
	Editable bool   `json:"editable"`
	Blocked  bool   `json:"blocked"`
}

// BranchSettings are the resolved rows of one branch, in definition key order.
type BranchSettings struct {
	BranchID   uint64 `json:"branchId"`
	BranchName string `json:"branchName"`
	Rows       []Row  `json:"rows"`
}

// ResolveMarket resolves every branch of marketID, newest branch first.
func ResolveMarket(ctx context.Context, db *gorm.DB, marketID uint64, ac access.Context) ([]BranchSettings, error) {
	branches, err := branch.ListByMarket(ctx, db, marketID)
	if err != nil {
		return nil, err
	}

	return Resolve(ctx, db, branches, ac)
}

// Resolve loads the active branch definitions and the overrides of branches and merges them.
// branches must already belong to the market being viewed; their order is kept.
func Resolve(ctx context.Context, db *gorm.DB, branches []models.Branch, ac access.Context) ([]BranchSettings, error) {
	defs, err := definition.ListActive(ctx, db, models.AppliesToBranches)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(branches))
	for _, b := range branches {
		ids = append(ids, b.ID)
	}

	overrides, err := override.ForBranches(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	return Merge(defs, branches, overrides, ac), nil
}

// Merge builds the rows of every branch from definitions and stored overrides.
// Overrides are only looked up through defs, so values of unknown keys never show up.
func Merge(
	defs []models.SettingDefinition,
	branches []models.Branch,
	overrides map[uint64]map[string]string,
	ac access.Context,
) []BranchSettings {
	out := make([]BranchSettings, 0, len(branches))

	for _, b := range branches {
		stored := overrides[b.ID]
		rows := make([]Row, 0, len(defs))

		for i := range defs {
			d := &defs[i]
			if !d.IsActive() {
				continue
			}

			blocked := d.IsBlocked(b.ID)
			row := Row{
				Key:         d.Key,
				ValueKind:   d.ValueKind,
				Options:     d.Options,
				Description: d.Description,
				Default:     d.DefaultValue,
				Value:       d.DefaultValue,
				Editable:    Editable(ac, d, b.ID),
				Blocked:     blocked,
			}

			if v, ok := stored[d.Key]; ok {
				row.Override = &v
				row.Value = v
			}

			rows = append(rows, row)
		}

		out = append(out, BranchSettings{BranchID: b.ID, BranchName: b.Name, Rows: rows})
	}

	return out
}

// Editable reports whether ac may override d for branchID. Admins bypass block lists.
func Editable(ac access.Context, d *models.SettingDefinition, branchID uint64) bool {
	return ac.IsAdmin() || !d.IsBlocked(branchID)
}
