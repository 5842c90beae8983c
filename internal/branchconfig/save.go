package branchconfig

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/branch"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/definition"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/override"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

// Submission holds the submitted cells as branch -> key -> value.
// Cells that are absent are left as they are.
type Submission map[uint64]map[string]string

// OutcomeKind is what happened to a submitted cell.
type OutcomeKind int

const (
	// Applied cells were written or reverted to the default.
	Applied OutcomeKind = iota
	// Skipped cells were dropped without touching stored state.
	Skipped
	// Failed cells hit a storage error; the batch stops there.
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SkipReason tells why a cell was skipped.
type SkipReason string

const (
	// SkipUnknownKey is an inactive or missing branch definition.
	SkipUnknownKey SkipReason = "unknown_key"
	// SkipBlocked is a blocked branch for a non admin.
	SkipBlocked SkipReason = "blocked"
	// SkipForeignBranch is a branch outside the market the batch was posted to.
	SkipForeignBranch SkipReason = "foreign_branch"
	// SkipInvalidValue is a value the definition kind cannot hold.
	SkipInvalidValue SkipReason = "invalid_value"
)

// Action is the stored state change of an applied cell.
type Action string

const (
	// ActionUpserted stored an override.
	ActionUpserted Action = "upserted"
	// ActionDeleted removed the override so the default applies.
	ActionDeleted Action = "deleted"
)

// CellOutcome is the result of one submitted cell.
type CellOutcome struct {
	BranchID uint64
	Key      string
	Kind     OutcomeKind
	Reason   SkipReason
	Action   Action
	Err      error
}

// Result lists the outcome of every visited cell, in branch then key order.
type Result struct {
	Cells []CellOutcome
}

// Count returns the number of cells with kind k.
func (r Result) Count(k OutcomeKind) int {
	n := 0

	for _, c := range r.Cells {
		if c.Kind == k {
			n++
		}
	}

	return n
}

// Success reports whether no cell failed.
func (r Result) Success() bool {
	return r.Count(Failed) == 0
}

// SaveAll applies sub to the branches of marketID as ac.
// Definitions and branches are loaded once for the whole batch. A storage error stops the
// batch and is returned together with the outcomes collected so far.
func SaveAll(ctx context.Context, db *gorm.DB, marketID uint64, ac access.Context, sub Submission) (Result, error) {
	var res Result

	defs, err := definition.ListActive(ctx, db, models.AppliesToBranches)
	if err != nil {
		return res, err
	}

	index := make(map[string]*models.SettingDefinition, len(defs))
	for i := range defs {
		index[defs[i].Key] = &defs[i]
	}

	branches, err := branch.ListByMarket(ctx, db, marketID)
	if err != nil {
		return res, err
	}

	inMarket := make(map[uint64]struct{}, len(branches))
	for _, b := range branches {
		inMarket[b.ID] = struct{}{}
	}

	for _, branchID := range sortedBranchIDs(sub) {
		cells := sub[branchID]

		for _, key := range sortedKeys(cells) {
			o := saveCell(ctx, db, ac, inMarket, index, branchID, key, cells[key])
			countOutcome(o)
			res.Cells = append(res.Cells, o)

			if o.Kind == Failed {
				return res, o.Err
			}
		}
	}

	log.Debug().Uint64("market_id", marketID).Uint64("user_id", ac.UserID).
		Int("applied", res.Count(Applied)).Int("skipped", res.Count(Skipped)).
		Msg("branch config saved")

	return res, nil
}

func saveCell(
	ctx context.Context,
	db *gorm.DB,
	ac access.Context,
	inMarket map[uint64]struct{},
	index map[string]*models.SettingDefinition,
	branchID uint64,
	key, submitted string,
) CellOutcome {
	o := CellOutcome{BranchID: branchID, Key: key, Kind: Skipped}

	if _, ok := inMarket[branchID]; !ok {
		o.Reason = SkipForeignBranch
		return o
	}

	d, ok := index[key]
	if !ok {
		o.Reason = SkipUnknownKey
		return o
	}

	if !Editable(ac, d, branchID) {
		o.Reason = SkipBlocked
		return o
	}

	// kind check, independent of the block list: malformed switch or select values are never stored
	value, ok := d.ValueKind.Normalize(submitted)
	if !ok || (value != "" && d.ValueKind == models.KindSelect && len(d.Options) > 0 && !d.Options.Has(value)) {
		o.Reason = SkipInvalidValue
		return o
	}

	var err error

	if value == "" || looseEqual(value, d.DefaultValue) {
		o.Action = ActionDeleted
		err = override.Delete(ctx, db, branchID, key)
	} else {
		o.Action = ActionUpserted
		err = override.Upsert(ctx, db, branchID, key, value)
	}

	if err != nil {
		return CellOutcome{BranchID: branchID, Key: key, Kind: Failed, Action: o.Action, Err: err}
	}

	o.Kind = Applied

	return o
}

// Reset removes the override of key for branchID so the default applies again.
// The block list is not consulted: reverting to the default cannot set a value.
func Reset(ctx context.Context, db *gorm.DB, marketID, branchID uint64, key string) error {
	b, err := branch.Get(ctx, db, branchID)
	if err != nil {
		if errors.Is(err, branch.ErrBranchNotFound) {
			return ErrBranchNotInMarket
		}

		return err
	}

	if b.MarketID != marketID {
		return ErrBranchNotInMarket
	}

	d, err := definition.Get(ctx, db, key)
	if err != nil {
		return err
	}

	if d.AppliesTo != models.AppliesToBranches {
		return definition.ErrDefinitionNotFound
	}

	return override.Delete(ctx, db, branchID, key)
}

func sortedBranchIDs(sub Submission) []uint64 {
	ids := make([]uint64, 0, len(sub))
	for id := range sub {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
