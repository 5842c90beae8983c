// Package branchconfig serves the per branch settings grid of a market.
package branchconfig

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	core "github.com/MarketOps-Admin/MarketOps-Admin/internal/branchconfig"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/definition"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/market"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler"
)

const (
	// Path is the route prefix, scoped by market.
	Path = handler.RootPath + "markets/:" + MarketParam

	// MarketParam names the market route parameter.
	MarketParam = "marketID"

	configPath = "/branch/config"
	savePath   = "/branch/config/save"
	resetPath  = "/branch/:branchID/config/:key/reset"

	msgSaved       = "branch settings saved"
	msgSaveFailed  = "failed to save branch settings"
	msgLoadFailed  = "failed to load branch settings"
	msgInvalidForm = "invalid form data"
)

// formKeyRegex matches cfg[<branch>][<key>] form fields.
var formKeyRegex = regexp.MustCompile(`^cfg\[(\d+)]\[([a-z0-9._-]{1,100})]$`)

// Service is the branch config handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the branch config handler.
var Handler = Service{}

// Init initializes the branch config handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, gate *access.Gate) error {
	if app == nil || cfg == nil || db == nil || gate == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	scope := access.RequireMarketScope(MarketParam)

	app.Route(Path, func(router fiber.Router) {
		router.Get(configPath, access.RequirePermission(gate, access.ObjBranchConfig, access.ActRead), scope, s.Get)
		router.Post(savePath, access.RequirePermission(gate, access.ObjBranchConfig, access.ActWrite), scope, s.Save)
		router.Post(resetPath, access.RequirePermission(gate, access.ObjBranchConfig, access.ActWrite), scope, s.Reset)
	})

	return nil
}

// Get returns the resolved settings of every branch of the market.
func (s *Service) Get(c *fiber.Ctx) error {
	ac, _ := access.FromLocals(c)

	marketID, err := strconv.ParseUint(c.Params(MarketParam), 10, 64)
	if err != nil {
		return handler.JSONError(c, fiber.StatusBadRequest, "invalid market id")
	}

	m, err := market.Get(c.UserContext(), s.db, marketID)
	if err != nil {
		if errors.Is(err, market.ErrMarketNotFound) {
			return handler.JSONError(c, fiber.StatusNotFound, err.Error())
		}

		log.Error().Err(err).Uint64("market_id", marketID).Msg(msgLoadFailed)

		return handler.JSONError(c, fiber.StatusInternalServerError, msgLoadFailed)
	}

	branches, err := core.ResolveMarket(c.UserContext(), s.db, marketID, ac)
	if err != nil {
		log.Error().Err(err).Uint64("market_id", marketID).Msg(msgLoadFailed)

		return handler.JSONError(c, fiber.StatusInternalServerError, msgLoadFailed)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"market":   fiber.Map{"id": m.ID, "name": m.Name},
		"branches": branches,
		"csrf":     c.Locals("csrf"),
	})
}

// cellOutcome is the client view of core.CellOutcome, without error details.
type cellOutcome struct {
	BranchID uint64 `json:"branchId"`
	Key      string `json:"key"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	Action   string `json:"action,omitempty"`
}

// Save applies submitted cells to the branches of the market.
func (s *Service) Save(c *fiber.Ctx) error {
	ac, _ := access.FromLocals(c)

	marketID, err := strconv.ParseUint(c.Params(MarketParam), 10, 64)
	if err != nil {
		return handler.JSONError(c, fiber.StatusBadRequest, "invalid market id")
	}

	if _, err = market.Get(c.UserContext(), s.db, marketID); err != nil {
		if errors.Is(err, market.ErrMarketNotFound) {
			return handler.JSONError(c, fiber.StatusNotFound, err.Error())
		}

		log.Error().Err(err).Uint64("market_id", marketID).Msg(msgSaveFailed)

		return handler.JSONError(c, fiber.StatusInternalServerError, msgSaveFailed)
	}

	sub, err := parseSubmission(c)
	if err != nil {
		return handler.JSONError(c, fiber.StatusBadRequest, msgInvalidForm)
	}

	res, err := core.SaveAll(c.UserContext(), s.db, marketID, ac, sub)
	if err != nil {
		log.Error().Err(err).Uint64("market_id", marketID).Uint64("user_id", ac.UserID).Msg(msgSaveFailed)

		return handler.JSONError(c, fiber.StatusInternalServerError, msgSaveFailed)
	}

	outcomes := make([]cellOutcome, 0, len(res.Cells))
	for _, o := range res.Cells {
		outcomes = append(outcomes, cellOutcome{
			BranchID: o.BranchID,
			Key:      o.Key,
			Outcome:  o.Kind.String(),
			Reason:   string(o.Reason),
			Action:   string(o.Action),
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  msgSaved,
		"applied":  res.Count(core.Applied),
		"skipped":  res.Count(core.Skipped),
		"outcomes": outcomes,
	})
}

// Reset reverts one setting of one branch to its default.
func (s *Service) Reset(c *fiber.Ctx) error {
	marketID, errM := strconv.ParseUint(c.Params(MarketParam), 10, 64)
	branchID, errB := strconv.ParseUint(c.Params("branchID"), 10, 64)

	if errM != nil || errB != nil {
		return handler.JSONError(c, fiber.StatusBadRequest, "invalid market or branch id")
	}

	key := c.Params("key")

	err := core.Reset(c.UserContext(), s.db, marketID, branchID, key)

	switch {
	case err == nil:
		return c.JSON(handler.Response{Success: true, Message: "setting " + key + " reset to default"})
	case errors.Is(err, core.ErrBranchNotInMarket), errors.Is(err, definition.ErrDefinitionNotFound):
		return handler.JSONError(c, fiber.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Uint64("market_id", marketID).Uint64("branch_id", branchID).Str("key", key).
			Msg("failed to reset branch setting")

		return handler.JSONError(c, fiber.StatusInternalServerError, "failed to reset branch setting")
	}
}

// parseSubmission reads {"cfg": {"<branch>": {"<key>": "<value>"}}} or cfg[<branch>][<key>] form fields.
// Entries with a non numeric branch are dropped.
func parseSubmission(c *fiber.Ctx) (core.Submission, error) {
	sub := core.Submission{}

	if c.Is("json") {
		var body struct {
			Cfg map[string]map[string]json.RawMessage `json:"cfg"`
		}

		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return nil, err
		}

		for rawBranch, cells := range body.Cfg {
			branchID, err := strconv.ParseUint(rawBranch, 10, 64)
			if err != nil {
				continue
			}

			for key, raw := range cells {
				add(sub, branchID, key, jsonScalar(raw))
			}
		}

		return sub, nil
	}

	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		m := formKeyRegex.FindSubmatch(k)
		if m == nil {
			return
		}

		branchID, err := strconv.ParseUint(string(m[1]), 10, 64)
		if err != nil {
			return
		}

		add(sub, branchID, string(m[2]), string(v))
	})

	return sub, nil
}

func add(sub core.Submission, branchID uint64, key, value string) {
	cells, ok := sub[branchID]
	if !ok {
		cells = map[string]string{}
		sub[branchID] = cells
	}

	cells[key] = value
}

// jsonScalar turns a JSON string, number, bool or null into its form value.
func jsonScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "1"
		}

		return "0"
	}

	if string(raw) == "null" {
		return ""
	}

	return string(raw)
}
