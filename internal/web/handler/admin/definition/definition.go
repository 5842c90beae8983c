// Package definition serves the admin management of setting definitions.
package definition

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	controller "github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/definition"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler"
)

const (
	// Path is the route prefix of the definition admin.
	Path = handler.RootPath + "admin/definitions"

	keyPath = "/:key"

	msgInvalidBody  = "invalid request body"
	msgValidation   = "validation failed"
	msgStorageError = "failed to access setting definitions"
)

// Service is the setting definition admin handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *XValidator
}

// Handler is the setting definition admin handler.
var Handler = Service{}

// Option is one select choice in a payload.
type Option struct {
	Value string `json:"value" validate:"required,max=255"`
	Label string `json:"label" validate:"max=255"`
}

// Payload carries the mutable attributes of a definition.
type Payload struct {
	AppliesTo    string   `json:"appliesTo" validate:"omitempty,oneof=branches app_config"`
	ValueKind    string   `json:"valueKind" validate:"omitempty,oneof=switch text textarea select image"`
	DefaultValue string   `json:"defaultValue" validate:"max=65535"`
	Description  string   `json:"description" validate:"max=2000"`
	Status       string   `json:"status" validate:"omitempty,oneof=active inactive"`
	Options      []Option `json:"options" validate:"omitempty,dive"`
	// BlockedBranchIDs accepts numbers and numeric strings; anything else is dropped.
	BlockedBranchIDs []any `json:"blockedBranchIds"`
}

// CreatePayload is Payload plus the new key.
type CreatePayload struct {
	Key string `json:"key" validate:"required,settingkey"`
	Payload
}

// View is the JSON shape of a definition.
type View struct {
	Key              string             `json:"key"`
	AppliesTo        string             `json:"appliesTo"`
	ValueKind        models.ValueKind   `json:"valueKind"`
	DefaultValue     string             `json:"defaultValue"`
	Description      string             `json:"description"`
	Status           string             `json:"status"`
	Options          models.Options     `json:"options"`
	BlockedBranchIDs models.BranchIDSet `json:"blockedBranchIds"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

func newView(d *models.SettingDefinition) View {
	return View{
		Key:              d.Key,
		AppliesTo:        d.AppliesTo,
		ValueKind:        d.ValueKind,
		DefaultValue:     d.DefaultValue,
		Description:      d.Description,
		Status:           string(d.Status),
		Options:          d.Options,
		BlockedBranchIDs: d.BlockedBranchIDs,
		UpdatedAt:        d.UpdatedAt,
	}
}

// Fields converts the payload for the registry.
func (p Payload) Fields() (controller.Fields, error) {
	f := controller.Fields{
		AppliesTo:        p.AppliesTo,
		DefaultValue:     p.DefaultValue,
		Description:      p.Description,
		Status:           models.DefinitionStatus(p.Status),
		BlockedBranchIDs: models.ParseBranchIDSet(p.BlockedBranchIDs...),
	}

	if p.ValueKind != "" {
		kind, err := models.ParseValueKind(p.ValueKind)
		if err != nil {
			return f, err
		}

		f.ValueKind = kind
	}

	f.Options = make(models.Options, 0, len(p.Options))
	for _, o := range p.Options {
		label := o.Label
		if label == "" {
			label = o.Value
		}

		f.Options = append(f.Options, models.SelectOption{Value: o.Value, Label: label})
	}

	return f, nil
}

// Init initializes the setting definition admin handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, gate *access.Gate) error {
	if app == nil || cfg == nil || db == nil || gate == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	v, err := NewValidator()
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.db = db
	s.validator = v

	read := access.RequirePermission(gate, access.ObjDefinitions, access.ActRead)
	write := access.RequirePermission(gate, access.ObjDefinitions, access.ActWrite)

	app.Route(Path, func(router fiber.Router) {
		router.Get("/", read, s.List)
		router.Get(keyPath, read, s.Get)
		router.Post("/", write, s.Create)
		router.Put(keyPath, write, s.Update)
		router.Delete(keyPath, write, s.Delete)
	})

	return nil
}

// List returns all definitions, optionally filtered by ?appliesTo=.
func (s *Service) List(c *fiber.Ctx) error {
	defs, err := controller.List(c.UserContext(), s.db, c.Query("appliesTo"))
	if err != nil {
		log.Error().Err(err).Msg("failed to list setting definitions")

		return handler.JSONError(c, fiber.StatusInternalServerError, msgStorageError)
	}

	views := make([]View, 0, len(defs))
	for i := range defs {
		views = append(views, newView(&defs[i]))
	}

	return c.JSON(fiber.Map{"success": true, "definitions": views})
}

// Get returns one definition.
func (s *Service) Get(c *fiber.Ctx) error {
	d, err := controller.Get(c.UserContext(), s.db, c.Params("key"))
	if err != nil {
		return s.storageError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "definition": newView(d)})
}

// Create adds a new definition.
func (s *Service) Create(c *fiber.Ctx) error {
	var p CreatePayload
	if err := c.BodyParser(&p); err != nil {
		return handler.JSONError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if errs := s.validator.Validate(&p); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false, "message": msgValidation, "errors": errs,
		})
	}

	f, err := p.Fields()
	if err != nil {
		return handler.JSONError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	d, err := controller.Create(c.UserContext(), s.db, p.Key, f)
	if err != nil {
		return s.storageError(c, err)
	}

	log.Info().Str("key", d.Key).Uint64("user_id", userID(c)).Msg("setting definition created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "definition": newView(d)})
}

// Update replaces the mutable attributes of a definition, creating it when the key is new.
func (s *Service) Update(c *fiber.Ctx) error {
	var p Payload
	if err := c.BodyParser(&p); err != nil {
		return handler.JSONError(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if errs := s.validator.Validate(&p); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false, "message": msgValidation, "errors": errs,
		})
	}

	f, err := p.Fields()
	if err != nil {
		return handler.JSONError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	d, err := controller.Upsert(c.UserContext(), s.db, c.Params("key"), f)
	if err != nil {
		return s.storageError(c, err)
	}

	log.Info().Str("key", d.Key).Uint64("user_id", userID(c)).Msg("setting definition saved")

	return c.JSON(fiber.Map{"success": true, "definition": newView(d)})
}

// Delete removes a definition. Its branch overrides stay and become inert.
func (s *Service) Delete(c *fiber.Ctx) error {
	key := c.Params("key")

	if err := controller.Delete(c.UserContext(), s.db, key); err != nil {
		return s.storageError(c, err)
	}

	log.Info().Str("key", key).Uint64("user_id", userID(c)).Msg("setting definition deleted")

	return c.JSON(handler.Response{Success: true, Message: "setting definition " + key + " deleted"})
}

func (s *Service) storageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, controller.ErrDefinitionNotFound):
		return handler.JSONError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, controller.ErrDefinitionAlreadyExists):
		return handler.JSONError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrInvalidKey):
		return handler.JSONError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	log.Error().Err(err).Str("path", c.Path()).Msg(msgStorageError)

	return handler.JSONError(c, fiber.StatusInternalServerError, msgStorageError)
}

func userID(c *fiber.Ctx) uint64 {
	ac, _ := access.FromLocals(c)

	return ac.UserID
}
