package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/user"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the login handler.
var Handler = Service{}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *access.Gate) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg

	app.Route(Path, func(router fiber.Router) {
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Post checks the submitted credentials and starts a session.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(credentials)

	if err := c.BodyParser(creds); err != nil || creds.Username == "" {
		return handler.JSONError(c, fiber.StatusBadRequest, ErrInvalidFormData.Error())
	}

	// inactive and unknown users look the same to the client
	dbUser, err := user.GetByUsername(c.UserContext(), s.db, creds.Username)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			log.Error().Err(err).Str("username", creds.Username).Msg("failed to load user")

			return handler.JSONError(c, fiber.StatusInternalServerError, ErrInternalServerError.Error())
		}

		return handler.JSONError(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	}

	if !dbUser.VerifyPassword(creds.Password) {
		log.Warn().Str("username", creds.Username).Msg("failed login attempt")

		return handler.JSONError(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return handler.JSONError(c, fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	if err = session.FromUser(dbUser).Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return handler.JSONError(c, fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Uint64("user_id", dbUser.ID).Str("role", string(dbUser.Role)).Msg("user logged in")

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "logged in",
		"role":     dbUser.Role,
		"marketId": dbUser.MarketID,
	})
}
