package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/controller/user"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/session"
)

// New returns the identity middleware. Paths starting with one of publicPaths pass without a session.
func New(db *gorm.DB, publicPaths ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isPublic(c, publicPaths) {
			return c.Next()
		}

		sessionID := c.Cookies(session.CookieName)

		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err != nil {
			return unauthorized(c)
		}

		// role and market are taken from the stored user so changes apply on the next request
		u, err := user.GetByID(c.UserContext(), db, sessData.UserID)
		if err != nil {
			if !errors.Is(err, user.ErrUserNotFound) {
				log.Error().Err(err).Uint64("user_id", sessData.UserID).Msg("failed to load session user")

				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Internal Server Error"})
			}

			_ = session.Delete(sessionID)

			return unauthorized(c)
		}

		access.SetLocals(c, access.FromUser(u))

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
}

func isPublic(c *fiber.Ctx, publicPaths []string) bool {
	p := strings.ToLower(c.Path())

	for _, pub := range publicPaths {
		if p == pub || strings.HasPrefix(p, pub+"/") {
			return true
		}
	}

	return false
}
