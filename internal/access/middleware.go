package access

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// LocalsKey is the fiber locals key holding the request's Context.
const LocalsKey = "access"

// SetLocals stores ac on the request.
func SetLocals(c *fiber.Ctx, ac Context) {
	c.Locals(LocalsKey, ac)
	c.Locals("userID", ac.UserID)
}

// FromLocals returns the Context stored by SetLocals.
func FromLocals(c *fiber.Ctx) (Context, bool) {
	ac, ok := c.Locals(LocalsKey).(Context)

	return ac, ok
}

// RequirePermission creates Fiber middleware that requires the Gate to allow obj and act.
func RequirePermission(g *Gate, obj, act string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, ok := FromLocals(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
		}

		allowed, err := g.Allow(ac, obj, act)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", ac.UserID).Str("object", obj).Str("action", act).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Internal Server Error"})
		}

		if !allowed {
			log.Warn().Uint64("user_id", ac.UserID).Str("role", string(ac.Role())).Str("object", obj).
				Str("action", act).Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Forbidden"})
		}

		return c.Next()
	}
}

// RequireMarketScope rejects requests whose route parameter param names a market outside the user's scope.
func RequireMarketScope(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, ok := FromLocals(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
		}

		marketID, err := strconv.ParseUint(c.Params(param), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid market id"})
		}

		if !ac.Allows(marketID) {
			log.Warn().Uint64("user_id", ac.UserID).Uint64("market_id", marketID).Msg("Market outside user scope")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Forbidden"})
		}

		return c.Next()
	}
}
