package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

// RequireRoles is the access gate for a route: the authenticated identity's
// role must belong to allowed. Missing identities are 401, disallowed roles 403.
func RequireRoles(allowed auth.RoleSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if err := auth.Allow(identity, allowed); err != nil {
			return utils.Fail(c, fiber.StatusForbidden, "access denied: insufficient permissions", nil)
		}
		return c.Next()
	}
}
