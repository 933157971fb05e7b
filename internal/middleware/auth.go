package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/utils"
)

const identityLocalKey = "identity"

// CredentialVerifier resolves a bearer token into an identity.
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// Authenticate verifies the bearer credential and stores the resolved
// identity on the request. Every credential problem yields the same 401.
func Authenticate(verifier CredentialVerifier, logger zerolog.Logger) fiber.Handler {
	logger = logger.With().Str("component", "auth_middleware").Logger()

	return func(c *fiber.Ctx) error {
		token, err := auth.ExtractBearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		identity, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				logger.Debug().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("credential rejected")
				return utils.Fail(c, fiber.StatusUnauthorized, "invalid or expired token", nil)
			}
			logger.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("credential verification failed")
			return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
		}

		c.Locals(identityLocalKey, identity)
		return c.Next()
	}
}

// SetIdentity binds an identity to the request. Tests use it to skip token
// verification.
func SetIdentity(c *fiber.Ctx, identity auth.Identity) {
	c.Locals(identityLocalKey, identity)
}

// IdentityFrom returns the identity resolved by Authenticate.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(identityLocalKey).(auth.Identity)
	if !ok || identity.UserID == 0 {
		return auth.Identity{}, false
	}
	return identity, true
}
