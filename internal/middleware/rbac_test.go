package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-portal-api/internal/auth"
	"github.com/noah-isme/campus-portal-api/internal/models"
)

func gatedApp(identity *auth.Identity, allowed auth.RoleSet) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if identity != nil {
			SetIdentity(c, *identity)
		}
		return c.Next()
	})
	app.Get("/admin", RequireRoles(allowed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRolesAllowsListedRoles(t *testing.T) {
	identity := auth.Identity{UserID: 1, Role: models.RoleSuperAdmin}
	app := gatedApp(&identity, auth.Roles(models.RoleAdmin, models.RoleSuperAdmin))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesRejectsEditorOnAdminOnlyRoute(t *testing.T) {
	identity := auth.Identity{UserID: 2, Role: models.RoleEditor}
	app := gatedApp(&identity, auth.Roles(models.RoleAdmin, models.RoleSuperAdmin))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRolesWithoutIdentityIsUnauthorized(t *testing.T) {
	app := gatedApp(nil, auth.Roles(models.RoleAdmin))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
