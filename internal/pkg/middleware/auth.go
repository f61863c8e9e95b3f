package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
	"github.com/launchcrm/launchcrm/internal/pkg/session"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// AuthContextMiddleware loads the session user into the request context.
// It never rejects by itself; RequireAuth does that. A session user who
// does not belong to the resolved tenant stays anonymous here, so all
// downstream checks fail the tenant-safe way.
func AuthContextMiddleware(accounts repository.AccountRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := tenantctx.Get(c)

		sess, err := session.GetSessionStore().Get(c)
		if err != nil {
			tenantctx.Set(c, rc)
			return c.Next()
		}

		rawID := sess.Get(tenantctx.KeyUserID)
		userID, ok := rawID.(uint)
		if !ok || userID == 0 {
			tenantctx.Set(c, rc)
			return c.Next()
		}

		user, err := accounts.GetUserByID(userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Auth] session user %d lookup failed: %v", userID, err)
			}
			tenantctx.Set(c, rc)
			return c.Next()
		}

		// A valid session for a different tenant's user is treated as no
		// session at all on this host.
		if rc.Company != nil && user.CompanyID != rc.Company.ID {
			tenantctx.Set(c, rc)
			return c.Next()
		}

		rc.User = user
		rc.IsLoggedIn = true
		if rc.Repos != nil {
			roleStr, err := rc.Repos.Team.GetRole(user.ID)
			if err != nil {
				log.Warnf("[Auth] role lookup failed for user %d: %v", user.ID, err)
			}
			rc.Role = rbac.RoleFromString(roleStr)
		}
		tenantctx.Set(c, rc)

		return c.Next()
	}
}

// RequireAuth rejects anonymous requests with a JSON 401.
func RequireAuth(c *fiber.Ctx) error {
	if !tenantctx.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireRole rejects authenticated callers below the given role with 403.
func RequireRole(min rbac.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !tenantctx.IsLoggedIn(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "login required",
			})
		}
		if !tenantctx.Role(c).AtLeast(min) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}
		return c.Next()
	}
}
