package tenantctx

import (
	"github.com/gofiber/fiber/v2"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
)

// RequestContext carries everything request handlers need after the tenant
// and auth middlewares ran: the resolved company, the authenticated user,
// their role inside this company, and repositories pre-bound to the
// company. Handlers never construct repositories themselves.
type RequestContext struct {
	Company    *models.Company
	User       *models.User
	Role       rbac.Role
	Repos      *repository.TenantRepositories
	IsLoggedIn bool
}

// Get retrieves the request context. Returns an anonymous context when no
// tenant middleware ran (public routes).
func Get(c *fiber.Ctx) RequestContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		if rc, ok := ctx.(RequestContext); ok {
			return rc
		}
	}
	return RequestContext{}
}

// Set stores the request context in fiber Locals.
func Set(c *fiber.Ctx, rc RequestContext) {
	c.Locals(ContextKey, rc)
	c.Locals(KeyFromProtected, rc.IsLoggedIn)
	if rc.User != nil {
		c.Locals(KeyUserID, rc.User.ID)
		c.Locals(KeyUserName, rc.User.Name)
	}
	if rc.Company != nil {
		c.Locals(KeyCompanyID, rc.Company.ID)
	}
}

// Company returns the resolved tenant, or nil on public routes.
func Company(c *fiber.Ctx) *models.Company {
	return Get(c).Company
}

// User returns the authenticated user, or nil.
func User(c *fiber.Ctx) *models.User {
	return Get(c).User
}

// Role returns the caller's role within the current tenant.
func Role(c *fiber.Ctx) rbac.Role {
	return Get(c).Role
}

// Repos returns the tenant-bound repositories, or nil on public routes.
func Repos(c *fiber.Ctx) *repository.TenantRepositories {
	return Get(c).Repos
}

// IsLoggedIn reports whether the request carries an authenticated session.
func IsLoggedIn(c *fiber.Ctx) bool {
	return Get(c).IsLoggedIn
}

// UserID returns the authenticated user's id, or 0.
func UserID(c *fiber.Ctx) uint {
	if u := Get(c).User; u != nil {
		return u.ID
	}
	return 0
}
