package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/database"
	"github.com/launchcrm/launchcrm/internal/pkg/metrics/counter"
	"github.com/launchcrm/launchcrm/internal/pkg/tenant"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// TenantMiddleware resolves the request's subdomain to a company and binds
// the tenant-scoped repositories to it. Unknown subdomains get a plain 404
// with no hint whether the subdomain ever existed.
func TenantMiddleware(directory *tenant.Directory, domainSuffix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subdomain := tenant.ExtractSubdomain(c.Hostname(), domainSuffix)
		if subdomain == "" {
			return notFound(c)
		}

		company, err := directory.Resolve(c.UserContext(), subdomain)
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return notFound(c)
		}
		if err != nil {
			log.Errorf("[Tenant] resolution failed for %s: %v", subdomain, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal_server_error",
			})
		}

		rc := tenantctx.Get(c)
		rc.Company = company
		rc.Repos = repository.ForCompany(database.GetDB(), company.ID)
		tenantctx.Set(c, rc)

		// Usage accounting is best effort and must never fail a request.
		if err := counter.AddTenantRequest(company.ID); err != nil {
			log.Debugf("[Tenant] request counter failed for company %d: %v", company.ID, err)
		}

		return c.Next()
	}
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "not_found",
	})
}
