package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/launchcrm/launchcrm/internal/pkg/subscription"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// SubscriptionRequired blocks tenants without an active subscription or
// trial. The 402 body carries a machine-readable status so API clients can
// distinguish billing expiry from authorization failures.
func SubscriptionRequired(gate *subscription.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		company := tenantctx.Company(c)
		if company == nil {
			return notFound(c)
		}

		active, err := gate.IsActive(c.UserContext(), company.ID)
		if err != nil {
			log.Errorf("[Subscription] gate check failed for company %d: %v", company.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal_server_error",
			})
		}
		if !active {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"status":  "subscription_expired",
				"message": "an active subscription is required",
			})
		}
		return c.Next()
	}
}
