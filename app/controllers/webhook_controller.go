package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/launchcrm/launchcrm/internal/pkg/billing"
)

// HandleStripeWebhook receives provider deliveries on the main domain. The
// signature is checked before anything else; processing errors return 500
// so the provider retries the delivery.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	err := billingService.HandleWebhook(c.UserContext(), payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrSignature) {
			log.Warnf("[Webhook] rejected delivery with bad signature from %s", c.IP())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid_signature",
			})
		}
		log.Errorf("[Webhook] processing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "processing_failed",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
