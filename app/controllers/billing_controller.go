package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/billing"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// HandleListPlans returns the public plan catalog.
func HandleListPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalFactory().GetGlobalRepositories().Plan.GetActive()
	if err != nil {
		return errInternal(c, "failed to load plans")
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleBillingStatus returns the company's subscription state (admin
// only).
func HandleBillingStatus(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)

	subs, err := billingService.Subscriptions(rc.Company)
	if err != nil {
		return errInternal(c, "failed to load subscriptions")
	}

	return c.JSON(fiber.Map{
		"status":           rc.Company.StripeStatus,
		"price_id":         rc.Company.StripePriceID,
		"trial_ends_at":    rc.Company.TrialEndsAt,
		"subscribed_until": rc.Company.SubscribedUntil,
		"on_trial":         rc.Company.IsOnTrial(),
		"subscribed":       rc.Company.IsSubscribed(),
		"subscriptions":    subs,
	})
}

type subscribeRequest struct {
	PlanID uint `json:"plan_id" validate:"required"`
}

// HandleSubscribe starts a subscription on the selected plan (admin only).
func HandleSubscribe(c *fiber.Ctx) error {
	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	plan, err := repository.GetGlobalFactory().GetGlobalRepositories().Plan.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errValidation(c, errors.New("plan_id: unknown plan"))
		}
		return errInternal(c, "failed to load plan")
	}

	rc := tenantctx.Get(c)
	sub, err := billingService.Subscribe(c.UserContext(), rc.Company, plan.StripePriceID, 0)
	if err != nil {
		return billingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(sub)
}

type cancelRequest struct {
	AtPeriodEnd bool `json:"at_period_end"`
}

// HandleCancelSubscription cancels the subscription (admin only). The
// default is immediate; at_period_end keeps access until the paid window
// closes.
func HandleCancelSubscription(c *fiber.Ctx) error {
	var req cancelRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}

	rc := tenantctx.Get(c)
	sub, err := billingService.Cancel(c.UserContext(), rc.Company, req.AtPeriodEnd)
	if err != nil {
		return billingError(c, err)
	}
	return c.JSON(sub)
}

type changePlanRequest struct {
	PlanID uint `json:"plan_id" validate:"required"`
}

// HandleChangePlan swaps the subscription to a different plan (admin only).
func HandleChangePlan(c *fiber.Ctx) error {
	var req changePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	plan, err := repository.GetGlobalFactory().GetGlobalRepositories().Plan.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errValidation(c, errors.New("plan_id: unknown plan"))
		}
		return errInternal(c, "failed to load plan")
	}

	rc := tenantctx.Get(c)
	sub, err := billingService.ChangePlan(c.UserContext(), rc.Company, plan.StripePriceID)
	if err != nil {
		return billingError(c, err)
	}
	return c.JSON(sub)
}

// HandleListInvoices returns the provider invoice history (admin only).
func HandleListInvoices(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)

	invoices, err := billingService.Invoices(c.UserContext(), rc.Company)
	if err != nil {
		return billingError(c, err)
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

// HandleSyncSubscription re-reads provider state on demand (admin only).
func HandleSyncSubscription(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)

	if err := billingService.SyncStatus(c.UserContext(), rc.Company); err != nil {
		return billingError(c, err)
	}
	return HandleBillingStatus(c)
}

// billingError maps lifecycle manager failures to HTTP. Provider outages
// are 502: the request changed nothing locally and can be retried.
func billingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrNoCustomer), errors.Is(err, billing.ErrNoActiveSubscription):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": err.Error(),
		})
	case errors.Is(err, billing.ErrProvider):
		log.Errorf("[Billing] provider failure: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "billing_provider_unavailable",
			"message": "the billing provider could not be reached, nothing was changed",
		})
	default:
		log.Errorf("[Billing] operation failed: %v", err)
		return errInternal(c, "billing operation failed")
	}
}
