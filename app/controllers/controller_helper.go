package controllers

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/entitlements"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
)

var validate = validator.New()

func errNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "not_found",
	})
}

func errForbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "forbidden",
	})
}

func errUnauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "unauthorized",
		"message": message,
	})
}

func errInternal(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_server_error",
		"message": message,
	})
}

func errBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "bad_request",
		"message": message,
	})
}

// errValidation formats a validator error into a field -> problem map with
// status 422.
func errValidation(c *fiber.Ctx, err error) error {
	fields := fiber.Map{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	} else if err != nil {
		fields["_"] = err.Error()
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "validation_failed",
		"fields": fields,
	})
}

// denyResponse maps an rbac denial to its HTTP shape. DenyNotFound must be
// indistinguishable from a genuinely missing record.
func denyResponse(c *fiber.Ctx, d rbac.Decision) error {
	if d == rbac.DenyNotFound {
		return errNotFound(c)
	}
	return errForbidden(c)
}

func errLimitReached(c *fiber.Ctx, limit string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "plan_limit_reached",
		"fields": fiber.Map{limit: "limit_reached"},
	})
}

// companyEntitlements resolves the usage limits granted by the company's
// current plan. Companies without a plan run on trial limits.
func companyEntitlements(company *models.Company) entitlements.Entitlements {
	if company == nil || company.StripePriceID == "" {
		return entitlements.TrialEntitlements
	}
	plans := repository.GetGlobalFactory().GetGlobalRepositories().Plan
	plan, err := plans.GetByStripePriceID(company.StripePriceID)
	if err != nil {
		return entitlements.TrialEntitlements
	}
	return entitlements.ForPlan(plan)
}

// idParam parses the numeric :id route parameter.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}
