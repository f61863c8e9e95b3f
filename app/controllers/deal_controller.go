package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// HandleListDeals returns the tenant's deals.
func HandleListDeals(c *fiber.Ctx) error {
	repos := tenantctx.Repos(c)

	deals, err := repos.Deals.List(listOptions(c))
	if err != nil {
		return errInternal(c, "failed to load deals")
	}
	total, err := repos.Deals.Count()
	if err != nil {
		return errInternal(c, "failed to load deals")
	}

	return c.JSON(fiber.Map{"deals": deals, "total": total})
}

// HandleGetDeal returns one deal.
func HandleGetDeal(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	deal, err := tenantctx.Repos(c).Deals.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load deal")
	}

	if d := authorize(c, rbac.ActionView, rbac.ResourceDeal, deal.CompanyID, deal.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}
	return c.JSON(deal)
}

// HandleCreateDeal creates a deal (manager and above).
func HandleCreateDeal(c *fiber.Ctx) error {
	if d := authorize(c, rbac.ActionCreate, rbac.ResourceDeal, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var deal models.Deal
	if err := c.BodyParser(&deal); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	deal.ID = 0
	rc := tenantctx.Get(c)
	deal.AssignedTo = rbac.NormalizeCreateAssignee(rc.Role, tenantctx.UserID(c), deal.AssignedTo)
	if err := validate.Struct(&deal); err != nil {
		return errValidation(c, err)
	}

	repos := tenantctx.Repos(c)
	if _, err := repos.Contacts.GetByID(deal.ContactID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errValidation(c, errors.New("contact_id: unknown contact"))
		}
		return errInternal(c, "failed to create deal")
	}

	if err := repos.Deals.Create(&deal); err != nil {
		return errInternal(c, "failed to create deal")
	}
	return c.Status(fiber.StatusCreated).JSON(deal)
}

// HandleUpdateDeal updates a deal. Closed deals are immutable except
// through reopening by a manager.
func HandleUpdateDeal(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	deal, err := repos.Deals.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load deal")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceDeal, deal.CompanyID, deal.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var patch models.Deal
	if err := c.BodyParser(&patch); err != nil {
		return errBadRequest(c, "invalid request body")
	}

	rc := tenantctx.Get(c)
	if patch.AssignedTo != deal.AssignedTo &&
		!rbac.CanAssign(rc.Role, tenantctx.UserID(c), patch.AssignedTo) {
		return errForbidden(c)
	}
	if deal.IsClosed() && !rc.Role.AtLeast(rbac.RoleManager) {
		return errForbidden(c)
	}

	patch.ID = deal.ID
	patch.CompanyID = deal.CompanyID
	patch.CreatedAt = deal.CreatedAt
	if err := validate.Struct(&patch); err != nil {
		return errValidation(c, err)
	}

	if err := repos.Deals.Update(&patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to update deal")
	}
	return c.JSON(patch)
}

// HandleDeleteDeal removes a deal (admin only).
func HandleDeleteDeal(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	deal, err := repos.Deals.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load deal")
	}

	if d := authorize(c, rbac.ActionDelete, rbac.ResourceDeal, deal.CompanyID, deal.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if err := repos.Deals.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to delete deal")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

type closeDealRequest struct {
	Won bool `json:"won"`
}

// HandleCloseDeal closes a deal as won or lost and stamps the close date.
func HandleCloseDeal(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	deal, err := repos.Deals.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load deal")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceDeal, deal.CompanyID, deal.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if deal.IsClosed() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": "deal already closed",
		})
	}

	var req closeDealRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}

	now := time.Now()
	if req.Won {
		deal.Status = models.DealStatusClosedWon
		deal.Probability = 100
	} else {
		deal.Status = models.DealStatusClosedLost
		deal.Probability = 0
	}
	deal.ActualCloseDate = &now

	if err := repos.Deals.Update(deal); err != nil {
		return errInternal(c, "failed to close deal")
	}
	statsService.Invalidate(repos.CompanyID)
	return c.JSON(deal)
}
