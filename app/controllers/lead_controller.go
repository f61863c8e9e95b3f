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

// HandleListLeads returns the tenant's leads.
func HandleListLeads(c *fiber.Ctx) error {
	repos := tenantctx.Repos(c)

	leads, err := repos.Leads.List(listOptions(c))
	if err != nil {
		return errInternal(c, "failed to load leads")
	}
	total, err := repos.Leads.Count()
	if err != nil {
		return errInternal(c, "failed to load leads")
	}

	return c.JSON(fiber.Map{"leads": leads, "total": total})
}

// HandleGetLead returns one lead.
func HandleGetLead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	lead, err := tenantctx.Repos(c).Leads.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load lead")
	}

	if d := authorize(c, rbac.ActionView, rbac.ResourceLead, lead.CompanyID, lead.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}
	return c.JSON(lead)
}

// HandleCreateLead creates a lead. Non-manager callers always end up as
// the assignee regardless of what they asked for.
func HandleCreateLead(c *fiber.Ctx) error {
	if d := authorize(c, rbac.ActionCreate, rbac.ResourceLead, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var lead models.Lead
	if err := c.BodyParser(&lead); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	lead.ID = 0
	rc := tenantctx.Get(c)
	lead.AssignedTo = rbac.NormalizeCreateAssignee(rc.Role, tenantctx.UserID(c), lead.AssignedTo)
	if err := validate.Struct(&lead); err != nil {
		return errValidation(c, err)
	}

	repos := tenantctx.Repos(c)
	if _, err := repos.Contacts.GetByID(lead.ContactID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errValidation(c, errors.New("contact_id: unknown contact"))
		}
		return errInternal(c, "failed to create lead")
	}

	if err := repos.Leads.Create(&lead); err != nil {
		return errInternal(c, "failed to create lead")
	}
	statsService.Invalidate(repos.CompanyID)
	return c.Status(fiber.StatusCreated).JSON(lead)
}

// HandleUpdateLead updates a lead. Staff can only touch leads assigned to
// them, and can never reassign to someone else.
func HandleUpdateLead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	lead, err := repos.Leads.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load lead")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceLead, lead.CompanyID, lead.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var patch models.Lead
	if err := c.BodyParser(&patch); err != nil {
		return errBadRequest(c, "invalid request body")
	}

	rc := tenantctx.Get(c)
	if patch.AssignedTo != lead.AssignedTo &&
		!rbac.CanAssign(rc.Role, tenantctx.UserID(c), patch.AssignedTo) {
		return errForbidden(c)
	}

	patch.ID = lead.ID
	patch.CompanyID = lead.CompanyID
	patch.CreatedAt = lead.CreatedAt
	if err := validate.Struct(&patch); err != nil {
		return errValidation(c, err)
	}

	if err := repos.Leads.Update(&patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to update lead")
	}
	return c.JSON(patch)
}

// HandleDeleteLead removes a lead (admin only).
func HandleDeleteLead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	lead, err := repos.Leads.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load lead")
	}

	if d := authorize(c, rbac.ActionDelete, rbac.ResourceLead, lead.CompanyID, lead.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if err := repos.Leads.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to delete lead")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleConvertLead turns a qualified lead into an open deal. The lead is
// marked converted and keeps a pointer from the new deal.
func HandleConvertLead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	lead, err := repos.Leads.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load lead")
	}

	// Conversion is an update on the lead plus a deal create; both role
	// checks must pass.
	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceLead, lead.CompanyID, lead.AssignedTo, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}
	if d := authorize(c, rbac.ActionCreate, rbac.ResourceDeal, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if lead.IsConverted() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": "lead already converted",
		})
	}

	deal := &models.Deal{
		ContactID:   lead.ContactID,
		LeadID:      lead.ID,
		Title:       lead.Title,
		Description: lead.Description,
		Value:       lead.Value,
		Status:      models.DealStatusOpen,
		AssignedTo:  lead.AssignedTo,
	}
	if err := repos.Deals.Create(deal); err != nil {
		return errInternal(c, "failed to convert lead")
	}

	now := time.Now()
	lead.Status = models.LeadStatusConverted
	lead.ActualCloseDate = &now
	if err := repos.Leads.Update(lead); err != nil {
		return errInternal(c, "failed to convert lead")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lead": lead, "deal": deal})
}
