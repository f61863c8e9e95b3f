package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

func listOptions(c *fiber.Ctx) repository.ListOptions {
	return repository.ListOptions{
		Offset: c.QueryInt("offset", 0),
		Limit:  c.QueryInt("limit", 0),
		Search: c.Query("search"),
		Status: c.Query("status"),
	}
}

// authorize runs the rbac table for the current caller. resourceCompanyID
// and assignedTo are zero for create/list.
func authorize(c *fiber.Ctx, action rbac.Action, resource rbac.Resource, resourceCompanyID, assignedTo, targetUserID uint) rbac.Decision {
	rc := tenantctx.Get(c)
	return rbac.Authorize(rbac.Request{
		Role:               rc.Role,
		Action:             action,
		Resource:           resource,
		CallerID:           tenantctx.UserID(c),
		CallerCompanyID:    rc.Company.ID,
		ResourceCompanyID:  resourceCompanyID,
		ResourceAssignedTo: assignedTo,
		TargetUserID:       targetUserID,
	})
}

// HandleListContacts returns the tenant's contacts with pagination and
// optional search.
func HandleListContacts(c *fiber.Ctx) error {
	repos := tenantctx.Repos(c)

	contacts, err := repos.Contacts.List(listOptions(c))
	if err != nil {
		return errInternal(c, "failed to load contacts")
	}
	total, err := repos.Contacts.Count()
	if err != nil {
		return errInternal(c, "failed to load contacts")
	}

	return c.JSON(fiber.Map{"contacts": contacts, "total": total})
}

// HandleGetContact returns one contact. Cross-tenant ids 404 at the
// repository layer before any policy runs.
func HandleGetContact(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	contact, err := tenantctx.Repos(c).Contacts.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load contact")
	}

	if d := authorize(c, rbac.ActionView, rbac.ResourceContact, contact.CompanyID, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	return c.JSON(contact)
}

// HandleCreateContact creates a contact in the tenant.
func HandleCreateContact(c *fiber.Ctx) error {
	if d := authorize(c, rbac.ActionCreate, rbac.ResourceContact, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var contact models.Contact
	if err := c.BodyParser(&contact); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	contact.ID = 0
	if err := validate.Struct(&contact); err != nil {
		return errValidation(c, err)
	}

	existing, err := tenantctx.Repos(c).Contacts.Count()
	if err != nil {
		return errInternal(c, "failed to create contact")
	}
	if !companyEntitlements(tenantctx.Company(c)).CanAddContact(existing) {
		return errLimitReached(c, "contacts")
	}

	if err := tenantctx.Repos(c).Contacts.Create(&contact); err != nil {
		return errInternal(c, "failed to create contact")
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

// HandleUpdateContact updates a contact in place.
func HandleUpdateContact(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	contact, err := repos.Contacts.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load contact")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceContact, contact.CompanyID, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var patch models.Contact
	if err := c.BodyParser(&patch); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	patch.ID = contact.ID
	patch.CompanyID = contact.CompanyID
	patch.CreatedAt = contact.CreatedAt
	if err := validate.Struct(&patch); err != nil {
		return errValidation(c, err)
	}

	if err := repos.Contacts.Update(&patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to update contact")
	}
	return c.JSON(patch)
}

// HandleDeleteContact removes a contact (admin only).
func HandleDeleteContact(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	contact, err := repos.Contacts.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load contact")
	}

	if d := authorize(c, rbac.ActionDelete, rbac.ResourceContact, contact.CompanyID, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if err := repos.Contacts.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to delete contact")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
