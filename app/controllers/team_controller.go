package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/env"
	"github.com/launchcrm/launchcrm/internal/pkg/mail"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
	"github.com/launchcrm/launchcrm/internal/pkg/utils"
)

func userResponse(u *models.User, role string) fiber.Map {
	return fiber.Map{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"phone":      u.Phone,
		"job_title":  u.JobTitle,
		"is_active":  u.IsActive,
		"avatar_url": utils.GetGravatarURL(u.Email, 200),
		"role":       role,
		"created_at": u.CreatedAt,
	}
}

// HandleListUsers returns the company's team (manager and above).
func HandleListUsers(c *fiber.Ctx) error {
	if d := authorize(c, rbac.ActionView, rbac.ResourceUser, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	repos := tenantctx.Repos(c)
	users, err := repos.Team.ListUsers(c.QueryInt("offset", 0), c.QueryInt("limit", 0))
	if err != nil {
		return errInternal(c, "failed to load users")
	}

	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		role, err := repos.Team.GetRole(users[i].ID)
		if err != nil {
			return errInternal(c, "failed to load users")
		}
		out = append(out, userResponse(&users[i], rbac.RoleFromString(role).String()))
	}

	total, err := repos.Team.CountUsers()
	if err != nil {
		return errInternal(c, "failed to load users")
	}
	return c.JSON(fiber.Map{"users": out, "total": total})
}

// HandleGetUser returns one team member (manager and above).
func HandleGetUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	user, err := repos.Team.GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load user")
	}

	if d := authorize(c, rbac.ActionView, rbac.ResourceUser, user.CompanyID, 0, user.ID); d != rbac.Allow {
		return denyResponse(c, d)
	}

	role, err := repos.Team.GetRole(user.ID)
	if err != nil {
		return errInternal(c, "failed to load user")
	}
	return c.JSON(userResponse(user, rbac.RoleFromString(role).String()))
}

type updateUserRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=150"`
	Phone    string `json:"phone" validate:"omitempty,max=50"`
	JobTitle string `json:"job_title" validate:"omitempty,max=100"`
	IsActive *bool  `json:"is_active"`
}

// HandleUpdateUser edits a team member's profile (admin only).
func HandleUpdateUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	user, err := repos.Team.GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load user")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceUser, user.CompanyID, 0, user.ID); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.JobTitle != "" {
		user.JobTitle = req.JobTitle
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := repos.Team.UpdateUser(user); err != nil {
		return errInternal(c, "failed to update user")
	}

	role, _ := repos.Team.GetRole(user.ID)
	return c.JSON(userResponse(user, rbac.RoleFromString(role).String()))
}

// HandleDeleteUser removes a team member (admin only, never self).
func HandleDeleteUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	user, err := repos.Team.GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load user")
	}

	if d := authorize(c, rbac.ActionDelete, rbac.ResourceUser, user.CompanyID, 0, user.ID); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if err := repos.Team.RemoveRole(user.ID); err != nil {
		return errInternal(c, "failed to delete user")
	}
	if err := repos.Team.DeleteUser(user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound(c)
		}
		return errInternal(c, "failed to delete user")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// setUserActive flips a team member's active flag (admin only, never
// self for deactivation, so a company cannot lock itself out).
func setUserActive(c *fiber.Ctx, active bool) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	user, err := repos.Team.GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load user")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceUser, user.CompanyID, 0, user.ID); d != rbac.Allow {
		return denyResponse(c, d)
	}
	if !active && user.ID == tenantctx.UserID(c) {
		return errForbidden(c)
	}

	user.IsActive = active
	if err := repos.Team.UpdateUser(user); err != nil {
		return errInternal(c, "failed to update user")
	}

	role, _ := repos.Team.GetRole(user.ID)
	return c.JSON(userResponse(user, rbac.RoleFromString(role).String()))
}

// HandleActivateUser re-enables a deactivated team member (admin only).
func HandleActivateUser(c *fiber.Ctx) error {
	return setUserActive(c, true)
}

// HandleDeactivateUser suspends a team member without deleting their
// records (admin only).
func HandleDeactivateUser(c *fiber.Ctx) error {
	return setUserActive(c, false)
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager staff"`
}

// HandleChangeRole sets a team member's role (admin only). Admins cannot
// change their own role, so a company can never lock itself out.
func HandleChangeRole(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	repos := tenantctx.Repos(c)
	user, err := repos.Team.GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "failed to load user")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceUser, user.CompanyID, 0, user.ID); d != rbac.Allow {
		return denyResponse(c, d)
	}
	if user.ID == tenantctx.UserID(c) {
		return errForbidden(c)
	}

	var req changeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	if err := repos.Team.SetRole(user.ID, req.Role); err != nil {
		return errInternal(c, "failed to change role")
	}
	return c.JSON(userResponse(user, req.Role))
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
	Role  string `json:"role" validate:"required,oneof=admin manager staff"`
}

// HandleInviteUser creates a single-use invitation and mails the token
// (admin only).
func HandleInviteUser(c *fiber.Ctx) error {
	if d := authorize(c, rbac.ActionCreate, rbac.ResourceUser, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	accounts := repository.GetGlobalFactory().GetGlobalRepositories().Account
	exists, err := accounts.EmailExists(req.Email)
	if err != nil {
		return errInternal(c, "failed to create invitation")
	}
	if exists {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation_failed",
			"fields": fiber.Map{"email": "taken"},
		})
	}

	rc := tenantctx.Get(c)

	seats, err := rc.Repos.Team.CountUsers()
	if err != nil {
		return errInternal(c, "failed to create invitation")
	}
	if !companyEntitlements(rc.Company).CanAddUser(seats) {
		return errLimitReached(c, "users")
	}

	inv := &models.Invitation{
		CompanyID: rc.Company.ID,
		InvitedBy: tenantctx.UserID(c),
		Email:     req.Email,
		Role:      req.Role,
	}
	if err := inv.GenerateToken(); err != nil {
		return errInternal(c, "failed to create invitation")
	}
	if err := rc.Repos.Team.CreateInvitation(inv); err != nil {
		return errInternal(c, "failed to create invitation")
	}

	acceptURL := fmt.Sprintf("https://%s%s/invitations/%s",
		rc.Company.Subdomain, env.GetEnv("TENANT_DOMAIN_SUFFIX", ".launchcrm.test"), inv.Token)
	body := fmt.Sprintf(
		"<p>You have been invited to join <strong>%s</strong> as %s.</p><p><a href=%q>Accept invitation</a></p>",
		rc.Company.Name, inv.Role, acceptURL)
	if err := mail.SendMail(inv.Email, fmt.Sprintf("Invitation to %s", rc.Company.Name), body); err != nil {
		log.Warnf("[Team] invitation mail to %s failed: %v", inv.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         inv.ID,
		"email":      inv.Email,
		"role":       inv.Role,
		"expires_at": inv.ExpiresAt,
	})
}

// HandleListInvitations returns the company's pending invitations (admin
// only).
func HandleListInvitations(c *fiber.Ctx) error {
	if d := authorize(c, rbac.ActionCreate, rbac.ResourceUser, 0, 0, 0); d != rbac.Allow {
		return denyResponse(c, d)
	}

	invitations, err := tenantctx.Repos(c).Team.ListInvitations(c.QueryInt("offset", 0), c.QueryInt("limit", 0))
	if err != nil {
		return errInternal(c, "failed to load invitations")
	}
	return c.JSON(fiber.Map{"invitations": invitations})
}

// HandleGetInvitation validates a token and shows the invite (public on
// the tenant host, no session required).
func HandleGetInvitation(c *fiber.Ctx) error {
	inv, status := loadInvitation(c)
	if status != invitationValid {
		return invitationProblem(c, status)
	}
	return c.JSON(fiber.Map{
		"email":      inv.Email,
		"role":       inv.Role,
		"expires_at": inv.ExpiresAt,
	})
}

type acceptInvitationRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Password string `json:"password" validate:"required,min=8"`
}

// HandleAcceptInvitation consumes a token and creates the invited user.
// Unknown tokens stay a plain 404; expiry and reuse are reported so the
// invitee knows to ask for a fresh invite.
func HandleAcceptInvitation(c *fiber.Ctx) error {
	inv, status := loadInvitation(c)
	if status != invitationValid {
		return invitationProblem(c, status)
	}

	var req acceptInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	user, err := models.CreateUser(inv.CompanyID, req.Name, inv.Email, req.Password)
	if err != nil {
		return errValidation(c, err)
	}

	accounts := repository.GetGlobalFactory().GetGlobalRepositories().Account
	if err := finalizeInvitation(accounts, inv, user); err != nil {
		if errors.Is(err, errInvitationConsumed) {
			return invitationProblem(c, invitationAccepted)
		}
		return errInternal(c, "failed to accept invitation")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  inv.Role,
	})
}

// errInvitationConsumed reports that another request accepted the token
// first.
var errInvitationConsumed = errors.New("invitation already accepted")

// finalizeInvitation consumes the token, then persists the invited user and
// their role. Consumption is a conditional update, so of two concurrent
// completes exactly one wins; the loser gets errInvitationConsumed instead
// of tripping over the unique email index.
func finalizeInvitation(accounts repository.AccountRepository, inv *models.Invitation, user *models.User) error {
	ok, err := accounts.ConsumeInvitation(inv.ID)
	if err != nil {
		return err
	}
	if !ok {
		return errInvitationConsumed
	}
	if err := accounts.CreateUser(user); err != nil {
		return err
	}
	return accounts.SetRole(user.ID, inv.CompanyID, inv.Role)
}

type invitationStatus int

const (
	invitationValid invitationStatus = iota
	invitationUnknown
	invitationExpired
	invitationAccepted
)

// checkInvitation classifies an invitation for the given tenant. A token
// from another tenant is indistinguishable from an unknown one.
func checkInvitation(inv *models.Invitation, companyID uint) invitationStatus {
	switch {
	case inv == nil || inv.CompanyID != companyID:
		return invitationUnknown
	case inv.IsAccepted():
		return invitationAccepted
	case inv.IsExpired():
		return invitationExpired
	default:
		return invitationValid
	}
}

// invitationProblem maps a non-usable invitation to its response.
func invitationProblem(c *fiber.Ctx, status invitationStatus) error {
	switch status {
	case invitationExpired:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invitation_expired",
		})
	case invitationAccepted:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invitation_already_accepted",
		})
	default:
		return errNotFound(c)
	}
}

// loadInvitation fetches the token's invitation and classifies it for the
// current tenant.
func loadInvitation(c *fiber.Ctx) (*models.Invitation, invitationStatus) {
	token := c.Params("token")
	if token == "" {
		return nil, invitationUnknown
	}
	company := tenantctx.Company(c)
	if company == nil {
		return nil, invitationUnknown
	}

	accounts := repository.GetGlobalFactory().GetGlobalRepositories().Account
	inv, err := accounts.GetInvitationByToken(token)
	if err != nil {
		return nil, invitationUnknown
	}
	if status := checkInvitation(inv, company.ID); status != invitationValid {
		return nil, status
	}
	return inv, invitationValid
}
