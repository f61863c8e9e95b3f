package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/session"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
	"github.com/launchcrm/launchcrm/internal/pkg/utils"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// invalidCredentials is the single response for every login failure mode.
// Unknown email, wrong password, and wrong tenant are indistinguishable.
func invalidCredentials(c *fiber.Ctx) error {
	return errUnauthorized(c, "invalid credentials")
}

// HandleLogin authenticates a user against the current tenant and opens a
// session.
func HandleLogin(c *fiber.Ctx) error {
	company := tenantctx.Company(c)
	if company == nil {
		return errNotFound(c)
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	accounts := repository.GetGlobalFactory().GetGlobalRepositories().Account
	user, err := accounts.GetUserByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] login lookup failed: %v", err)
		}
		return invalidCredentials(c)
	}

	// Membership in a different company fails exactly like a bad password.
	if user.CompanyID != company.ID || !user.IsActive {
		return invalidCredentials(c)
	}
	if !user.CheckPassword(req.Password) {
		return invalidCredentials(c)
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return errInternal(c, "session unavailable")
	}
	sess.Set(tenantctx.KeyUserID, user.ID)
	if err := sess.Save(); err != nil {
		return errInternal(c, "session unavailable")
	}

	now := time.Now()
	user.LastLoginAt = &now
	user.LastLoginIP = c.IP()
	if err := accounts.UpdateUser(user); err != nil {
		log.Warnf("[Auth] failed to record login time for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// HandleVerifyEmail consumes an activation token and marks the user's
// email as verified. Unknown, foreign-tenant, and already-used tokens all
// return a plain 404.
func HandleVerifyEmail(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return errNotFound(c)
	}
	company := tenantctx.Company(c)
	if company == nil {
		return errNotFound(c)
	}

	accounts := repository.GetGlobalFactory().GetGlobalRepositories().Account
	user, err := accounts.GetUserByActivationToken(token)
	if err != nil {
		return errNotFound(c)
	}
	if user.CompanyID != company.ID || user.IsVerified() {
		return errNotFound(c)
	}

	now := time.Now()
	user.EmailVerifiedAt = &now
	user.ActivationToken = ""
	if err := accounts.UpdateUser(user); err != nil {
		return errInternal(c, "verification failed")
	}

	return c.JSON(fiber.Map{"status": "verified", "email": user.Email})
}

// HandleLogout destroys the session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Warnf("[Auth] session destroy failed: %v", err)
		}
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// HandleMe returns the authenticated user's profile, role, and company.
func HandleMe(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)
	if !rc.IsLoggedIn || rc.User == nil {
		return errUnauthorized(c, "login required")
	}

	return c.JSON(fiber.Map{
		"id":         rc.User.ID,
		"name":       rc.User.Name,
		"email":      rc.User.Email,
		"phone":      rc.User.Phone,
		"job_title":  rc.User.JobTitle,
		"avatar_url": utils.GetGravatarURL(rc.User.Email, 200),
		"role":       rc.Role.String(),
		"company": fiber.Map{
			"id":        rc.Company.ID,
			"name":      rc.Company.Name,
			"subdomain": rc.Company.Subdomain,
		},
	})
}
