package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/internal/pkg/compliance"
	"github.com/launchcrm/launchcrm/internal/pkg/constants"
	"github.com/launchcrm/launchcrm/internal/pkg/env"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
	"github.com/launchcrm/launchcrm/internal/pkg/security"
	"github.com/launchcrm/launchcrm/internal/pkg/session"
	"github.com/launchcrm/launchcrm/internal/pkg/tenantctx"
)

// ExportDownloadTTL bounds how long a stored export stays downloadable
// via a signed link.
const ExportDownloadTTL = time.Hour

// exportResponse attaches a signed download link when the bundle was
// persisted to the export store.
func exportResponse(c *fiber.Ctx, export *compliance.UserExport, userID, companyID uint) error {
	if export.ObjectKey == "" {
		return c.JSON(export)
	}
	token, err := security.GenerateExportToken(userID, companyID, export.ObjectKey,
		ExportDownloadTTL, env.GetEnv("APP_SECRET", ""))
	if err != nil {
		log.Warnf("[Compliance] could not sign download link for export %s: %v", export.ExportID, err)
		return c.JSON(export)
	}
	return c.JSON(fiber.Map{
		"export":       export,
		"download_url": constants.ComplianceDownloadRoute + "?token=" + token,
	})
}

// HandleExportMyData exports everything stored about the calling user.
func HandleExportMyData(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)

	export, err := complianceService.ExportUserData(c.UserContext(), rc.Company.ID, tenantctx.UserID(c))
	if err != nil {
		log.Errorf("[Compliance] self export failed for user %d: %v", tenantctx.UserID(c), err)
		return errInternal(c, "export failed")
	}
	return exportResponse(c, export, tenantctx.UserID(c), rc.Company.ID)
}

// HandleDownloadExport streams a stored export bundle. The signed token is
// the only credential; it binds the object to the tenant it was issued
// for.
func HandleDownloadExport(c *fiber.Ctx) error {
	claims, err := security.VerifyExportToken(c.Query("token"), env.GetEnv("APP_SECRET", ""))
	if err != nil {
		return errNotFound(c)
	}
	rc := tenantctx.Get(c)
	if claims.CompanyID != rc.Company.ID {
		return errNotFound(c)
	}

	data, err := complianceService.DownloadExport(c.UserContext(), claims.ObjectKey)
	if err != nil {
		if errors.Is(err, compliance.ErrExportUnavailable) {
			return errNotFound(c)
		}
		log.Errorf("[Compliance] export download failed for %s: %v", claims.ObjectKey, err)
		return errInternal(c, "download failed")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="export.json"`)
	return c.Send(data)
}

// HandleExportUserData exports another team member's data (admin only).
func HandleExportUserData(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	rc := tenantctx.Get(c)
	user, err := rc.Repos.Team.GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "export failed")
	}

	if d := authorize(c, rbac.ActionUpdate, rbac.ResourceUser, user.CompanyID, 0, user.ID); d != rbac.Allow {
		return denyResponse(c, d)
	}

	export, err := complianceService.ExportUserData(c.UserContext(), rc.Company.ID, user.ID)
	if err != nil {
		if errors.Is(err, compliance.ErrUserNotFound) {
			return errNotFound(c)
		}
		log.Errorf("[Compliance] export failed for user %d: %v", user.ID, err)
		return errInternal(c, "export failed")
	}
	return exportResponse(c, export, user.ID, rc.Company.ID)
}

// HandleAnonymizeUser irreversibly scrubs a team member's personal data
// (admin only, never self — deleting the last admin's identity would lock
// the company out).
func HandleAnonymizeUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return errNotFound(c)
	}

	rc := tenantctx.Get(c)
	user, err := rc.Repos.Team.GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(c)
	}
	if err != nil {
		return errInternal(c, "anonymization failed")
	}

	if d := authorize(c, rbac.ActionDelete, rbac.ResourceUser, user.CompanyID, 0, user.ID); d != rbac.Allow {
		return denyResponse(c, d)
	}

	if err := complianceService.AnonymizeUser(c.UserContext(), rc.Company.ID, user.ID); err != nil {
		if errors.Is(err, compliance.ErrUserNotFound) {
			return errNotFound(c)
		}
		log.Errorf("[Compliance] anonymization failed for user %d: %v", user.ID, err)
		return errInternal(c, "anonymization failed")
	}
	return c.JSON(fiber.Map{"status": "anonymized"})
}

// HandleDeleteMyAccount anonymizes the calling user and ends their
// session. Admins cannot delete themselves here; the company would lose
// its last administrator silently.
func HandleDeleteMyAccount(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)
	if rc.Role == rbac.RoleAdmin {
		return errForbidden(c)
	}

	userID := tenantctx.UserID(c)
	if err := complianceService.AnonymizeUser(c.UserContext(), rc.Company.ID, userID); err != nil {
		log.Errorf("[Compliance] account deletion failed for user %d: %v", userID, err)
		return errInternal(c, "account deletion failed")
	}

	if sess, err := session.GetSessionStore().Get(c); err == nil {
		if err := sess.Destroy(); err != nil {
			log.Warnf("[Compliance] session destroy failed after account deletion: %v", err)
		}
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

type consentRequest struct {
	Purpose string `json:"purpose" validate:"required,max=100"`
	Granted bool   `json:"granted"`
}

// HandleRecordConsent appends a consent decision for the calling user.
func HandleRecordConsent(c *fiber.Ctx) error {
	var req consentRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}

	if err := complianceService.RecordConsent(tenantctx.UserID(c), req.Purpose, req.Granted); err != nil {
		return errInternal(c, "failed to record consent")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"purpose": req.Purpose,
		"granted": req.Granted,
	})
}

// HandleConsentHistory returns the calling user's consent log.
func HandleConsentHistory(c *fiber.Ctx) error {
	records, err := complianceService.ConsentHistory(tenantctx.UserID(c))
	if err != nil {
		return errInternal(c, "failed to load consent history")
	}
	return c.JSON(fiber.Map{"consents": records})
}

// HandleRetentionPolicies returns the retention windows that apply to the
// tenant (admin only).
func HandleRetentionPolicies(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)
	return c.JSON(fiber.Map{
		"policy": retentionPolicy.ForCompany(rc.Company.ID),
	})
}

// HandleRetentionCleanup purges the tenant's expired data immediately
// instead of waiting for the nightly run (admin only).
func HandleRetentionCleanup(c *fiber.Ctx) error {
	rc := tenantctx.Get(c)
	result, err := complianceService.CleanupExpiredData(c.UserContext(), retentionPolicy.ForCompany(rc.Company.ID))
	if err != nil {
		log.Errorf("[Compliance] on-demand cleanup failed for company %d: %v", rc.Company.ID, err)
		return errInternal(c, "cleanup failed")
	}
	return c.JSON(result)
}
