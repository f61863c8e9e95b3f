// Package compliance implements the data-protection workflows: per-user
// data export, irreversible anonymization, consent tracking, and retention
// cleanup.
package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/exportstore"
)

// ErrUserNotFound is returned when the target user does not exist in the
// given company.
var ErrUserNotFound = errors.New("compliance: user not found")

// AnonymizedEmailDomain hosts the synthetic addresses that replace real
// ones. The TLD is reserved and can never receive mail.
const AnonymizedEmailDomain = "anonymized.invalid"

// Uploader is the export store surface the service needs. Nil means
// exports are returned inline only.
type Uploader interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) (*exportstore.UploadResult, error)
	Download(ctx context.Context, objectKey string) ([]byte, error)
}

// Service runs the compliance workflows against one database. All access
// to tenant-owned entities goes through the scoped repositories; the raw
// handle is only touched via the audited platform path in CleanupExpiredData.
type Service struct {
	db       *gorm.DB
	accounts repository.AccountRepository
	store    Uploader
	storeCfg *exportstore.Config
	scope    func(companyID uint) *repository.TenantRepositories
}

// NewService creates a compliance service. store may be nil when no export
// bucket is configured.
func NewService(db *gorm.DB, accounts repository.AccountRepository, store Uploader, storeCfg *exportstore.Config) *Service {
	return &Service{
		db:       db,
		accounts: accounts,
		store:    store,
		storeCfg: storeCfg,
		scope: func(companyID uint) *repository.TenantRepositories {
			return repository.ForCompany(db, companyID)
		},
	}
}

// UserExport is the machine-readable bundle of everything stored about one
// user inside their company.
type UserExport struct {
	ExportID    string                 `json:"export_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	CompanyID   uint                   `json:"company_id"`
	User        models.User            `json:"user"`
	Role        string                 `json:"role"`
	Consents    []models.ConsentRecord `json:"consents"`
	Leads       []models.Lead          `json:"leads"`
	Deals       []models.Deal          `json:"deals"`
	Tasks       []models.Task          `json:"tasks"`
	ObjectKey   string                 `json:"object_key,omitempty"`
}

// ExportUserData assembles every record tied to the user within their
// company and, when an export store is configured, persists the bundle as
// a JSON document.
func (s *Service) ExportUserData(ctx context.Context, companyID, userID uint) (*UserExport, error) {
	repos := s.scope(companyID)

	user, err := repos.Team.GetUserByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	role, err := repos.Team.GetRole(userID)
	if err != nil {
		return nil, err
	}

	export := &UserExport{
		ExportID:    uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		CompanyID:   companyID,
		User:        *user,
		Role:        role,
	}

	if export.Consents, err = s.accounts.ListConsents(userID); err != nil {
		return nil, err
	}
	if export.Leads, err = repos.Leads.ListByAssignee(userID); err != nil {
		return nil, err
	}
	if export.Deals, err = repos.Deals.ListByAssignee(userID); err != nil {
		return nil, err
	}
	if export.Tasks, err = repos.Tasks.ListByAssignee(userID); err != nil {
		return nil, err
	}

	if s.store != nil && s.storeCfg != nil {
		now := export.GeneratedAt
		key := s.storeCfg.GetObjectKey(companyID, userID, export.ExportID, now.Year(), int(now.Month()))
		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal export: %w", err)
		}
		if _, err := s.store.Upload(ctx, key, data, "application/json"); err != nil {
			return nil, fmt.Errorf("store export: %w", err)
		}
		export.ObjectKey = key
	}

	log.Infof("[Compliance] exported data for user %d in company %d (export %s)",
		userID, companyID, export.ExportID)
	return export, nil
}

// ErrExportUnavailable is returned when no export store is configured.
var ErrExportUnavailable = errors.New("compliance: export store not configured")

// DownloadExport fetches a previously stored export bundle.
func (s *Service) DownloadExport(ctx context.Context, objectKey string) ([]byte, error) {
	if s.store == nil {
		return nil, ErrExportUnavailable
	}
	return s.store.Download(ctx, objectKey)
}

// AnonymizeUser irreversibly strips personal data from a user while
// keeping their business records (leads, deals, tasks) intact for the
// company. The placeholders replace the real identity; the scrub itself is
// the team repository's transaction.
func (s *Service) AnonymizeUser(ctx context.Context, companyID, userID uint) error {
	_ = ctx

	placeholderName := fmt.Sprintf("Deleted User %d", userID)
	placeholderEmail := fmt.Sprintf("user-%d@%s", userID, AnonymizedEmailDomain)

	err := s.scope(companyID).Team.AnonymizeUser(userID, placeholderName, placeholderEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	log.Infof("[Compliance] anonymized user %d in company %d", userID, companyID)
	return nil
}

// RecordConsent appends one consent decision to the log. The log is
// append-only: a withdrawal is a new record, not an update.
func (s *Service) RecordConsent(userID uint, purpose string, granted bool) error {
	record := &models.ConsentRecord{
		UserID:  userID,
		Purpose: purpose,
		Granted: granted,
	}
	return s.accounts.RecordConsent(record)
}

// ConsentHistory returns the full consent log for a user, oldest first.
func (s *Service) ConsentHistory(userID uint) ([]models.ConsentRecord, error) {
	return s.accounts.ListConsents(userID)
}

// Policy defines how many days each class of data survives before a
// cleanup run purges it for good. CompanyID zero means all tenants.
type Policy struct {
	SoftDeletedRecordDays int  `json:"soft_deleted_record_days"`
	InvitationDays        int  `json:"invitation_days"`
	WebhookEventDays      int  `json:"webhook_event_days"`
	CompanyID             uint `json:"company_id,omitempty"`
}

// DefaultPolicy keeps everything for the same window. Webhook payloads
// only matter for replay detection and dispute handling, so they get a
// shorter cap.
func DefaultPolicy(days int) Policy {
	webhookDays := days
	if webhookDays > 90 {
		webhookDays = 90
	}
	return Policy{
		SoftDeletedRecordDays: days,
		InvitationDays:        days,
		WebhookEventDays:      webhookDays,
	}
}

func (p Policy) cutoff(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}

// ForCompany returns the policy restricted to one tenant.
func (p Policy) ForCompany(companyID uint) Policy {
	p.CompanyID = companyID
	return p
}

// CleanupResult summarizes one retention run.
type CleanupResult struct {
	PurgedRecords     int64 `json:"purged_records"`
	PurgedInvitations int64 `json:"purged_invitations"`
	PurgedWebhookRows int64 `json:"purged_webhook_rows"`
}

// CleanupExpiredData permanently removes soft-deleted CRM records past the
// retention window, consumed or expired invitations, and processed webhook
// payloads. A policy without a company id runs across all tenants, so it
// goes through the audited unscoped access path.
func (s *Service) CleanupExpiredData(ctx context.Context, policy Policy) (*CleanupResult, error) {
	_ = ctx
	platform := repository.Unscoped(s.db, "retention cleanup")
	db := platform.DB()

	result := &CleanupResult{}

	recordCutoff := policy.cutoff(policy.SoftDeletedRecordDays)
	for _, model := range []interface{}{
		&models.Contact{}, &models.Lead{}, &models.Deal{}, &models.Task{},
	} {
		tx := db.Unscoped().Where("deleted_at IS NOT NULL AND deleted_at < ?", recordCutoff)
		if policy.CompanyID != 0 {
			tx = tx.Where("company_id = ?", policy.CompanyID)
		}
		tx = tx.Delete(model)
		if tx.Error != nil {
			return nil, tx.Error
		}
		result.PurgedRecords += tx.RowsAffected
	}

	invitationCutoff := policy.cutoff(policy.InvitationDays)
	tx := db.Where("expires_at < ? OR accepted_at IS NOT NULL", invitationCutoff).
		Where("created_at < ?", invitationCutoff)
	if policy.CompanyID != 0 {
		tx = tx.Where("company_id = ?", policy.CompanyID)
	}
	tx = tx.Delete(&models.Invitation{})
	if tx.Error != nil {
		return nil, tx.Error
	}
	result.PurgedInvitations = tx.RowsAffected

	// Webhook rows carry no tenant id and are only purged by the
	// platform-wide run.
	if policy.CompanyID == 0 {
		tx = db.Where("processed_at IS NOT NULL AND created_at < ?", policy.cutoff(policy.WebhookEventDays)).
			Delete(&models.BillingWebhookEvent{})
		if tx.Error != nil {
			return nil, tx.Error
		}
		result.PurgedWebhookRows = tx.RowsAffected
	}

	log.Infof("[Compliance] retention cleanup: %d records, %d invitations, %d webhook rows",
		result.PurgedRecords, result.PurgedInvitations, result.PurgedWebhookRows)
	return result, nil
}
