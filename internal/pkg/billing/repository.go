package billing

import (
	"time"

	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the lifecycle manager.
type Repository interface {
	GetCompanyByStripeCustomerID(customerID string) (*models.Company, error)
	SaveCompany(company *models.Company) error
	UpsertSubscription(sub *models.Subscription) error
	GetSubscriptionByStripeID(stripeID string) (*models.Subscription, error)
	ListSubscriptionsByCompany(companyID uint) ([]models.Subscription, error)
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCompanyByStripeCustomerID(customerID string) (*models.Company, error) {
	var company models.Company
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *gormRepository) SaveCompany(company *models.Company) error {
	return r.db.Save(company).Error
}

// UpsertSubscription creates or updates the local mirror keyed by the
// provider's subscription id. Replays and reordered webhooks collapse into
// last-write-wins updates instead of duplicate rows.
func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stripe_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_id",
			"name",
			"stripe_status",
			"stripe_price",
			"quantity",
			"trial_ends_at",
			"ends_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("stripe_id = ?", sub.StripeID).First(sub).Error
}

func (r *gormRepository) GetSubscriptionByStripeID(stripeID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_id = ?", stripeID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) ListSubscriptionsByCompany(companyID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
