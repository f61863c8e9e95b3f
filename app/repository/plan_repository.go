package repository

import (
	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates the plan catalog repository. Plans are global
// and never tenant-scoped.
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetActive() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("is_active = ?", true).Order("sort_order ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) GetByStripePriceID(priceID string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("stripe_price_id = ?", priceID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
