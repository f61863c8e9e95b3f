package repository

import (
	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

type dealRepository struct {
	db        *gorm.DB
	companyID uint
}

func newDealRepository(db *gorm.DB, companyID uint) DealRepository {
	return &dealRepository{db: db, companyID: companyID}
}

func (r *dealRepository) Create(deal *models.Deal) error {
	deal.CompanyID = r.companyID
	return r.db.Create(deal).Error
}

func (r *dealRepository) GetByID(id uint) (*models.Deal, error) {
	var deal models.Deal
	err := r.db.Where("id = ? AND company_id = ?", id, r.companyID).First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *dealRepository) List(opts ListOptions) ([]models.Deal, error) {
	var deals []models.Deal
	query := r.db.Where("company_id = ?", r.companyID)
	if opts.Search != "" {
		query = query.Where("title LIKE ?", "%"+opts.Search+"%")
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	err := query.Order(orderOrDefault(opts)).Offset(opts.Offset).Limit(limitOrDefault(opts)).Find(&deals).Error
	return deals, err
}

func (r *dealRepository) Update(deal *models.Deal) error {
	if deal.CompanyID != r.companyID {
		return gorm.ErrRecordNotFound
	}
	return r.db.Save(deal).Error
}

func (r *dealRepository) Delete(id uint) error {
	res := r.db.Where("id = ? AND company_id = ?", id, r.companyID).Delete(&models.Deal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *dealRepository) ListByAssignee(userID uint) ([]models.Deal, error) {
	var deals []models.Deal
	err := r.db.Where("company_id = ? AND assigned_to = ?", r.companyID, userID).Find(&deals).Error
	return deals, err
}

func (r *dealRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Deal{}).Where("company_id = ?", r.companyID).Count(&count).Error
	return count, err
}

func (r *dealRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Deal{}).
		Where("company_id = ? AND status = ?", r.companyID, status).
		Count(&count).Error
	return count, err
}
