package repository

import (
	"time"

	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

type leadRepository struct {
	db        *gorm.DB
	companyID uint
}

func newLeadRepository(db *gorm.DB, companyID uint) LeadRepository {
	return &leadRepository{db: db, companyID: companyID}
}

func (r *leadRepository) Create(lead *models.Lead) error {
	lead.CompanyID = r.companyID
	return r.db.Create(lead).Error
}

func (r *leadRepository) GetByID(id uint) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Where("id = ? AND company_id = ?", id, r.companyID).First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) List(opts ListOptions) ([]models.Lead, error) {
	var leads []models.Lead
	query := r.db.Where("company_id = ?", r.companyID)
	if opts.Search != "" {
		query = query.Where("title LIKE ?", "%"+opts.Search+"%")
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	err := query.Order(orderOrDefault(opts)).Offset(opts.Offset).Limit(limitOrDefault(opts)).Find(&leads).Error
	return leads, err
}

func (r *leadRepository) Update(lead *models.Lead) error {
	if lead.CompanyID != r.companyID {
		return gorm.ErrRecordNotFound
	}
	return r.db.Save(lead).Error
}

func (r *leadRepository) Delete(id uint) error {
	res := r.db.Where("id = ? AND company_id = ?", id, r.companyID).Delete(&models.Lead{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *leadRepository) ListByAssignee(userID uint) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.db.Where("company_id = ? AND assigned_to = ?", r.companyID, userID).Find(&leads).Error
	return leads, err
}

func (r *leadRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).Where("company_id = ?", r.companyID).Count(&count).Error
	return count, err
}

func (r *leadRepository) CountCreatedBetween(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).
		Where("company_id = ? AND created_at BETWEEN ? AND ?", r.companyID, from, to).
		Count(&count).Error
	return count, err
}
