package repository

import (
	"strings"

	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates the platform-level tenant lookup repository.
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(company *models.Company) error {
	company.Subdomain = strings.ToLower(strings.TrimSpace(company.Subdomain))
	return r.db.Create(company).Error
}

func (r *companyRepository) GetByID(id uint) (*models.Company, error) {
	var company models.Company
	err := r.db.First(&company, id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) GetBySubdomain(subdomain string) (*models.Company, error) {
	var company models.Company
	err := r.db.Where("subdomain = ?", strings.ToLower(strings.TrimSpace(subdomain))).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) GetByStripeCustomerID(customerID string) (*models.Company, error) {
	var company models.Company
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) SubdomainExists(subdomain string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Company{}).
		Where("subdomain = ?", strings.ToLower(strings.TrimSpace(subdomain))).
		Count(&count).Error
	return count > 0, err
}

func (r *companyRepository) Update(company *models.Company) error {
	return r.db.Save(company).Error
}
