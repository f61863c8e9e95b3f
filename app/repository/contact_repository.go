package repository

import (
	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

// contactRepository implements ContactRepository with a fixed company id.
type contactRepository struct {
	db        *gorm.DB
	companyID uint
}

func newContactRepository(db *gorm.DB, companyID uint) ContactRepository {
	return &contactRepository{db: db, companyID: companyID}
}

// Create inserts a contact owned by the bound company. The company id is
// forced here, not taken from the caller's struct.
func (r *contactRepository) Create(contact *models.Contact) error {
	contact.CompanyID = r.companyID
	return r.db.Create(contact).Error
}

// GetByID retrieves a contact by id within the bound company. A contact
// owned by another company yields gorm.ErrRecordNotFound.
func (r *contactRepository) GetByID(id uint) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("id = ? AND company_id = ?", id, r.companyID).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) List(opts ListOptions) ([]models.Contact, error) {
	var contacts []models.Contact
	query := r.db.Where("company_id = ?", r.companyID)
	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	err := query.Order(orderOrDefault(opts)).Offset(opts.Offset).Limit(limitOrDefault(opts)).Find(&contacts).Error
	return contacts, err
}

func (r *contactRepository) Update(contact *models.Contact) error {
	if contact.CompanyID != r.companyID {
		return gorm.ErrRecordNotFound
	}
	return r.db.Save(contact).Error
}

func (r *contactRepository) Delete(id uint) error {
	res := r.db.Where("id = ? AND company_id = ?", id, r.companyID).Delete(&models.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contactRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Contact{}).Where("company_id = ?", r.companyID).Count(&count).Error
	return count, err
}
