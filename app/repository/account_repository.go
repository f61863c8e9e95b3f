package repository

import (
	"strings"
	"time"

	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountRepository implements AccountRepository: the few cross-tenant user
// lookups that legitimately happen before a tenant context exists. Email is
// globally unique, so login resolves the user first and the tenant second.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates the pre-tenant account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *accountRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *accountRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *accountRepository) GetUserByActivationToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("activation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *accountRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

func (r *accountRepository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *accountRepository) GetInvitationByToken(token string) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.Where("token = ?", token).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ConsumeInvitation marks an invitation accepted if and only if it is
// still open and unexpired. The conditional update is what keeps
// acceptance single-use when two completes race for the same token.
func (r *accountRepository) ConsumeInvitation(id uint) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Invitation{}).
		Where("id = ? AND accepted_at IS NULL AND expires_at > ?", id, now).
		Update("accepted_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *accountRepository) SetRole(userID, companyID uint, role string) error {
	ur := &models.UserRole{
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "company_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(ur).Error
}

func (r *accountRepository) GetRole(userID, companyID uint) (string, error) {
	var ur models.UserRole
	err := r.db.Where("user_id = ? AND company_id = ?", userID, companyID).First(&ur).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ur.Role, nil
}

func (r *accountRepository) RecordConsent(record *models.ConsentRecord) error {
	return r.db.Create(record).Error
}

func (r *accountRepository) ListConsents(userID uint) ([]models.ConsentRecord, error) {
	var records []models.ConsentRecord
	err := r.db.Where("user_id = ?", userID).Order("recorded_at ASC").Find(&records).Error
	return records, err
}
