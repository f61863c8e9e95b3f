package repository

import (
	"errors"

	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// teamRepository implements TeamRepository: users, role assignments and
// invitations belonging to one company.
type teamRepository struct {
	db        *gorm.DB
	companyID uint
}

func newTeamRepository(db *gorm.DB, companyID uint) TeamRepository {
	return &teamRepository{db: db, companyID: companyID}
}

func (r *teamRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ? AND company_id = ?", id, r.companyID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *teamRepository) ListUsers(offset, limit int) ([]models.User, error) {
	var users []models.User
	if limit <= 0 {
		limit = defaultListLimit
	}
	err := r.db.Where("company_id = ?", r.companyID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

func (r *teamRepository) UpdateUser(user *models.User) error {
	if user.CompanyID != r.companyID {
		return gorm.ErrRecordNotFound
	}
	return r.db.Save(user).Error
}

// AnonymizeUser replaces a member's identity with the given placeholders,
// drops their role assignment and consent log, and soft-deletes the row.
// One transaction: either the whole identity is scrubbed or nothing is.
func (r *teamRepository) AnonymizeUser(id uint, placeholderName, placeholderEmail string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ? AND company_id = ?", id, r.companyID).
			First(&user).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":          placeholderName,
			"email":         placeholderEmail,
			"password":      "",
			"phone":         "",
			"job_title":     "",
			"bio":           "",
			"last_login_ip": "",
			"is_active":     false,
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		// Open sessions cannot be revoked via the user row, but a missing
		// role makes every authorization check fail.
		if err := tx.Where("user_id = ? AND company_id = ?", user.ID, r.companyID).
			Delete(&models.UserRole{}).Error; err != nil {
			return err
		}

		// Consent history is personal data too.
		if err := tx.Where("user_id = ?", user.ID).
			Delete(&models.ConsentRecord{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", user.ID).Delete(&models.User{}).Error
	})
}

func (r *teamRepository) DeleteUser(id uint) error {
	res := r.db.Where("id = ? AND company_id = ?", id, r.companyID).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *teamRepository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("company_id = ?", r.companyID).Count(&count).Error
	return count, err
}

// GetRole returns the assigned role for a user in this company. A missing
// assignment returns "" with no error; the caller resolves the default.
func (r *teamRepository) GetRole(userID uint) (string, error) {
	var ur models.UserRole
	err := r.db.Where("user_id = ? AND company_id = ?", userID, r.companyID).First(&ur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ur.Role, nil
}

func (r *teamRepository) SetRole(userID uint, role string) error {
	ur := &models.UserRole{
		UserID:    userID,
		CompanyID: r.companyID,
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

func (r *teamRepository) RemoveRole(userID uint) error {
	return r.db.Where("user_id = ? AND company_id = ?", userID, r.companyID).
		Delete(&models.UserRole{}).Error
}

func (r *teamRepository) ListInvitations(offset, limit int) ([]models.Invitation, error) {
	var invs []models.Invitation
	if limit <= 0 {
		limit = defaultListLimit
	}
	err := r.db.Where("company_id = ?", r.companyID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&invs).Error
	return invs, err
}

func (r *teamRepository) CreateInvitation(inv *models.Invitation) error {
	inv.CompanyID = r.companyID
	return r.db.Create(inv).Error
}
