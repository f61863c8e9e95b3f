package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CompanyID       uint           `gorm:"not null;index" json:"company_id"`
	Name            string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Email           string         `gorm:"uniqueIndex;type:varchar(200);not null" json:"email" validate:"required,email,min=5,max=200"`
	Password        string         `gorm:"type:text" json:"-" validate:"required,min=8"`
	Phone           string         `gorm:"type:varchar(50);default:null" json:"phone"`
	JobTitle        string         `gorm:"type:varchar(100);default:null" json:"job_title"`
	Bio             string         `gorm:"type:text;default:null" json:"bio" validate:"max=1000"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	ActivationToken string         `gorm:"type:varchar(64);index;default:null" json:"-"`
	EmailVerifiedAt *time.Time     `gorm:"type:timestamp;default:null" json:"email_verified_at,omitempty"`
	LastLoginAt     *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	LastLoginIP     string         `gorm:"type:varchar(45);default:null" json:"-"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsVerified reports whether the user has confirmed their email address.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a user for the given company with a hashed password.
func CreateUser(companyID uint, name, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		CompanyID: companyID,
		Name:      name,
		Email:     email,
		Password:  pw,
		IsActive:  true,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// GenerateActivationToken sets a fresh random token for email verification.
func (u *User) GenerateActivationToken() error {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ActivationToken = hex.EncodeToString(b)
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
