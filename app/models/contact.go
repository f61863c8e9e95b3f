package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	ContactStatusActive   = "active"
	ContactStatusInactive = "inactive"
	ContactStatusArchived = "archived"
)

// Contact is a tenant-owned CRM record. CompanyID is set once at creation
// and never mutated.
type Contact struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CompanyID   uint           `gorm:"not null;index" json:"-"`
	FirstName   string         `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,max=100"`
	LastName    string         `gorm:"type:varchar(100)" json:"last_name" validate:"max=100"`
	Email       string         `gorm:"type:varchar(200);index" json:"email" validate:"omitempty,email,max=200"`
	Phone       string         `gorm:"type:varchar(50);default:null" json:"phone"`
	CompanyName string         `gorm:"type:varchar(150);default:null" json:"company_name"`
	Position    string         `gorm:"type:varchar(100);default:null" json:"position"`
	Source      string         `gorm:"type:varchar(50);default:null" json:"source"`
	Notes       string         `gorm:"type:text;default:null" json:"notes"`
	TagsJSON    string         `gorm:"type:text" json:"-"`
	Status      string         `gorm:"type:varchar(20);default:'active'" json:"status" validate:"omitempty,oneof=active inactive archived"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName joins first and last name for display.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Contact) IsActive() bool {
	return c.Status == ContactStatusActive
}
