package models

import "time"

// UserRole maps a (user, company) pair to exactly one role. The unique
// index guarantees at most one role per user per company; a missing row
// means the user acts with the lowest-privilege role (see rbac.RoleFromString).
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_user_roles_user_company,unique,priority:1" json:"user_id"`
	CompanyID uint      `gorm:"not null;index:ux_user_roles_user_company,unique,priority:2" json:"company_id"`
	Role      string    `gorm:"type:varchar(20);not null;default:'staff'" json:"role" validate:"oneof=admin manager staff"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
