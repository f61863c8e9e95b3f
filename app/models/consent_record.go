package models

import "time"

// ConsentRecord is an append-only log of consent grants and withdrawals.
type ConsentRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Purpose    string    `gorm:"type:varchar(100);not null" json:"purpose" validate:"required,max=100"`
	Granted    bool      `gorm:"not null" json:"granted"`
	RecordedAt time.Time `gorm:"autoCreateTime" json:"recorded_at"`
}
