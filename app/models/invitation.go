package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// InvitationTTL is how long an invitation token stays valid.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a single-use, expiring invite to join a company with a
// proposed role. A token may be consumed at most once and never after expiry.
type Invitation struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CompanyID  uint       `gorm:"not null;index" json:"company_id"`
	InvitedBy  uint       `gorm:"not null" json:"invited_by"`
	Email      string     `gorm:"type:varchar(200);not null;index" json:"email" validate:"required,email"`
	Role       string     `gorm:"type:varchar(20);not null;default:'staff'" json:"role" validate:"oneof=admin manager staff"`
	Token      string     `gorm:"type:varchar(128);not null;uniqueIndex" json:"-"`
	ExpiresAt  time.Time  `gorm:"type:timestamp;not null" json:"expires_at"`
	AcceptedAt *time.Time `gorm:"type:timestamp;default:null" json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GenerateToken creates the random invite token and sets the expiry window.
func (i *Invitation) GenerateToken() error {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	i.Token = hex.EncodeToString(b)
	i.ExpiresAt = time.Now().Add(InvitationTTL)
	return nil
}

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *Invitation) IsAccepted() bool {
	return i.AcceptedAt != nil
}
