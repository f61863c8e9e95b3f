package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Company is the tenant: the unit of data isolation. The subdomain is the
// immutable routing key that identifies a company for the lifetime of the
// system. Companies are never hard-deleted.
type Company struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Subdomain        string     `gorm:"uniqueIndex;type:varchar(63);not null" json:"subdomain" validate:"required,hostname_rfc1123,min=2,max=63"`
	Email            string     `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email,max=200"`
	Phone            string     `gorm:"type:varchar(50);default:null" json:"phone"`
	Address          string     `gorm:"type:text;default:null" json:"address"`
	SettingsJSON     string     `gorm:"type:text" json:"-"`
	StripeCustomerID string     `gorm:"type:varchar(191);default:null;index" json:"-"`
	StripeStatus     string     `gorm:"type:varchar(32);default:null" json:"-"`
	StripePriceID    string     `gorm:"type:varchar(191);default:null" json:"-"`
	TrialEndsAt      *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	SubscribedUntil  *time.Time `gorm:"type:timestamp;default:null" json:"subscribed_until,omitempty"`
	RequestCount     int64      `gorm:"default:0" json:"-"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Company) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// IsSubscribed reports whether the paid subscription window is still open.
func (c *Company) IsSubscribed() bool {
	return c.SubscribedUntil != nil && c.SubscribedUntil.After(time.Now())
}

// IsOnTrial reports whether the trial window is still open.
func (c *Company) IsOnTrial() bool {
	return c.TrialEndsAt != nil && c.TrialEndsAt.After(time.Now())
}

// HasExpired reports whether neither subscription nor trial grants access.
func (c *Company) HasExpired() bool {
	return !c.IsSubscribed() && !c.IsOnTrial()
}
