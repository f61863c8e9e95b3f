package models

import "time"

const (
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusEnded    = "ended"
)

// Subscription mirrors one billing-provider subscription object. The local
// copy is eventually consistent with the provider and is refreshed by
// webhook or explicit sync. The (provider subscription id) unique index is
// what makes webhook processing an idempotent upsert.
type Subscription struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CompanyID    uint       `gorm:"not null;index" json:"company_id"`
	Name         string     `gorm:"type:varchar(150)" json:"name"`
	StripeID     string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscriptions_stripe_id" json:"stripe_id"`
	StripeStatus string     `gorm:"type:varchar(32);not null;index" json:"stripe_status"`
	StripePrice  string     `gorm:"type:varchar(191)" json:"stripe_price"`
	Quantity     int        `gorm:"default:1" json:"quantity"`
	TrialEndsAt  *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	EndsAt       *time.Time `gorm:"type:timestamp;default:null" json:"ends_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subscription) IsOnTrial() bool {
	return s.TrialEndsAt != nil && s.TrialEndsAt.After(time.Now())
}

func (s *Subscription) IsActive() bool {
	return s.StripeStatus == SubscriptionStatusActive || s.IsOnTrial()
}

func (s *Subscription) IsCancelled() bool {
	return s.EndsAt != nil && s.EndsAt.Before(time.Now())
}

// IsOnGracePeriod reports a canceled subscription that still has paid time left.
func (s *Subscription) IsOnGracePeriod() bool {
	if s.EndsAt == nil {
		return false
	}
	return s.EndsAt.After(time.Now()) && s.StripeStatus == SubscriptionStatusCanceled
}
