package models

import "time"

// Plan is a global (not tenant-scoped) catalog entry describing a
// purchasable subscription tier.
type Plan struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	StripePriceID   string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_price_id"`
	StripeProductID string    `gorm:"type:varchar(191)" json:"stripe_product_id"`
	Description     string    `gorm:"type:text;default:null" json:"description"`
	FeaturesJSON    string    `gorm:"type:text" json:"-"`
	Price           float64   `gorm:"type:decimal(8,2);not null;default:0" json:"price" validate:"gte=0"`
	Currency        string    `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Interval        string    `gorm:"type:varchar(10);default:'month'" json:"interval" validate:"omitempty,oneof=month year"`
	IsActive        bool      `gorm:"default:true;index" json:"is_active"`
	SortOrder       int       `gorm:"default:0" json:"sort_order"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Plan) IsFree() bool {
	return p.Price == 0
}
