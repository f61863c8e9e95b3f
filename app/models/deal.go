package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DealStatusOpen       = "open"
	DealStatusClosedWon  = "closed_won"
	DealStatusClosedLost = "closed_lost"
)

type Deal struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CompanyID          uint           `gorm:"not null;index" json:"-"`
	ContactID          uint           `gorm:"not null;index" json:"contact_id" validate:"required"`
	LeadID             uint           `gorm:"index;default:null" json:"lead_id"`
	Title              string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Description        string         `gorm:"type:text;default:null" json:"description"`
	Value              float64        `gorm:"type:decimal(12,2);default:0" json:"value" validate:"gte=0"`
	Currency           string         `gorm:"type:varchar(3);default:'USD'" json:"currency" validate:"omitempty,len=3"`
	Status             string         `gorm:"type:varchar(20);default:'open'" json:"status" validate:"omitempty,oneof=open closed_won closed_lost"`
	Probability        int            `gorm:"default:50" json:"probability" validate:"gte=0,lte=100"`
	PipelineStage      string         `gorm:"type:varchar(50);default:null" json:"pipeline_stage"`
	AssignedTo         uint           `gorm:"index;default:null" json:"assigned_to"`
	EstimatedCloseDate *time.Time     `gorm:"type:date;default:null" json:"estimated_close_date,omitempty"`
	ActualCloseDate    *time.Time     `gorm:"type:date;default:null" json:"actual_close_date,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Deal) IsWon() bool {
	return d.Status == DealStatusClosedWon
}

func (d *Deal) IsLost() bool {
	return d.Status == DealStatusClosedLost
}

func (d *Deal) IsClosed() bool {
	return d.Status == DealStatusClosedWon || d.Status == DealStatusClosedLost
}

// ExpectedValue weights the deal value by its win probability.
func (d *Deal) ExpectedValue() float64 {
	return d.Value * float64(d.Probability) / 100
}
