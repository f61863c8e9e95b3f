package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	LeadStatusNew        = "new"
	LeadStatusContacted  = "contacted"
	LeadStatusQualified  = "qualified"
	LeadStatusProposal   = "proposal"
	LeadStatusScheduled  = "scheduled"
	LeadStatusConverted  = "converted"
	LeadStatusClosedWon  = "closed_won"
	LeadStatusClosedLost = "closed_lost"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Lead struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CompanyID          uint           `gorm:"not null;index" json:"-"`
	ContactID          uint           `gorm:"not null;index" json:"contact_id" validate:"required"`
	Title              string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Description        string         `gorm:"type:text;default:null" json:"description"`
	Value              float64        `gorm:"type:decimal(12,2);default:0" json:"value" validate:"gte=0"`
	Source             string         `gorm:"type:varchar(50);default:null" json:"source"`
	Status             string         `gorm:"type:varchar(20);default:'new'" json:"status" validate:"omitempty,oneof=new contacted qualified proposal scheduled converted closed_won closed_lost"`
	Priority           string         `gorm:"type:varchar(20);default:'medium'" json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo         uint           `gorm:"index;default:null" json:"assigned_to"`
	PipelineStage      string         `gorm:"type:varchar(50);default:null" json:"pipeline_stage"`
	EstimatedCloseDate *time.Time     `gorm:"type:date;default:null" json:"estimated_close_date,omitempty"`
	ActualCloseDate    *time.Time     `gorm:"type:date;default:null" json:"actual_close_date,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Lead) IsWon() bool {
	return l.Status == LeadStatusClosedWon
}

func (l *Lead) IsLost() bool {
	return l.Status == LeadStatusClosedLost
}

func (l *Lead) IsConverted() bool {
	return l.Status == LeadStatusConverted
}
