package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

type Task struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CompanyID     uint           `gorm:"not null;index" json:"-"`
	Title         string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Description   string         `gorm:"type:text;default:null" json:"description"`
	AssignedTo    uint           `gorm:"index;default:null" json:"assigned_to"`
	DueDate       *time.Time     `gorm:"type:timestamp;default:null" json:"due_date,omitempty"`
	Priority      string         `gorm:"type:varchar(20);default:'medium'" json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status        string         `gorm:"type:varchar(20);default:'pending'" json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	RelatedToType string         `gorm:"type:varchar(20);default:null" json:"related_to_type" validate:"omitempty,oneof=contact lead deal"`
	RelatedToID   uint           `gorm:"default:null" json:"related_to_id"`
	CompletedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

func (t *Task) IsOverdue() bool {
	return t.DueDate != nil && t.DueDate.Before(time.Now()) && !t.IsCompleted()
}
