package model

import (
	"time"

	"github.com/google/uuid"
)

type ChecklistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	Text      string    `gorm:"not null" json:"text"`
	IsDone    bool      `gorm:"not null;default:false" json:"is_done"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Task      Task   `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Assignees []User `gorm:"many2many:checklist_item_assignees" json:"assignees,omitempty"`
}
