package model

import (
	"time"

	"github.com/google/uuid"
)

// Task priorities.
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Approval workflow states.
const (
	ApprovalNotRequired = "NOT_REQUIRED"
	ApprovalPending     = "PENDING"
	ApprovalApproved    = "APPROVED"
	ApprovalRejected    = "REJECTED"
)

type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ListID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"list_id"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description"`
	Priority       string     `gorm:"not null;default:NORMAL;check:priority IN ('LOW', 'NORMAL', 'HIGH', 'URGENT')" json:"priority"`
	ApprovalStatus string     `gorm:"not null;default:NOT_REQUIRED;check:approval_status IN ('NOT_REQUIRED', 'PENDING', 'APPROVED', 'REJECTED')" json:"approval_status"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Order          int        `gorm:"column:task_order;not null;default:0" json:"order"`
	CreatedByID    uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	List      TaskList `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy User     `gorm:"foreignKey:CreatedByID" json:"-"`
	Assignees []User   `gorm:"many2many:task_assignees" json:"assignees,omitempty"`
	Tags      []Tag    `gorm:"many2many:task_tags" json:"tags,omitempty"`
}

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ValidApprovalStatus reports whether s is a known approval state.
func ValidApprovalStatus(s string) bool {
	switch s {
	case ApprovalNotRequired, ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}
