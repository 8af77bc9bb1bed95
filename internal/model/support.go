package model

import (
	"time"

	"github.com/google/uuid"
)

// Support ticket states.
const (
	TicketOpen       = "OPEN"
	TicketInProgress = "IN_PROGRESS"
	TicketResolved   = "RESOLVED"
	TicketClosed     = "CLOSED"
)

type SupportTicket struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject     string     `gorm:"not null" json:"subject"`
	Description string     `gorm:"not null" json:"description"`
	Status      string     `gorm:"not null;default:OPEN;check:status IN ('OPEN', 'IN_PROGRESS', 'RESOLVED', 'CLOSED')" json:"status"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid" json:"assignee_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	User     User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Assignee *User `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

type SupportComment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TicketID  uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Ticket SupportTicket `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"-"`
	Author User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// ValidTicketStatus reports whether s is a known ticket state.
func ValidTicketStatus(s string) bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}
