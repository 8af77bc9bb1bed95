package model

import (
	"time"

	"github.com/google/uuid"
)

// Webhook subscribes an external URL to board events. EventTypes holds
// activity action types; an empty list matches nothing.
type Webhook struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID    uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	TargetURL  string    `gorm:"not null" json:"target_url"`
	EventTypes []string  `gorm:"serializer:json;not null" json:"event_types"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Board Board `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"-"`
}

// Subscribed reports whether the webhook listens for eventType.
func (w *Webhook) Subscribed(eventType string) bool {
	for _, t := range w.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}
