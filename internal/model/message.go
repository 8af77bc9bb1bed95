package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is a group chat message scoped to a board room.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Board  Board `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"-"`
	Author User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
