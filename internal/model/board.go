package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	BoardTypeIndividual = "INDIVIDUAL"
	BoardTypeGroup      = "GROUP"
)

type Board struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Type        string    `gorm:"not null;default:INDIVIDUAL;check:type IN ('INDIVIDUAL', 'GROUP')" json:"type"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	CreatedBy User `gorm:"foreignKey:CreatedByID" json:"-"`
}
