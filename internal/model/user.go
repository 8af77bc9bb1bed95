package model

import (
	"time"

	"github.com/google/uuid"
)

// Global roles, distinct from per-board membership roles.
const (
	GlobalRoleUser  = "USER"
	GlobalRoleAdmin = "ADMIN"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Name           string    `gorm:"not null" json:"name"`
	HashedPassword string    `gorm:"not null" json:"-"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Role           string    `gorm:"not null;default:USER;check:role IN ('USER', 'ADMIN')" json:"role"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsGlobalAdmin reports whether the user bypasses board-level checks.
func (u *User) IsGlobalAdmin() bool {
	return u.Role == GlobalRoleAdmin
}
