package model

import (
	"time"

	"github.com/google/uuid"

	"taskboard/internal/authz"
)

// BoardMembership is the sole source of per-board authorization. One row per
// (user, board) pair; deleting a board cascades its memberships.
type BoardMembership struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_board" json:"user_id"`
	BoardID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_board;index" json:"board_id"`
	Role      authz.Role `gorm:"type:text;not null;check:role IN ('VIEWER', 'COMMENTER', 'MEMBER', 'EDITOR', 'ADMIN')" json:"role"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Board Board `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"-"`
}
