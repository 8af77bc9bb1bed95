package model

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry records time spent on a task. A running timer has a nil EndedAt;
// stopping it fills EndedAt and Duration. Manual entries carry both from the
// start.
type TimeEntry struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TaskID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Duration  int64      `gorm:"not null;default:0" json:"duration"` // seconds
	Note      string     `json:"note,omitempty"`
	Manual    bool       `gorm:"not null;default:false" json:"manual"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Running reports whether the entry is an open timer.
func (e *TimeEntry) Running() bool {
	return e.EndedAt == nil
}
