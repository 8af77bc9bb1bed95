package model

import (
	"time"

	"github.com/google/uuid"
)

type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`
	FileName   string    `gorm:"not null" json:"file_name"`
	FilePath   string    `gorm:"not null" json:"file_path"`
	MimeType   string    `json:"mime_type,omitempty"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Task     Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Uploader User `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
}
