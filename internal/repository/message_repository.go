package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

// History is capped so one busy room cannot dominate a page load.
const messageHistoryLimit = 100

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return err
	}
	// Reload with the author so broadcasts carry a display name.
	return r.db.WithContext(ctx).Preload("Author").
		Where("id = ?", message.ID).First(message).Error
}

// GetByBoardID returns the room history, oldest first.
func (r *MessageRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("board_id = ?", boardID).
		Order("created_at asc").
		Limit(messageHistoryLimit).
		Find(&messages).Error
	return messages, err
}
