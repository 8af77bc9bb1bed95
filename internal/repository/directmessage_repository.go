package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type DirectMessageRepository struct {
	db *gorm.DB
}

func NewDirectMessageRepository(db *gorm.DB) *DirectMessageRepository {
	return &DirectMessageRepository{db: db}
}

func (r *DirectMessageRepository) Create(ctx context.Context, dm *model.DirectMessage) error {
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Sender").Preload("Receiver").
		Where("id = ?", dm.ID).First(dm).Error
}

// GetConversation returns the full exchange between two users, oldest first.
func (r *DirectMessageRepository) GetConversation(ctx context.Context, userA, userB uuid.UUID) ([]model.DirectMessage, error) {
	var messages []model.DirectMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at asc").
		Find(&messages).Error
	return messages, err
}

// ListPartners returns the distinct user ids the given user has exchanged
// messages with.
func (r *DirectMessageRepository) ListPartners(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var partners []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		FROM direct_messages
		WHERE sender_id = ? OR receiver_id = ?`, userID, userID, userID).
		Scan(&partners).Error
	return partners, err
}

// MarkConversationRead marks everything the other user sent as read.
func (r *DirectMessageRepository) MarkConversationRead(ctx context.Context, readerID, partnerID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", readerID, partnerID, false).
		Update("is_read", true).Error
}

// CountUnread returns unread messages addressed to the user.
func (r *DirectMessageRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
