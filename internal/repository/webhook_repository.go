package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type WebhookRepository struct {
	db *gorm.DB
}

type WebhookRepositoryInterface interface {
	GetActiveForBoard(ctx context.Context, boardID uuid.UUID) ([]model.Webhook, error)
}

var _ WebhookRepositoryInterface = (*WebhookRepository)(nil)

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, webhook *model.Webhook) error {
	return r.db.WithContext(ctx).Create(webhook).Error
}

func (r *WebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Webhook, error) {
	var webhook model.Webhook
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&webhook).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &webhook, nil
}

func (r *WebhookRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Webhook, error) {
	var webhooks []model.Webhook
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Find(&webhooks).Error
	return webhooks, err
}

// GetActiveForBoard returns active webhooks for the board. Event-type
// filtering happens in the dispatcher since the list is serialized JSON.
func (r *WebhookRepository) GetActiveForBoard(ctx context.Context, boardID uuid.UUID) ([]model.Webhook, error) {
	var webhooks []model.Webhook
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND is_active = ?", boardID, true).
		Find(&webhooks).Error
	return webhooks, err
}

func (r *WebhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Webhook{}).Error
}
