package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type ChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

func (r *ChecklistRepository) Create(ctx context.Context, item *model.ChecklistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ChecklistRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ChecklistItem, error) {
	var item model.ChecklistItem
	err := r.db.WithContext(ctx).Preload("Assignees").Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ChecklistRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) ([]model.ChecklistItem, error) {
	var items []model.ChecklistItem
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&items).Error
	return items, err
}

func (r *ChecklistRepository) Update(ctx context.Context, item *model.ChecklistItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *ChecklistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ChecklistItem{}).Error
}

func (r *ChecklistRepository) Assign(ctx context.Context, item *model.ChecklistItem, user *model.User) error {
	return r.db.WithContext(ctx).Model(item).Association("Assignees").Append(user)
}

func (r *ChecklistRepository) Unassign(ctx context.Context, item *model.ChecklistItem, user *model.User) error {
	return r.db.WithContext(ctx).Model(item).Association("Assignees").Delete(user)
}
