package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type TaskListRepository struct {
	db *gorm.DB
}

func NewTaskListRepository(db *gorm.DB) *TaskListRepository {
	return &TaskListRepository{db: db}
}

func (r *TaskListRepository) Create(ctx context.Context, list *model.TaskList) error {
	return r.db.WithContext(ctx).Create(list).Error
}

func (r *TaskListRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TaskList, error) {
	var list model.TaskList
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *TaskListRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.TaskList, error) {
	var lists []model.TaskList
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("list_order asc").
		Find(&lists).Error
	return lists, err
}

func (r *TaskListRepository) Update(ctx context.Context, list *model.TaskList) error {
	return r.db.WithContext(ctx).Save(list).Error
}

// Delete removes the list and everything owned by its tasks.
func (r *TaskListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskIDs []uuid.UUID
		if err := tx.Model(&model.Task{}).Where("list_id = ?", id).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			for _, table := range []interface{}{
				&model.ChecklistItem{}, &model.Comment{}, &model.Attachment{}, &model.TimeEntry{},
			} {
				if err := tx.Where("task_id IN ?", taskIDs).Delete(table).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("list_id = ?", id).Delete(&model.Task{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&model.TaskList{}).Error
	})
}

// Reorder applies the given list order within a single transaction. Lists
// not belonging to the board are ignored.
func (r *TaskListRepository) Reorder(ctx context.Context, boardID uuid.UUID, order map[uuid.UUID]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for listID, position := range order {
			if err := tx.Model(&model.TaskList{}).
				Where("id = ? AND board_id = ?", listID, boardID).
				Update("list_order", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
