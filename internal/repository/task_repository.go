package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Tags").
		Where("id = ?", id).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) GetByListID(ctx context.Context, listID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Tags").
		Where("list_id = ?", listID).
		Order("task_order asc, created_at desc").
		Find(&tasks).Error
	return tasks, err
}

// GetAssignedToUser returns tasks where the user is an assignee, soonest
// due date first.
func (r *TaskRepository) GetAssignedToUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Where("task_assignees.user_id = ?", userID).
		Order("due_date asc nulls last").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{
			&model.ChecklistItem{}, &model.Comment{}, &model.Attachment{}, &model.TimeEntry{},
		} {
			if err := tx.Where("task_id = ?", id).Delete(table).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&model.Task{}).Error
	})
}

// Move places the task into a list at the given position.
func (r *TaskRepository) Move(ctx context.Context, taskID, listID uuid.UUID, position int) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{"list_id": listID, "task_order": position}).Error
}

func (r *TaskRepository) Assign(ctx context.Context, task *model.Task, user *model.User) error {
	return r.db.WithContext(ctx).Model(task).Association("Assignees").Append(user)
}

func (r *TaskRepository) Unassign(ctx context.Context, task *model.Task, user *model.User) error {
	return r.db.WithContext(ctx).Model(task).Association("Assignees").Delete(user)
}

func (r *TaskRepository) AddTag(ctx context.Context, task *model.Task, tag *model.Tag) error {
	return r.db.WithContext(ctx).Model(task).Association("Tags").Append(tag)
}

func (r *TaskRepository) RemoveTag(ctx context.Context, task *model.Task, tag *model.Tag) error {
	return r.db.WithContext(ctx).Model(task).Association("Tags").Delete(tag)
}

// Reorder applies task positions within one list transactionally.
func (r *TaskRepository) Reorder(ctx context.Context, listID uuid.UUID, order map[uuid.UUID]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for taskID, position := range order {
			if err := tx.Model(&model.Task{}).
				Where("id = ? AND list_id = ?", taskID, listID).
				Update("task_order", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
