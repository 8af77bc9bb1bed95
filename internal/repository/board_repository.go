package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/authz"
	"taskboard/internal/model"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// Create persists the board and the creator's ADMIN membership in one
// transaction, so a board never exists without an admin.
func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}
		membership := &model.BoardMembership{
			UserID:  board.CreatedByID,
			BoardID: board.ID,
			Role:    authz.RoleAdmin,
		}
		return tx.Create(membership).Error
	})
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// GetForUser returns the boards the user is a member of, newest first.
func (r *BoardRepository) GetForUser(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Joins("JOIN board_memberships ON board_memberships.board_id = boards.id").
		Where("board_memberships.user_id = ?", userID).
		Order("boards.created_at desc").
		Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Save(board).Error
}

// IsCreator reports whether userID owns the board. A nonexistent board is
// simply "not the creator".
func (r *BoardRepository) IsCreator(ctx context.Context, userID, boardID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ? AND created_by_id = ?", boardID, userID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the board and every owned child entity in one transaction.
// The board is the aggregate root: nothing it owns survives it.
func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board model.Board
		if err := tx.Where("id = ?", id).First(&board).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var listIDs []uuid.UUID
		if err := tx.Model(&model.TaskList{}).Where("board_id = ?", id).
			Pluck("id", &listIDs).Error; err != nil {
			return err
		}
		if len(listIDs) > 0 {
			var taskIDs []uuid.UUID
			if err := tx.Model(&model.Task{}).Where("list_id IN ?", listIDs).
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
				if err := tx.Where("list_id IN ?", listIDs).Delete(&model.Task{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("board_id = ?", id).Delete(&model.TaskList{}).Error; err != nil {
				return err
			}
		}

		for _, table := range []interface{}{
			&model.Tag{}, &model.Message{}, &model.Webhook{},
			&model.ActivityLog{}, &model.BoardMembership{},
		} {
			if err := tx.Where("board_id = ?", id).Delete(table).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&board).Error
	})
}
