package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type TimeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// Start opens a timer for the user on the task. A user can only have one
// running timer; the check and the insert share a transaction.
func (r *TimeEntryRepository) Start(ctx context.Context, taskID, userID uuid.UUID) (*model.TimeEntry, error) {
	entry := &model.TimeEntry{
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var running int64
		if err := tx.Model(&model.TimeEntry{}).
			Where("user_id = ? AND ended_at IS NULL", userID).
			Count(&running).Error; err != nil {
			return err
		}
		if running > 0 {
			return ErrTimerRunning
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Stop closes the user's running timer on the task and records the duration.
func (r *TimeEntryRepository) Stop(ctx context.Context, taskID, userID uuid.UUID) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("task_id = ? AND user_id = ? AND ended_at IS NULL", taskID, userID).
			First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		entry.EndedAt = &now
		entry.Duration = int64(now.Sub(entry.StartedAt).Seconds())
		return tx.Save(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *TimeEntryRepository) Create(ctx context.Context, entry *model.TimeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *TimeEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *TimeEntryRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", taskID).
		Order("started_at desc").
		Find(&entries).Error
	return entries, err
}

func (r *TimeEntryRepository) GetByUserID(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]model.TimeEntry, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("started_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("started_at <= ?", *to)
	}
	var entries []model.TimeEntry
	err := q.Order("started_at desc").Find(&entries).Error
	return entries, err
}

func (r *TimeEntryRepository) Update(ctx context.Context, entry *model.TimeEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *TimeEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TimeEntry{}).Error
}
