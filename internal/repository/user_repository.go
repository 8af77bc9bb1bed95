package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	FindActiveByUsernames(ctx context.Context, usernames []string) ([]model.User, error)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindActiveByUsernames resolves mention tokens to active users.
func (r *UserRepository) FindActiveByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("username IN ? AND is_active = ?", usernames, true).
		Find(&users).Error
	return users, err
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&users).Error
	return users, err
}

// SetRole changes a user's global role. Demoting the last active global
// admin is rejected inside the transaction.
func (r *UserRepository) SetRole(ctx context.Context, id uuid.UUID, role string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if user.Role == model.GlobalRoleAdmin && role != model.GlobalRoleAdmin {
			var admins int64
			if err := tx.Model(&model.User{}).
				Where("role = ? AND is_active = ?", model.GlobalRoleAdmin, true).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastGlobalAdmin
			}
		}
		user.Role = role
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetActive toggles the active flag. Deactivating the last active global
// admin is rejected.
func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !active && user.Role == model.GlobalRoleAdmin && user.IsActive {
			var admins int64
			if err := tx.Model(&model.User{}).
				Where("role = ? AND is_active = ?", model.GlobalRoleAdmin, true).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastGlobalAdmin
			}
		}
		user.IsActive = active
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user and their memberships. The last active global admin
// cannot be deleted.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if user.Role == model.GlobalRoleAdmin && user.IsActive {
			var admins int64
			if err := tx.Model(&model.User{}).
				Where("role = ? AND is_active = ?", model.GlobalRoleAdmin, true).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastGlobalAdmin
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.BoardMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}
