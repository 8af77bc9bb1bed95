package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/authz"
	"taskboard/internal/model"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// GetRole returns the stored role for the pair. The bool is false when no
// membership exists; absence is an expected outcome, not an error.
func (r *MembershipRepository) GetRole(ctx context.Context, userID, boardID uuid.UUID) (authz.Role, bool, error) {
	var membership model.BoardMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND board_id = ?", userID, boardID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return membership.Role, true, nil
}

// Add creates a membership row for the pair. The unique index on
// (user_id, board_id) makes concurrent duplicate adds fail in the database;
// the pre-check turns the common case into ErrAlreadyMember.
func (r *MembershipRepository) Add(ctx context.Context, userID, boardID uuid.UUID, role authz.Role) (*model.BoardMembership, error) {
	membership := &model.BoardMembership{
		UserID:  userID,
		BoardID: boardID,
		Role:    role,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.BoardMembership
		err := tx.Where("user_id = ? AND board_id = ?", userID, boardID).First(&existing).Error
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(membership).Error
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// ChangeRole updates a member's role. The creator's role is immutable and
// the last board admin cannot be demoted; both checks run in the same
// transaction as the write so two concurrent demotions cannot both pass.
func (r *MembershipRepository) ChangeRole(ctx context.Context, boardID, memberID uuid.UUID, newRole authz.Role) (*model.BoardMembership, error) {
	var membership model.BoardMembership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND board_id = ?", memberID, boardID).First(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}

		var board model.Board
		if err := tx.Select("created_by_id").Where("id = ?", boardID).First(&board).Error; err != nil {
			return err
		}
		if board.CreatedByID == memberID {
			return ErrCreatorProtected
		}

		if membership.Role == authz.RoleAdmin && newRole != authz.RoleAdmin {
			var admins int64
			if err := tx.Model(&model.BoardMembership{}).
				Where("board_id = ? AND role = ?", boardID, authz.RoleAdmin).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		membership.Role = newRole
		return tx.Save(&membership).Error
	})
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// Remove deletes a member from the board. The creator can never be removed
// by another member, and the last admin cannot leave.
func (r *MembershipRepository) Remove(ctx context.Context, boardID, memberID, requestedBy uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership model.BoardMembership
		if err := tx.Where("user_id = ? AND board_id = ?", memberID, boardID).First(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}

		var board model.Board
		if err := tx.Select("created_by_id").Where("id = ?", boardID).First(&board).Error; err != nil {
			return err
		}
		if board.CreatedByID == memberID && memberID != requestedBy {
			return ErrCreatorProtected
		}

		if membership.Role == authz.RoleAdmin {
			var admins int64
			if err := tx.Model(&model.BoardMembership{}).
				Where("board_id = ? AND role = ?", boardID, authz.RoleAdmin).
				Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		return tx.Delete(&membership).Error
	})
}

// TransferOwnership re-parents the board to newOwner and promotes their
// membership to ADMIN, atomically. The previous owner's membership is left
// untouched.
func (r *MembershipRepository) TransferOwnership(ctx context.Context, boardID, newOwnerID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board model.Board
		if err := tx.Where("id = ?", boardID).First(&board).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var membership model.BoardMembership
		err := tx.Where("user_id = ? AND board_id = ?", newOwnerID, boardID).First(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Board{}).Where("id = ?", boardID).
			Update("created_by_id", newOwnerID).Error; err != nil {
			return err
		}

		membership.Role = authz.RoleAdmin
		return tx.Save(&membership).Error
	})
}

// ListForBoard returns all memberships of a board with user details.
func (r *MembershipRepository) ListForBoard(ctx context.Context, boardID uuid.UUID) ([]model.BoardMembership, error) {
	var memberships []model.BoardMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("board_id = ?", boardID).
		Find(&memberships).Error
	return memberships, err
}

// CountAdmins returns the number of ADMIN memberships on a board.
func (r *MembershipRepository) CountAdmins(ctx context.Context, boardID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BoardMembership{}).
		Where("board_id = ? AND role = ?", boardID, authz.RoleAdmin).
		Count(&count).Error
	return count, err
}
