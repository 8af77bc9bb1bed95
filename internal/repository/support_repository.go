package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

type SupportRepository struct {
	db *gorm.DB
}

func NewSupportRepository(db *gorm.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) CreateTicket(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *SupportRepository) GetTicketByID(ctx context.Context, id uuid.UUID) (*model.SupportTicket, error) {
	var ticket model.SupportTicket
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Assignee").
		Where("id = ?", id).
		First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListTickets returns tickets newest first. With a zero userID all tickets
// are returned (admin view); otherwise only the user's own.
func (r *SupportRepository) ListTickets(ctx context.Context, userID uuid.UUID, status string) ([]model.SupportTicket, error) {
	q := r.db.WithContext(ctx).Preload("User").Preload("Assignee")
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tickets []model.SupportTicket
	err := q.Order("created_at desc").Find(&tickets).Error
	return tickets, err
}

func (r *SupportRepository) UpdateTicket(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *SupportRepository) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&model.SupportComment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.SupportTicket{}).Error
	})
}

func (r *SupportRepository) AddComment(ctx context.Context, comment *model.SupportComment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Author").
		Where("id = ?", comment.ID).First(comment).Error
}

func (r *SupportRepository) GetComments(ctx context.Context, ticketID uuid.UUID) ([]model.SupportComment, error) {
	var comments []model.SupportComment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("ticket_id = ?", ticketID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}
