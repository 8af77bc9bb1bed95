package repository

import (
	"context"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// SystemStats is the admin dashboard summary.
type SystemStats struct {
	Users       int64 `json:"users"`
	ActiveUsers int64 `json:"active_users"`
	Boards      int64 `json:"boards"`
	Tasks       int64 `json:"tasks"`
	OpenTickets int64 `json:"open_tickets"`
}

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Collect(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Board{}).Count(&stats.Boards).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Task{}).Count(&stats.Tasks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.SupportTicket{}).
		Where("status IN ?", []string{model.TicketOpen, model.TicketInProgress}).
		Count(&stats.OpenTickets).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
