package repository

import (
	"context"

	"anoa.com/userservice/internal/entity"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	FindByUser(ctx context.Context, userID int64) ([]entity.Schedule, error)
	Create(ctx context.Context, schedule *entity.Schedule) error
	// DeleteOwned reports false when no schedule with that id belongs to userID.
	DeleteOwned(ctx context.Context, userID, scheduleID int64) (bool, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) FindByUser(ctx context.Context, userID int64) ([]entity.Schedule, error) {
	var schedules []entity.Schedule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time ASC, schedule_id ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepository) DeleteOwned(ctx context.Context, userID, scheduleID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ? AND user_id = ?", scheduleID, userID).
		Delete(&entity.Schedule{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
