package service

import (
	"context"

	"anoa.com/userservice/internal/access"
	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/modules/schedule/dto"
	"anoa.com/userservice/internal/modules/schedule/repository"
	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/datetime"
	"anoa.com/userservice/pkg/sanitize"
)

type ScheduleService interface {
	List(ctx context.Context, externalID string, userID int64) ([]dto.ScheduleResponse, error)
	Create(ctx context.Context, externalID string, userID int64, input dto.CreateScheduleInput) (*dto.ScheduleResponse, error)
	Delete(ctx context.Context, externalID string, userID, scheduleID int64) error
}

type scheduleService struct {
	repo  repository.ScheduleRepository
	users access.UserLookup
}

func NewScheduleService(repo repository.ScheduleRepository, users access.UserLookup) ScheduleService {
	return &scheduleService{repo: repo, users: users}
}

func (s *scheduleService) List(ctx context.Context, externalID string, userID int64) ([]dto.ScheduleResponse, error) {
	if _, err := access.RequireOwner(ctx, s.users, externalID, userID); err != nil {
		return nil, err
	}

	schedules, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewScheduleResponses(schedules), nil
}

func (s *scheduleService) Create(ctx context.Context, externalID string, userID int64, input dto.CreateScheduleInput) (*dto.ScheduleResponse, error) {
	if _, err := access.RequireOwner(ctx, s.users, externalID, userID); err != nil {
		return nil, err
	}

	start, err := datetime.ParseISO(input.StartTime)
	if err != nil {
		return nil, apperror.BadRequest("invalid start_time: " + err.Error())
	}
	end, err := datetime.ParseISO(input.EndTime)
	if err != nil {
		return nil, apperror.BadRequest("invalid end_time: " + err.Error())
	}

	schedule := &entity.Schedule{
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		Type:      sanitize.Text(input.Type),
		Title:     sanitize.Text(input.Title),
	}
	if schedule.Type == "" || schedule.Title == "" {
		return nil, apperror.BadRequest("type and title must contain text")
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}

	res := dto.NewScheduleResponse(schedule)
	return &res, nil
}

func (s *scheduleService) Delete(ctx context.Context, externalID string, userID, scheduleID int64) error {
	if _, err := access.RequireOwner(ctx, s.users, externalID, userID); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteOwned(ctx, userID, scheduleID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("schedule not found")
	}
	return nil
}
