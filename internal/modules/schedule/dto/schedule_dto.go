package dto

import (
	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/pkg/datetime"
)

// CreateScheduleInput takes ISO-8601 timestamps, see datetime.ParseISO.
type CreateScheduleInput struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Type      string `json:"type" binding:"required,max=50"`
	Title     string `json:"title" binding:"required,max=255"`
}

type ScheduleResponse struct {
	ScheduleID int64  `json:"schedule_id"`
	UserID     int64  `json:"user_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Type       string `json:"type"`
	Title      string `json:"title"`
}

func NewScheduleResponse(s *entity.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ScheduleID: s.ScheduleID,
		UserID:     s.UserID,
		StartTime:  datetime.Format(s.StartTime),
		EndTime:    datetime.Format(s.EndTime),
		Type:       s.Type,
		Title:      s.Title,
	}
}

func NewScheduleResponses(schedules []entity.Schedule) []ScheduleResponse {
	res := make([]ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		res = append(res, NewScheduleResponse(&schedules[i]))
	}
	return res
}
