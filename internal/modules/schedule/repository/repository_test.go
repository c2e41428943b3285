package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/pkg/database/dbtest"
)

func TestScheduleRepository_FindByUser(t *testing.T) {
	db, rec := dbtest.Open(t)

	_, _ = NewScheduleRepository(db).FindByUser(context.Background(), 3)

	dbtest.AssertContains(t, rec.Last(), `FROM "user_schedules"`, "WHERE user_id = 3", "ORDER BY start_time ASC, schedule_id ASC")
}

func TestScheduleRepository_Create(t *testing.T) {
	db, rec := dbtest.Open(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_ = NewScheduleRepository(db).Create(context.Background(), &entity.Schedule{
		UserID:    3,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Type:      "work",
		Title:     "Standup",
	})

	dbtest.AssertContains(t, rec.Last(), `INSERT INTO "user_schedules"`, "'Standup'", `RETURNING "schedule_id"`)
}

func TestScheduleRepository_DeleteOwned(t *testing.T) {
	db, rec := dbtest.Open(t)

	deleted, err := NewScheduleRepository(db).DeleteOwned(context.Background(), 3, 11)
	if err != nil {
		t.Fatalf("DeleteOwned: %v", err)
	}
	if deleted {
		t.Error("a dry run affects no rows, want deleted=false")
	}
	dbtest.AssertContains(t, rec.Last(), `DELETE FROM "user_schedules"`, "schedule_id = 11 AND user_id = 3")
}
