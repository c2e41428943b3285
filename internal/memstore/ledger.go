package memstore

import (
	"context"
	"sort"

	"anoa.com/userservice/internal/entity"
	"gorm.io/gorm"
)

type interestStore struct{ s *Store }

func (i interestStore) FindAll(_ context.Context) ([]entity.Interest, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	all := make([]entity.Interest, 0, len(i.s.interests))
	for _, interest := range i.s.interests {
		all = append(all, interest)
	}
	sortInterests(all)
	return all, nil
}

func (i interestStore) FindByUser(_ context.Context, userID int64) ([]entity.Interest, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	var result []entity.Interest
	for id := range i.s.userInterests[userID] {
		result = append(result, i.s.interests[id])
	}
	sortInterests(result)
	return result, nil
}

func (i interestStore) FindExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	var found []int64
	for _, id := range ids {
		if _, ok := i.s.interests[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (i interestStore) Replace(_ context.Context, userID int64, interestIDs []int64) error {
	s := i.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	set := make(map[int64]struct{}, len(interestIDs))
	for _, id := range interestIDs {
		if _, ok := s.interests[id]; !ok {
			return gorm.ErrForeignKeyViolated
		}
		if _, dup := set[id]; dup {
			return gorm.ErrDuplicatedKey
		}
		set[id] = struct{}{}
	}
	s.userInterests[userID] = set
	return nil
}

func sortInterests(interests []entity.Interest) {
	sort.Slice(interests, func(a, b int) bool { return interests[a].Name < interests[b].Name })
}

type scheduleStore struct{ s *Store }

func (c scheduleStore) FindByUser(_ context.Context, userID int64) ([]entity.Schedule, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var result []entity.Schedule
	for _, sched := range c.s.schedules {
		if sched.UserID == userID {
			result = append(result, sched)
		}
	}
	sort.Slice(result, func(a, b int) bool {
		if !result[a].StartTime.Equal(result[b].StartTime) {
			return result[a].StartTime.Before(result[b].StartTime)
		}
		return result[a].ScheduleID < result[b].ScheduleID
	})
	return result, nil
}

func (c scheduleStore) Create(_ context.Context, schedule *entity.Schedule) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[schedule.UserID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	s.nextScheduleID++
	schedule.ScheduleID = s.nextScheduleID
	s.schedules[schedule.ScheduleID] = *schedule
	return nil
}

func (c scheduleStore) DeleteOwned(_ context.Context, userID, scheduleID int64) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	sched, ok := c.s.schedules[scheduleID]
	if !ok || sched.UserID != userID {
		return false, nil
	}
	delete(c.s.schedules, scheduleID)
	return true, nil
}
