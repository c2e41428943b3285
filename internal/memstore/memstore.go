// Package memstore is an in-memory implementation of the repositories, with
// the same not-found and duplicate-key errors gorm reports. It backs the
// service and router tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"anoa.com/userservice/internal/entity"
	friendshipRepo "anoa.com/userservice/internal/modules/friendship/repository"
	interestRepo "anoa.com/userservice/internal/modules/interest/repository"
	scheduleRepo "anoa.com/userservice/internal/modules/schedule/repository"
	userRepo "anoa.com/userservice/internal/modules/user/repository"
	"gorm.io/gorm"
)

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	now  func() time.Time

	users         map[int64]entity.User
	interests     map[int64]entity.Interest
	userInterests map[int64]map[int64]struct{}
	schedules     map[int64]entity.Schedule
	friendships   map[int64]entity.Friendship

	nextUserID       int64
	nextScheduleID   int64
	nextFriendshipID int64
	tick             int64
}

func New() *Store {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Store{
		users:         map[int64]entity.User{},
		interests:     map[int64]entity.Interest{},
		userInterests: map[int64]map[int64]struct{}{},
		schedules:     map[int64]entity.Schedule{},
		friendships:   map[int64]entity.Friendship{},
	}
	// Strictly increasing timestamps keep "newest first" orderings deterministic.
	s.now = func() time.Time {
		s.tick++
		return base.Add(time.Duration(s.tick) * time.Second)
	}
	return s
}

func (s *Store) Users() userRepo.UserRepository                   { return userStore{s} }
func (s *Store) Interests() interestRepo.InterestRepository       { return interestStore{s} }
func (s *Store) Schedules() scheduleRepo.ScheduleRepository       { return scheduleStore{s} }
func (s *Store) Friendships() friendshipRepo.FriendshipRepository { return friendshipStore{s: s} }

// SeedInterests loads catalog entries with fixed ids.
func (s *Store) SeedInterests(interests ...entity.Interest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range interests {
		s.interests[i.InterestID] = i
	}
}

// FriendshipRows returns a snapshot of every stored friendship ordered by id.
func (s *Store) FriendshipRows() []entity.Friendship {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]entity.Friendship, 0, len(s.friendships))
	for _, f := range s.friendships {
		rows = append(rows, f)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].FriendshipID < rows[j].FriendshipID })
	return rows
}

type userStore struct{ s *Store }

func (u userStore) Create(_ context.Context, user *entity.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ExternalID == user.ExternalID || existing.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}

	s.nextUserID++
	user.UserID = s.nextUserID
	if user.Role == "" {
		user.Role = entity.RoleUser
	}
	user.CreatedAt = s.now()
	s.users[user.UserID] = *user
	return nil
}

func (u userStore) FindByID(_ context.Context, id int64) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (u userStore) FindByExternalID(_ context.Context, externalID string) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if user.ExternalID == externalID {
			found := user
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (u userStore) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (u userStore) FindAll(_ context.Context) ([]entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	users := make([]entity.User, 0, len(u.s.users))
	for _, user := range u.s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (u userStore) Update(_ context.Context, id int64, fields map[string]interface{}) (*entity.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	for column, value := range fields {
		switch column {
		case "first_name":
			user.FirstName = value.(string)
		case "last_name":
			user.LastName = value.(string)
		case "username":
			name := value.(string)
			for otherID, other := range s.users {
				if otherID != id && other.Username == name {
					return nil, gorm.ErrDuplicatedKey
				}
			}
			user.Username = name
		case "email":
			user.Email = value.(string)
		case "role":
			user.Role = value.(string)
		case "profile_picture":
			if value == nil {
				user.ProfilePicture = nil
			} else {
				pic := value.(string)
				user.ProfilePicture = &pic
			}
		}
	}

	s.users[id] = user
	return &user, nil
}

func (u userStore) Delete(_ context.Context, id int64) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for sid, sched := range s.schedules {
		if sched.UserID == id {
			delete(s.schedules, sid)
		}
	}
	delete(s.userInterests, id)
	for fid, f := range s.friendships {
		if f.HasParticipant(id) {
			delete(s.friendships, fid)
		}
	}
	delete(s.users, id)
	return nil
}

func (u userStore) Search(_ context.Context, query string, excludeID int64, limit int) ([]entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	q := strings.ToLower(query)
	var matches []entity.User
	for _, user := range u.s.users {
		if user.UserID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(user.FirstName), q) ||
			strings.Contains(strings.ToLower(user.LastName), q) ||
			strings.Contains(strings.ToLower(user.Username), q) {
			matches = append(matches, user)
		}
	}

	sortByName(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (u userStore) FindByIDs(_ context.Context, ids []int64) ([]entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	found := make([]entity.User, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if user, ok := u.s.users[id]; ok && !seen[id] {
			seen[id] = true
			found = append(found, user)
		}
	}
	sortByName(found)
	return found, nil
}

func sortByName(users []entity.User) {
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.UserID < b.UserID
	})
}
