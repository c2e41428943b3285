package memstore

import (
	"context"
	"sort"

	"anoa.com/userservice/internal/entity"
	friendshipRepo "anoa.com/userservice/internal/modules/friendship/repository"
	"gorm.io/gorm"
)

type friendshipStore struct {
	s    *Store
	inTx bool
}

// WithTx serializes transactions, which stands in for row locks. Writes are
// not rolled back on error; the engine only fails before its single write.
func (f friendshipStore) WithTx(_ context.Context, fn func(tx friendshipRepo.FriendshipRepository) error) error {
	if f.inTx {
		return fn(f)
	}
	f.s.txMu.Lock()
	defer f.s.txMu.Unlock()
	return fn(friendshipStore{s: f.s, inTx: true})
}

func (f friendshipStore) FindPair(_ context.Context, userID1, userID2 int64) (*entity.Friendship, error) {
	lo, hi := entity.CanonicalPair(userID1, userID2)
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, row := range f.s.friendships {
		if row.UserID1 == lo && row.UserID2 == hi {
			found := row
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f friendshipStore) FindByID(_ context.Context, id int64) (*entity.Friendship, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.friendships[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (f friendshipStore) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Friendship, error) {
	return f.FindByID(ctx, id)
}

func (f friendshipStore) Create(_ context.Context, friendship *entity.Friendship) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if friendship.UserID1 >= friendship.UserID2 {
		return gorm.ErrCheckConstraintViolated
	}
	if friendship.RequestedBy != friendship.UserID1 && friendship.RequestedBy != friendship.UserID2 {
		return gorm.ErrCheckConstraintViolated
	}
	if _, ok := s.users[friendship.UserID1]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := s.users[friendship.UserID2]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	for _, row := range s.friendships {
		if row.UserID1 == friendship.UserID1 && row.UserID2 == friendship.UserID2 {
			return gorm.ErrDuplicatedKey
		}
	}

	s.nextFriendshipID++
	friendship.FriendshipID = s.nextFriendshipID
	if friendship.Status == "" {
		friendship.Status = entity.FriendshipPending
	}
	friendship.CreatedAt = s.now()
	s.friendships[friendship.FriendshipID] = *friendship
	return nil
}

func (f friendshipStore) UpdateStatus(_ context.Context, id int64, status string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	row, ok := f.s.friendships[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Status = status
	f.s.friendships[id] = row
	return nil
}

func (f friendshipStore) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.friendships[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.s.friendships, id)
	return nil
}

func (f friendshipStore) ListPendingIncoming(_ context.Context, userID int64) ([]friendshipRepo.FriendshipWithUser, error) {
	return f.list(userID, func(row entity.Friendship) bool {
		return row.Status == entity.FriendshipPending && row.HasParticipant(userID) && row.RequestedBy != userID
	}), nil
}

func (f friendshipStore) ListPendingOutgoing(_ context.Context, userID int64) ([]friendshipRepo.FriendshipWithUser, error) {
	return f.list(userID, func(row entity.Friendship) bool {
		return row.Status == entity.FriendshipPending && row.RequestedBy == userID
	}), nil
}

func (f friendshipStore) ListFriends(_ context.Context, userID int64) ([]friendshipRepo.FriendshipWithUser, error) {
	return f.list(userID, func(row entity.Friendship) bool {
		return row.Status == entity.FriendshipAccepted && row.HasParticipant(userID)
	}), nil
}

func (f friendshipStore) FindBetween(_ context.Context, userID int64, otherIDs []int64) ([]entity.Friendship, error) {
	wanted := make(map[int64]struct{}, len(otherIDs))
	for _, id := range otherIDs {
		wanted[id] = struct{}{}
	}

	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var rows []entity.Friendship
	for _, row := range f.s.friendships {
		if !row.HasParticipant(userID) {
			continue
		}
		if _, ok := wanted[row.OtherParticipant(userID)]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// list joins matching rows with the profile of the participant other than
// userID, newest first.
func (f friendshipStore) list(userID int64, match func(entity.Friendship) bool) []friendshipRepo.FriendshipWithUser {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var rows []friendshipRepo.FriendshipWithUser
	for _, row := range f.s.friendships {
		if !match(row) {
			continue
		}
		other := f.s.users[row.OtherParticipant(userID)]
		rows = append(rows, friendshipRepo.FriendshipWithUser{
			FriendshipID:   row.FriendshipID,
			UserID1:        row.UserID1,
			UserID2:        row.UserID2,
			RequestedBy:    row.RequestedBy,
			Status:         row.Status,
			CreatedAt:      row.CreatedAt,
			OtherUserID:    other.UserID,
			FirstName:      other.FirstName,
			LastName:       other.LastName,
			Username:       other.Username,
			Email:          other.Email,
			ProfilePicture: other.ProfilePicture,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].FriendshipID > rows[j].FriendshipID
	})
	return rows
}
