package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/userservice/internal/access"
	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/modules/friendship/dto"
	"anoa.com/userservice/internal/modules/friendship/repository"
	notification "anoa.com/userservice/internal/modules/notification/service"
	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/threading"
	"gorm.io/gorm"
)

// SearchLimit caps the number of candidates returned by Search.
const SearchLimit = 50

// UserStore is the part of the user directory the engine reads.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.User, error)
	Search(ctx context.Context, query string, excludeID int64, limit int) ([]entity.User, error)
	FindByIDs(ctx context.Context, ids []int64) ([]entity.User, error)
}

// UserSearcher answers candidate lookups from a search index.
type UserSearcher interface {
	SearchUserIDs(ctx context.Context, query string, excludeID int64, limit int) ([]int64, error)
}

type FriendshipService interface {
	SendRequest(ctx context.Context, externalID string, targetID int64) (*dto.FriendshipResponse, error)
	ListPendingIncoming(ctx context.Context, externalID string) ([]dto.FriendshipEntry, error)
	ListPendingOutgoing(ctx context.Context, externalID string) ([]dto.FriendshipEntry, error)
	ListFriends(ctx context.Context, externalID string) ([]dto.FriendshipEntry, error)
	Accept(ctx context.Context, externalID string, friendshipID int64) (*dto.FriendshipResponse, error)
	Reject(ctx context.Context, externalID string, friendshipID int64) error
	RemoveFriend(ctx context.Context, externalID string, friendshipID int64) error
	Search(ctx context.Context, externalID, query string) ([]dto.SearchResult, error)
}

type friendshipService struct {
	repo      repository.FriendshipRepository
	users     UserStore
	searcher  UserSearcher
	publisher notification.Publisher
	runner    *threading.Threading
}

// NewFriendshipService wires the engine. searcher and publisher may be nil.
func NewFriendshipService(
	repo repository.FriendshipRepository,
	users UserStore,
	searcher UserSearcher,
	publisher notification.Publisher,
	runner *threading.Threading,
) FriendshipService {
	return &friendshipService{
		repo:      repo,
		users:     users,
		searcher:  searcher,
		publisher: publisher,
		runner:    runner,
	}
}

var errPendingRequest = apperror.Conflict("friend request already pending")

func (s *friendshipService) SendRequest(ctx context.Context, externalID string, targetID int64) (*dto.FriendshipResponse, error) {
	caller, err := access.ResolveCaller(ctx, s.users, externalID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("target user not found")
		}
		return nil, err
	}

	if caller.UserID == targetID {
		return nil, apperror.BadRequest("cannot send a friend request to yourself")
	}

	friendship := entity.NewFriendRequest(caller.UserID, targetID)
	err = s.repo.WithTx(ctx, func(tx repository.FriendshipRepository) error {
		existing, err := tx.FindPair(ctx, caller.UserID, targetID)
		if err == nil {
			if existing.Status == entity.FriendshipAccepted {
				return apperror.Conflict("already friends")
			}
			return errPendingRequest
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(ctx, friendship)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errPendingRequest
		}
		return nil, err
	}

	s.publish(ctx, targetID, notification.NewEvent(notification.EventFriendRequestReceived, friendship.FriendshipID, caller.UserID))

	res := dto.NewFriendshipResponse(friendship)
	return &res, nil
}

func (s *friendshipService) ListPendingIncoming(ctx context.Context, externalID string) ([]dto.FriendshipEntry, error) {
	return s.list(ctx, externalID, s.repo.ListPendingIncoming)
}

func (s *friendshipService) ListPendingOutgoing(ctx context.Context, externalID string) ([]dto.FriendshipEntry, error) {
	return s.list(ctx, externalID, s.repo.ListPendingOutgoing)
}

func (s *friendshipService) ListFriends(ctx context.Context, externalID string) ([]dto.FriendshipEntry, error) {
	return s.list(ctx, externalID, s.repo.ListFriends)
}

func (s *friendshipService) list(
	ctx context.Context,
	externalID string,
	find func(ctx context.Context, userID int64) ([]repository.FriendshipWithUser, error),
) ([]dto.FriendshipEntry, error) {
	caller, err := access.ResolveCaller(ctx, s.users, externalID)
	if err != nil {
		return nil, err
	}

	rows, err := find(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return dto.NewFriendshipEntries(rows), nil
}

// Accept moves a pending request to accepted. Only the recipient may accept.
func (s *friendshipService) Accept(ctx context.Context, externalID string, friendshipID int64) (*dto.FriendshipResponse, error) {
	caller, err := access.ResolveCaller(ctx, s.users, externalID)
	if err != nil {
		return nil, err
	}

	var accepted entity.Friendship
	err = s.repo.WithTx(ctx, func(tx repository.FriendshipRepository) error {
		friendship, err := tx.FindByIDForUpdate(ctx, friendshipID)
		if err != nil {
			return notFound(err)
		}
		if !friendship.HasParticipant(caller.UserID) {
			return apperror.Forbidden("you are not part of this friendship")
		}
		if friendship.RequestedBy == caller.UserID {
			return apperror.Forbidden("only the recipient can accept a friend request")
		}
		if friendship.Status != entity.FriendshipPending {
			return apperror.Conflict(fmt.Sprintf("friend request already %s", friendship.Status))
		}

		if err := tx.UpdateStatus(ctx, friendship.FriendshipID, entity.FriendshipAccepted); err != nil {
			return err
		}
		friendship.Status = entity.FriendshipAccepted
		accepted = *friendship
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, accepted.RequestedBy, notification.NewEvent(notification.EventFriendRequestAccepted, accepted.FriendshipID, caller.UserID))

	res := dto.NewFriendshipResponse(&accepted)
	return &res, nil
}

func (s *friendshipService) Reject(ctx context.Context, externalID string, friendshipID int64) error {
	return s.delete(ctx, externalID, friendshipID, notification.EventFriendRequestRejected)
}

func (s *friendshipService) RemoveFriend(ctx context.Context, externalID string, friendshipID int64) error {
	return s.delete(ctx, externalID, friendshipID, notification.EventFriendshipRemoved)
}

// delete removes the row whatever its status once the caller is shown to be
// a participant.
func (s *friendshipService) delete(ctx context.Context, externalID string, friendshipID int64, eventType string) error {
	caller, err := access.ResolveCaller(ctx, s.users, externalID)
	if err != nil {
		return err
	}

	friendship, err := s.repo.FindByID(ctx, friendshipID)
	if err != nil {
		return notFound(err)
	}
	if !friendship.HasParticipant(caller.UserID) {
		return apperror.Forbidden("you are not part of this friendship")
	}

	if err := s.repo.Delete(ctx, friendshipID); err != nil {
		return notFound(err)
	}

	s.publish(ctx, friendship.OtherParticipant(caller.UserID), notification.NewEvent(eventType, friendshipID, caller.UserID))
	return nil
}

func (s *friendshipService) Search(ctx context.Context, externalID, query string) ([]dto.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.BadRequest("search query is required")
	}

	caller, err := access.ResolveCaller(ctx, s.users, externalID)
	if err != nil {
		return nil, err
	}

	users, err := s.findCandidates(ctx, query, caller.UserID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []dto.SearchResult{}, nil
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	rows, err := s.repo.FindBetween(ctx, caller.UserID, ids)
	if err != nil {
		return nil, err
	}

	byOther := make(map[int64]*entity.Friendship, len(rows))
	for i := range rows {
		byOther[rows[i].OtherParticipant(caller.UserID)] = &rows[i]
	}

	results := make([]dto.SearchResult, 0, len(users))
	for i := range users {
		results = append(results, dto.NewSearchResult(&users[i], byOther[users[i].UserID]))
	}
	return results, nil
}

// findCandidates asks the search index first and falls back to the store
// when the index is not configured, fails or has no hits.
func (s *friendshipService) findCandidates(ctx context.Context, query string, callerID int64) ([]entity.User, error) {
	if s.searcher != nil {
		ids, err := s.searcher.SearchUserIDs(ctx, query, callerID, SearchLimit)
		switch {
		case err != nil:
			logger.Warn("search index query failed, using database", "error", err)
		case len(ids) > 0:
			ids = dropID(ids, callerID)
			users, err := s.users.FindByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			if len(users) > 0 {
				if len(users) > SearchLimit {
					users = users[:SearchLimit]
				}
				return users, nil
			}
		}
	}
	return s.users.Search(ctx, query, callerID, SearchLimit)
}

func dropID(ids []int64, id int64) []int64 {
	kept := ids[:0:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}

func (s *friendshipService) publish(ctx context.Context, recipientID int64, event notification.Event) {
	if s.publisher == nil {
		return
	}
	err := s.runner.Go(ctx, "friend-event", func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, recipientID, event); err != nil {
			logger.Warn("failed to publish friend event", "type", event.Type, "recipient_id", recipientID, "error", err)
		}
	})
	if err != nil {
		logger.Warn("friend event not scheduled", "type", event.Type, "error", err)
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("friendship not found")
	}
	return err
}
