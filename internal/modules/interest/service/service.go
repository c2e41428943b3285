package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"anoa.com/userservice/internal/access"
	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/modules/interest/dto"
	"anoa.com/userservice/internal/modules/interest/repository"
	"anoa.com/userservice/pkg/apperror"
	"gorm.io/gorm"
)

type UserStore interface {
	access.UserLookup
	FindByID(ctx context.Context, id int64) (*entity.User, error)
}

type InterestService interface {
	ListAll(ctx context.Context) ([]dto.InterestResponse, error)
	ListForUser(ctx context.Context, userID int64) ([]dto.InterestResponse, error)
	ReplaceForUser(ctx context.Context, externalID string, userID int64, interestIDs []int64) ([]dto.InterestResponse, error)
}

type interestService struct {
	repo  repository.InterestRepository
	users UserStore
}

func NewInterestService(repo repository.InterestRepository, users UserStore) InterestService {
	return &interestService{repo: repo, users: users}
}

func (s *interestService) ListAll(ctx context.Context) ([]dto.InterestResponse, error) {
	interests, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewInterestResponses(interests), nil
}

func (s *interestService) ListForUser(ctx context.Context, userID int64) ([]dto.InterestResponse, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	interests, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewInterestResponses(interests), nil
}

// ReplaceForUser swaps the user's whole interest set. Nothing changes unless
// every id exists in the catalog.
func (s *interestService) ReplaceForUser(ctx context.Context, externalID string, userID int64, interestIDs []int64) ([]dto.InterestResponse, error) {
	if _, err := access.RequireOwner(ctx, s.users, externalID, userID); err != nil {
		return nil, err
	}

	ids := dedupe(interestIDs)
	if len(ids) > 0 {
		found, err := s.repo.FindExistingIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if missing := difference(ids, found); len(missing) > 0 {
			return nil, apperror.BadRequest("unknown interest ids: " + joinIDs(missing))
		}
	}

	if err := s.repo.Replace(ctx, userID, ids); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, apperror.BadRequest("unknown interest ids")
		}
		return nil, err
	}

	interests, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewInterestResponses(interests), nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func difference(want, found []int64) []int64 {
	have := make(map[int64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []int64
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
