package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/userservice/internal/access"
	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/identity"
	search "anoa.com/userservice/internal/modules/search/service"
	"anoa.com/userservice/internal/modules/user/dto"
	"anoa.com/userservice/internal/modules/user/repository"
	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/sanitize"
	"anoa.com/userservice/pkg/storage"
	"anoa.com/userservice/pkg/threading"
	"gorm.io/gorm"
)

type UserService interface {
	Resolve(ctx context.Context, externalID string) (int64, error)
	SyncOnLogin(ctx context.Context, externalID string, input dto.SyncUserInput) (*dto.UserResponse, bool, error)
	Create(ctx context.Context, externalID string, input dto.CreateUserInput) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.UserResponse, error)
	GetByUsername(ctx context.Context, username string) (*dto.UserResponse, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
	Me(ctx context.Context, externalID string) (*dto.UserResponse, error)
	Update(ctx context.Context, externalID, assertedRole string, id int64, input dto.UpdateUserInput) (*dto.UserResponse, error)
	Delete(ctx context.Context, externalID string, id int64) error
	UploadAvatar(ctx context.Context, externalID string, avatar dto.AvatarFile) (*dto.UserResponse, error)
}

// RoleSyncer propagates a stored role to the identity provider.
type RoleSyncer interface {
	Schedule(ctx context.Context, externalID, role string)
}

type userService struct {
	repo         repository.UserRepository
	claims       identity.ClaimStore
	roleSync     RoleSyncer
	indexer      search.UserIndexer
	imageStorage storage.ImageStorage
	avatarFolder string
	runner       *threading.Threading
}

// NewUserService wires the directory. indexer and imageStorage may be nil when
// the corresponding backends are not configured.
func NewUserService(
	repo repository.UserRepository,
	claims identity.ClaimStore,
	roleSync RoleSyncer,
	indexer search.UserIndexer,
	imageStorage storage.ImageStorage,
	avatarFolder string,
	runner *threading.Threading,
) UserService {
	return &userService{
		repo:         repo,
		claims:       claims,
		roleSync:     roleSync,
		indexer:      indexer,
		imageStorage: imageStorage,
		avatarFolder: avatarFolder,
		runner:       runner,
	}
}

func (s *userService) Resolve(ctx context.Context, externalID string) (int64, error) {
	user, err := access.ResolveCaller(ctx, s.repo, externalID)
	if err != nil {
		return 0, err
	}
	return user.UserID, nil
}

func (s *userService) SyncOnLogin(ctx context.Context, externalID string, input dto.SyncUserInput) (*dto.UserResponse, bool, error) {
	existing, err := s.repo.FindByExternalID(ctx, externalID)
	if err == nil {
		res := dto.NewUserResponse(existing)
		return &res, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user := newUser(externalID, input)
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent sync for the same identity won; hand back its row.
			if winner, findErr := s.repo.FindByExternalID(ctx, externalID); findErr == nil {
				res := dto.NewUserResponse(winner)
				return &res, false, nil
			}
			return nil, false, apperror.Conflict("username already taken")
		}
		return nil, false, err
	}

	s.afterCreate(ctx, user)

	res := dto.NewUserResponse(user)
	return &res, true, nil
}

func (s *userService) Create(ctx context.Context, externalID string, input dto.CreateUserInput) (*dto.UserResponse, error) {
	if _, err := s.repo.FindByExternalID(ctx, externalID); err == nil {
		return nil, apperror.Conflict("user already exists for this identity")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := newUser(externalID, input)
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("user already exists or username already taken")
		}
		return nil, err
	}

	s.afterCreate(ctx, user)

	res := dto.NewUserResponse(user)
	return &res, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	res := dto.NewUserResponse(user)
	return &res, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	res := dto.NewUserResponse(user)
	return &res, nil
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponses(users), nil
}

func (s *userService) Me(ctx context.Context, externalID string) (*dto.UserResponse, error) {
	user, err := access.ResolveCaller(ctx, s.repo, externalID)
	if err != nil {
		return nil, err
	}
	res := dto.NewUserResponse(user)
	return &res, nil
}

func (s *userService) Update(ctx context.Context, externalID, assertedRole string, id int64, input dto.UpdateUserInput) (*dto.UserResponse, error) {
	caller, err := access.RequireOwner(ctx, s.repo, externalID, id)
	if err != nil {
		return nil, err
	}

	if input.IsEmpty() {
		return nil, apperror.BadRequest("no fields to update")
	}

	fields := map[string]interface{}{}
	if name := sanitize.TextPtr(input.FirstName); name != nil {
		if *name == "" {
			return nil, apperror.BadRequest("first_name must not be empty")
		}
		fields["first_name"] = *name
	}
	if name := sanitize.TextPtr(input.LastName); name != nil {
		if *name == "" {
			return nil, apperror.BadRequest("last_name must not be empty")
		}
		fields["last_name"] = *name
	}
	if input.Username != nil {
		fields["username"] = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		fields["email"] = strings.TrimSpace(*input.Email)
	}
	if input.ProfilePicture != nil {
		if pic := strings.TrimSpace(*input.ProfilePicture); pic != "" {
			fields["profile_picture"] = pic
		} else {
			fields["profile_picture"] = nil
		}
	}

	roleChanged := false
	if input.Role != nil && *input.Role != caller.Role {
		if access.ResolveRole(ctx, assertedRole, s.claims, caller) != entity.RoleAdmin {
			return nil, apperror.Forbidden("only administrators can change roles")
		}
		if !entity.ValidRole(*input.Role) {
			return nil, apperror.BadRequest("invalid role, must be one of: user, admin, moderator")
		}
		fields["role"] = *input.Role
		roleChanged = true
	}

	if len(fields) == 0 {
		res := dto.NewUserResponse(caller)
		return &res, nil
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("username already taken")
		}
		return nil, notFound(err)
	}

	if roleChanged {
		s.roleSync.Schedule(ctx, updated.ExternalID, updated.Role)
	}
	s.index(ctx, updated)

	res := dto.NewUserResponse(updated)
	return &res, nil
}

func (s *userService) Delete(ctx context.Context, externalID string, id int64) error {
	caller, err := access.RequireOwner(ctx, s.repo, externalID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err)
	}

	if s.indexer != nil {
		s.background(ctx, "search-delete", func(ctx context.Context) {
			if err := s.indexer.DeleteUser(ctx, id); err != nil {
				logger.Warn("failed to remove user from search index", "user_id", id, "error", err)
			}
		})
	}
	if caller.ProfilePicture != nil {
		s.deleteImage(ctx, *caller.ProfilePicture)
	}

	return nil
}

func (s *userService) UploadAvatar(ctx context.Context, externalID string, avatar dto.AvatarFile) (*dto.UserResponse, error) {
	if s.imageStorage == nil {
		return nil, apperror.Unavailable("image storage is not configured")
	}

	caller, err := access.ResolveCaller(ctx, s.repo, externalID)
	if err != nil {
		return nil, err
	}

	url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, s.avatarFolder, avatar.FileName)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, caller.UserID, map[string]interface{}{"profile_picture": url})
	if err != nil {
		s.deleteImage(ctx, url)
		return nil, err
	}

	if caller.ProfilePicture != nil && *caller.ProfilePicture != url {
		s.deleteImage(ctx, *caller.ProfilePicture)
	}
	s.index(ctx, updated)

	res := dto.NewUserResponse(updated)
	return &res, nil
}

func (s *userService) afterCreate(ctx context.Context, user *entity.User) {
	s.roleSync.Schedule(ctx, user.ExternalID, user.Role)
	s.index(ctx, user)
}

func (s *userService) index(ctx context.Context, user *entity.User) {
	if s.indexer == nil {
		return
	}
	snapshot := *user
	s.background(ctx, "search-index", func(ctx context.Context) {
		if err := s.indexer.IndexUser(ctx, &snapshot); err != nil {
			logger.Warn("failed to index user", "user_id", snapshot.UserID, "error", err)
		}
	})
}

func (s *userService) deleteImage(ctx context.Context, url string) {
	if s.imageStorage == nil || storage.PublicIDFromURL(url) == "" {
		return
	}
	s.background(ctx, "avatar-delete", func(ctx context.Context) {
		if err := s.imageStorage.DeleteImage(ctx, url); err != nil {
			logger.Warn("failed to delete old avatar", "url", url, "error", err)
		}
	})
}

func (s *userService) background(ctx context.Context, name string, run func(ctx context.Context)) {
	if err := s.runner.Go(ctx, name, run); err != nil {
		logger.Warn("background task not scheduled", "task", name, "error", err)
	}
}

func newUser(externalID string, input dto.CreateUserInput) *entity.User {
	user := &entity.User{
		ExternalID: externalID,
		FirstName:  sanitize.Text(input.FirstName),
		LastName:   sanitize.Text(input.LastName),
		Username:   strings.TrimSpace(input.Username),
		Email:      strings.TrimSpace(input.Email),
		Role:       entity.RoleUser,
	}
	if input.ProfilePicture != nil && strings.TrimSpace(*input.ProfilePicture) != "" {
		pic := strings.TrimSpace(*input.ProfilePicture)
		user.ProfilePicture = &pic
	}
	return user
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("user not found")
	}
	return err
}
