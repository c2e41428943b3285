package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/userservice/internal/access"
	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/identity"
	"anoa.com/userservice/internal/modules/admin/dto"
	"anoa.com/userservice/pkg/apperror"
	"gorm.io/gorm"
)

type UserStore interface {
	access.UserLookup
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*entity.User, error)
}

type RoleSyncer interface {
	Schedule(ctx context.Context, externalID, role string)
}

type AdminService interface {
	UpdateRole(ctx context.Context, externalID, assertedRole string, userID int64, role string) (*dto.RoleUpdateResponse, error)
}

type adminService struct {
	users    UserStore
	claims   identity.ClaimStore
	roleSync RoleSyncer
}

func NewAdminService(users UserStore, claims identity.ClaimStore, roleSync RoleSyncer) AdminService {
	return &adminService{users: users, claims: claims, roleSync: roleSync}
}

// UpdateRole stores the new role and schedules its propagation to the
// identity provider's custom claims.
func (s *adminService) UpdateRole(ctx context.Context, externalID, assertedRole string, userID int64, role string) (*dto.RoleUpdateResponse, error) {
	caller, err := s.users.FindByExternalID(ctx, externalID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		caller = nil
	}

	if access.ResolveRole(ctx, assertedRole, s.claims, caller) != entity.RoleAdmin {
		return nil, apperror.Forbidden("admin role required")
	}

	role = strings.TrimSpace(role)
	if !entity.ValidRole(role) {
		return nil, apperror.BadRequest("invalid role, must be one of: " + strings.Join(entity.Roles, ", "))
	}

	updated, err := s.users.Update(ctx, userID, map[string]interface{}{"role": role})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	s.roleSync.Schedule(ctx, updated.ExternalID, updated.Role)

	return &dto.RoleUpdateResponse{
		Status:      "updated",
		UserID:      updated.UserID,
		FirebaseUID: updated.ExternalID,
		Role:        updated.Role,
		ClaimSync:   "scheduled",
	}, nil
}
