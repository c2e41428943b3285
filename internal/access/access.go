// Package access resolves the calling identity to a stored user and answers
// the ownership and role questions the modules share.
package access

import (
	"context"
	"errors"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/identity"
	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/logger"
	"gorm.io/gorm"
)

// SystemCaller stands in for anonymous internal callers on optional-auth routes.
const SystemCaller = "system"

type UserLookup interface {
	FindByExternalID(ctx context.Context, externalID string) (*entity.User, error)
}

// ResolveCaller maps an external identity to its user row.
func ResolveCaller(ctx context.Context, users UserLookup, externalID string) (*entity.User, error) {
	user, err := users.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// RequireOwner succeeds only when externalID is the identity of userID.
func RequireOwner(ctx context.Context, users UserLookup, externalID string, userID int64) (*entity.User, error) {
	user, err := users.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Forbidden("you can only modify your own data")
		}
		return nil, err
	}
	if user.UserID != userID {
		return nil, apperror.Forbidden("you can only modify your own data")
	}
	return user, nil
}

// ResolveRole picks the caller's role from, in order: the role asserted by
// the gateway header or token claim, the identity provider's custom claims,
// and the stored row.
func ResolveRole(ctx context.Context, asserted string, claims identity.ClaimStore, caller *entity.User) string {
	if asserted != "" {
		return asserted
	}

	if claims != nil && caller != nil {
		role, err := claims.GetRole(ctx, caller.ExternalID)
		if err != nil {
			logger.Warn("failed to read role claim", "external_id", caller.ExternalID, "error", err)
		} else if role != "" {
			return role
		}
	}

	if caller != nil {
		return caller.Role
	}
	return entity.RoleUser
}
