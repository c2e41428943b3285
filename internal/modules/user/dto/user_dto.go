package dto

import (
	"io"
	"time"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/pkg/datetime"
)

type CreateUserInput struct {
	FirstName      string  `json:"first_name" binding:"required,max=100"`
	LastName       string  `json:"last_name" binding:"required,max=100"`
	Username       string  `json:"username" binding:"required,min=3,max=50,username"`
	Email          string  `json:"email" binding:"required,email,max=255"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=2048"`
}

// SyncUserInput carries the profile the client read from the identity provider.
type SyncUserInput = CreateUserInput

type UpdateUserInput struct {
	FirstName      *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName       *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Username       *string `json:"username" binding:"omitempty,min=3,max=50,username"`
	Email          *string `json:"email" binding:"omitempty,email,max=255"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=2048"`
	Role           *string `json:"role" binding:"omitempty,oneof=user admin moderator"`
}

func (in UpdateUserInput) IsEmpty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Username == nil &&
		in.Email == nil && in.ProfilePicture == nil && in.Role == nil
}

type AvatarFile struct {
	Reader   io.Reader
	FileName string
}

type UserResponse struct {
	UserID         int64   `json:"user_id"`
	FirebaseUID    string  `json:"firebase_uid"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
	Role           string  `json:"role"`
	CreatedAt      string  `json:"created_at"`
}

func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		UserID:         u.UserID,
		FirebaseUID:    u.ExternalID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Role:           u.Role,
		CreatedAt:      formatTime(u.CreatedAt),
	}
}

func NewUserResponses(users []entity.User) []UserResponse {
	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, NewUserResponse(&users[i]))
	}
	return res
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return datetime.Format(t)
}
