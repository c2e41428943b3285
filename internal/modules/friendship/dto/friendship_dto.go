package dto

import (
	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/internal/modules/friendship/repository"
	"anoa.com/userservice/pkg/datetime"
)

type SendRequestInput struct {
	ToUserID int64 `json:"to_user_id" binding:"required,gt=0"`
}

type FriendshipResponse struct {
	FriendshipID int64  `json:"friendship_id"`
	UserID1      int64  `json:"user_id_1"`
	UserID2      int64  `json:"user_id_2"`
	RequestedBy  int64  `json:"requested_by"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

func NewFriendshipResponse(f *entity.Friendship) FriendshipResponse {
	return FriendshipResponse{
		FriendshipID: f.FriendshipID,
		UserID1:      f.UserID1,
		UserID2:      f.UserID2,
		RequestedBy:  f.RequestedBy,
		Status:       f.Status,
		CreatedAt:    datetime.Format(f.CreatedAt),
	}
}

type UserSummary struct {
	UserID         int64   `json:"user_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
}

// FriendshipEntry is a friendship seen from one participant; User is the
// other side (the sender for incoming requests, the recipient for sent ones).
type FriendshipEntry struct {
	FriendshipID int64       `json:"friendship_id"`
	RequestedBy  int64       `json:"requested_by"`
	Status       string      `json:"status"`
	CreatedAt    string      `json:"created_at"`
	User         UserSummary `json:"user"`
}

func NewFriendshipEntries(rows []repository.FriendshipWithUser) []FriendshipEntry {
	entries := make([]FriendshipEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FriendshipEntry{
			FriendshipID: row.FriendshipID,
			RequestedBy:  row.RequestedBy,
			Status:       row.Status,
			CreatedAt:    datetime.Format(row.CreatedAt),
			User: UserSummary{
				UserID:         row.OtherUserID,
				FirstName:      row.FirstName,
				LastName:       row.LastName,
				Username:       row.Username,
				Email:          row.Email,
				ProfilePicture: row.ProfilePicture,
			},
		})
	}
	return entries
}

// SearchResult is a candidate user annotated with the caller's relationship
// to them. The friendship fields are null for strangers.
type SearchResult struct {
	UserSummary
	FriendshipStatus *string `json:"friendship_status"`
	FriendshipID     *int64  `json:"friendship_id"`
	RequestedBy      *int64  `json:"requested_by"`
}

func NewSearchResult(u *entity.User, f *entity.Friendship) SearchResult {
	res := SearchResult{
		UserSummary: UserSummary{
			UserID:         u.UserID,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Username:       u.Username,
			Email:          u.Email,
			ProfilePicture: u.ProfilePicture,
		},
	}
	if f != nil {
		status, id, requestedBy := f.Status, f.FriendshipID, f.RequestedBy
		res.FriendshipStatus = &status
		res.FriendshipID = &id
		res.RequestedBy = &requestedBy
	}
	return res
}
