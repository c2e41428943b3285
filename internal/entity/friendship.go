package entity

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is one row per unordered pair of users. UserID1 is always the
// smaller id; RequestedBy records which side sent the request.
type Friendship struct {
	FriendshipID int64     `gorm:"column:friendship_id;primaryKey;autoIncrement" json:"friendship_id"`
	UserID1      int64     `gorm:"column:user_id_1;not null;uniqueIndex:idx_friendships_pair;check:chk_friendships_order,user_id_1 < user_id_2" json:"user_id_1"`
	UserID2      int64     `gorm:"column:user_id_2;not null;uniqueIndex:idx_friendships_pair;index" json:"user_id_2"`
	RequestedBy  int64     `gorm:"column:requested_by;not null;check:chk_friendships_requester,requested_by IN (user_id_1, user_id_2)" json:"requested_by"`
	Status       string    `gorm:"size:20;not null;default:pending;index;check:chk_friendships_status,status IN ('pending','accepted')" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	User1        *User     `gorm:"foreignKey:UserID1;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	User2        *User     `gorm:"foreignKey:UserID2;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Friendship) TableName() string { return "friendships" }

// CanonicalPair orders two user ids the way they are stored.
func CanonicalPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// NewFriendRequest builds the pending row for initiator asking target.
func NewFriendRequest(initiator, target int64) *Friendship {
	lo, hi := CanonicalPair(initiator, target)
	return &Friendship{
		UserID1:     lo,
		UserID2:     hi,
		RequestedBy: initiator,
		Status:      FriendshipPending,
	}
}

func (f *Friendship) HasParticipant(userID int64) bool {
	return f.UserID1 == userID || f.UserID2 == userID
}

// OtherParticipant returns the side of the pair that is not userID.
func (f *Friendship) OtherParticipant(userID int64) int64 {
	if f.UserID1 == userID {
		return f.UserID2
	}
	return f.UserID1
}
