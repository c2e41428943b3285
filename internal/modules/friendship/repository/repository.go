package repository

import (
	"context"
	"time"

	"anoa.com/userservice/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendshipWithUser is a friendship row joined with the profile of the
// participant on the other side from the caller.
type FriendshipWithUser struct {
	FriendshipID   int64     `gorm:"column:friendship_id"`
	UserID1        int64     `gorm:"column:user_id_1"`
	UserID2        int64     `gorm:"column:user_id_2"`
	RequestedBy    int64     `gorm:"column:requested_by"`
	Status         string    `gorm:"column:status"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	OtherUserID    int64     `gorm:"column:other_user_id"`
	FirstName      string    `gorm:"column:first_name"`
	LastName       string    `gorm:"column:last_name"`
	Username       string    `gorm:"column:username"`
	Email          string    `gorm:"column:email"`
	ProfilePicture *string   `gorm:"column:profile_picture"`
}

type FriendshipRepository interface {
	// WithTx runs fn inside one transaction; the repository passed to fn is
	// bound to it.
	WithTx(ctx context.Context, fn func(tx FriendshipRepository) error) error
	FindPair(ctx context.Context, userID1, userID2 int64) (*entity.Friendship, error)
	FindByID(ctx context.Context, id int64) (*entity.Friendship, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*entity.Friendship, error)
	Create(ctx context.Context, friendship *entity.Friendship) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	ListPendingIncoming(ctx context.Context, userID int64) ([]FriendshipWithUser, error)
	ListPendingOutgoing(ctx context.Context, userID int64) ([]FriendshipWithUser, error)
	ListFriends(ctx context.Context, userID int64) ([]FriendshipWithUser, error)
	// FindBetween returns the rows linking userID with any of otherIDs.
	FindBetween(ctx context.Context, userID int64, otherIDs []int64) ([]entity.Friendship, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) WithTx(ctx context.Context, fn func(tx FriendshipRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&friendshipRepository{db: tx})
	})
}

func (r *friendshipRepository) FindPair(ctx context.Context, userID1, userID2 int64) (*entity.Friendship, error) {
	lo, hi := entity.CanonicalPair(userID1, userID2)

	var f entity.Friendship
	if err := r.db.WithContext(ctx).
		Where("user_id_1 = ? AND user_id_2 = ?", lo, hi).
		First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendshipRepository) FindByID(ctx context.Context, id int64) (*entity.Friendship, error) {
	var f entity.Friendship
	if err := r.db.WithContext(ctx).Where("friendship_id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendshipRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Friendship, error) {
	var f entity.Friendship
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("friendship_id = ?", id).
		First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendshipRepository) Create(ctx context.Context, friendship *entity.Friendship) error {
	return r.db.WithContext(ctx).Create(friendship).Error
}

func (r *friendshipRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Friendship{}).
		Where("friendship_id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *friendshipRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("friendship_id = ?", id).Delete(&entity.Friendship{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

const withUserColumns = `f.friendship_id, f.user_id_1, f.user_id_2, f.requested_by, f.status, f.created_at,
	u.user_id AS other_user_id, u.first_name, u.last_name, u.username, u.email, u.profile_picture`

const joinOtherParticipant = "JOIN users u ON u.user_id = CASE WHEN f.user_id_1 = ? THEN f.user_id_2 ELSE f.user_id_1 END"

func (r *friendshipRepository) ListPendingIncoming(ctx context.Context, userID int64) ([]FriendshipWithUser, error) {
	var rows []FriendshipWithUser
	err := r.db.WithContext(ctx).
		Table("friendships AS f").
		Select(withUserColumns).
		Joins("JOIN users u ON u.user_id = f.requested_by").
		Where("f.status = ?", entity.FriendshipPending).
		Where("(f.user_id_1 = ? OR f.user_id_2 = ?) AND f.requested_by <> ?", userID, userID, userID).
		Order("f.created_at DESC, f.friendship_id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *friendshipRepository) ListPendingOutgoing(ctx context.Context, userID int64) ([]FriendshipWithUser, error) {
	var rows []FriendshipWithUser
	err := r.db.WithContext(ctx).
		Table("friendships AS f").
		Select(withUserColumns).
		Joins(joinOtherParticipant, userID).
		Where("f.status = ? AND f.requested_by = ?", entity.FriendshipPending, userID).
		Order("f.created_at DESC, f.friendship_id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *friendshipRepository) ListFriends(ctx context.Context, userID int64) ([]FriendshipWithUser, error) {
	var rows []FriendshipWithUser
	err := r.db.WithContext(ctx).
		Table("friendships AS f").
		Select(withUserColumns).
		Joins(joinOtherParticipant, userID).
		Where("f.status = ?", entity.FriendshipAccepted).
		Where("f.user_id_1 = ? OR f.user_id_2 = ?", userID, userID).
		Order("f.created_at DESC, f.friendship_id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *friendshipRepository) FindBetween(ctx context.Context, userID int64, otherIDs []int64) ([]entity.Friendship, error) {
	if len(otherIDs) == 0 {
		return nil, nil
	}

	var rows []entity.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_id_1 = ? AND user_id_2 IN ?) OR (user_id_2 = ? AND user_id_1 IN ?)", userID, otherIDs, userID, otherIDs).
		Find(&rows).Error
	return rows, err
}
