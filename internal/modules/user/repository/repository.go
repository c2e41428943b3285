package repository

import (
	"context"
	"strings"

	"anoa.com/userservice/internal/entity"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, excludeID int64, limit int) ([]entity.User, error)
	FindByIDs(ctx context.Context, ids []int64) ([]entity.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := r.db.WithContext(ctx).Order("user_id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) (*entity.User, error) {
	result := r.db.WithContext(ctx).Model(&entity.User{}).Where("user_id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes the user with everything that references it.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entity.Schedule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entity.UserInterest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id_1 = ? OR user_id_2 = ?", id, id).Delete(&entity.Friendship{}).Error; err != nil {
			return err
		}

		result := tx.Where("user_id = ?", id).Delete(&entity.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Search matches first name, last name or username case-insensitively.
func (r *userRepository) Search(ctx context.Context, query string, excludeID int64, limit int) ([]entity.User, error) {
	pattern := "%" + escapeLike(query) + "%"

	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("user_id <> ?", excludeID).
		Where("first_name ILIKE ? OR last_name ILIKE ? OR username ILIKE ?", pattern, pattern, pattern).
		Order("first_name ASC, last_name ASC, user_id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindByIDs loads the given users ordered the way Search orders them. Unknown
// ids are skipped.
func (r *userRepository) FindByIDs(ctx context.Context, ids []int64) ([]entity.User, error) {
	if len(ids) == 0 {
		return []entity.User{}, nil
	}

	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("first_name ASC, last_name ASC, user_id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
