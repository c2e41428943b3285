package repository

import (
	"context"

	"anoa.com/userservice/internal/entity"
	"gorm.io/gorm"
)

type InterestRepository interface {
	FindAll(ctx context.Context) ([]entity.Interest, error)
	FindByUser(ctx context.Context, userID int64) ([]entity.Interest, error)
	// FindExistingIDs returns the subset of ids present in the catalog.
	FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	// Replace swaps the user's whole interest set in one transaction.
	Replace(ctx context.Context, userID int64, interestIDs []int64) error
}

type interestRepository struct {
	db *gorm.DB
}

func NewInterestRepository(db *gorm.DB) InterestRepository {
	return &interestRepository{db: db}
}

func (r *interestRepository) FindAll(ctx context.Context) ([]entity.Interest, error) {
	var interests []entity.Interest
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&interests).Error; err != nil {
		return nil, err
	}
	return interests, nil
}

func (r *interestRepository) FindByUser(ctx context.Context, userID int64) ([]entity.Interest, error) {
	var interests []entity.Interest
	err := r.db.WithContext(ctx).
		Table("interests AS i").
		Select("i.interest_id, i.name").
		Joins("JOIN user_interests ui ON ui.interest_id = i.interest_id").
		Where("ui.user_id = ?", userID).
		Order("i.name ASC").
		Scan(&interests).Error
	if err != nil {
		return nil, err
	}
	return interests, nil
}

func (r *interestRepository) FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []int64
	err := r.db.WithContext(ctx).
		Model(&entity.Interest{}).
		Where("interest_id IN ?", ids).
		Pluck("interest_id", &found).Error
	return found, err
}

func (r *interestRepository) Replace(ctx context.Context, userID int64, interestIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.UserInterest{}).Error; err != nil {
			return err
		}
		if len(interestIDs) == 0 {
			return nil
		}

		rows := make([]entity.UserInterest, 0, len(interestIDs))
		for _, id := range interestIDs {
			rows = append(rows, entity.UserInterest{UserID: userID, InterestID: id})
		}
		return tx.Create(&rows).Error
	})
}
