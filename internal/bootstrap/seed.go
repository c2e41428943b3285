package bootstrap

import (
	"fmt"

	"anoa.com/userservice/internal/entity"
	"anoa.com/userservice/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultInterests is the catalog seeded into an empty interests table.
var DefaultInterests = []string{
	"Art",
	"Basketball",
	"Board Games",
	"Cooking",
	"Cycling",
	"Dancing",
	"Film",
	"Fitness",
	"Gaming",
	"Hiking",
	"Languages",
	"Music",
	"Photography",
	"Programming",
	"Reading",
	"Running",
	"Soccer",
	"Swimming",
	"Travel",
	"Volunteering",
	"Writing",
	"Yoga",
}

func Migrate(db *gorm.DB) error {
	logger.Info("running database migrations")

	err := db.AutoMigrate(
		&entity.User{},
		&entity.Interest{},
		&entity.UserInterest{},
		&entity.Schedule{},
		&entity.Friendship{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func SeedInterests(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Interest{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	interests := make([]entity.Interest, 0, len(DefaultInterests))
	for _, name := range DefaultInterests {
		interests = append(interests, entity.Interest{Name: name})
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&interests).Error; err != nil {
		return fmt.Errorf("failed to seed interests: %w", err)
	}

	logger.Info("seeded interest catalog", "count", len(interests))
	return nil
}
