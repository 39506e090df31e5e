package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/models"
)

// UserStatsRepository stores per-learner running totals.
type UserStatsRepository interface {
	Ensure(ctx context.Context, userID uint, initialLevel string) (models.UserStats, error)
	Get(ctx context.Context, userID uint) (models.UserStats, error)
	Save(ctx context.Context, stats *models.UserStats) error
}

type userStatsRepository struct {
	db *gorm.DB
}

// NewUserStatsRepository constructs the user stats repository.
func NewUserStatsRepository(db *gorm.DB) UserStatsRepository {
	return &userStatsRepository{db: db}
}

func (r *userStatsRepository) Ensure(ctx context.Context, userID uint, initialLevel string) (models.UserStats, error) {
	var stats models.UserStats
	err := r.db.WithContext(ctx).
		Where(models.UserStats{UserID: userID}).
		Attrs(models.UserStats{SkillLevel: initialLevel}).
		FirstOrCreate(&stats).Error
	return stats, err
}

func (r *userStatsRepository) Get(ctx context.Context, userID uint) (models.UserStats, error) {
	var stats models.UserStats
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return models.UserStats{}, err
	}
	return stats, nil
}

func (r *userStatsRepository) Save(ctx context.Context, stats *models.UserStats) error {
	return r.db.WithContext(ctx).Save(stats).Error
}
