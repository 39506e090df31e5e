package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/models"
)

// WeeklyGoalRepository stores weekly goals and their counters.
type WeeklyGoalRepository interface {
	Ensure(ctx context.Context, userID uint, weekStart string) (models.WeeklyGoal, error)
	Find(ctx context.Context, userID uint, weekStart string) (models.WeeklyGoal, error)
	Save(ctx context.Context, goal *models.WeeklyGoal) error
}

type weeklyGoalRepository struct {
	db *gorm.DB
}

// NewWeeklyGoalRepository constructs the weekly goal repository.
func NewWeeklyGoalRepository(db *gorm.DB) WeeklyGoalRepository {
	return &weeklyGoalRepository{db: db}
}

func (r *weeklyGoalRepository) Ensure(ctx context.Context, userID uint, weekStart string) (models.WeeklyGoal, error) {
	var goal models.WeeklyGoal
	defaults := models.NewWeeklyGoal(userID, weekStart)
	err := r.db.WithContext(ctx).
		Where(models.WeeklyGoal{UserID: userID, WeekStart: weekStart}).
		Attrs(defaults).
		FirstOrCreate(&goal).Error
	return goal, err
}

func (r *weeklyGoalRepository) Find(ctx context.Context, userID uint, weekStart string) (models.WeeklyGoal, error) {
	var goal models.WeeklyGoal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&goal).Error
	if err != nil {
		return models.WeeklyGoal{}, err
	}
	return goal, nil
}

func (r *weeklyGoalRepository) Save(ctx context.Context, goal *models.WeeklyGoal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}
