package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/models"
)

// MaxSkillLevel caps SkillDevelopment.SkillLevel.
const MaxSkillLevel = 10

// SkillRepository stores per-category skill development.
type SkillRepository interface {
	Ensure(ctx context.Context, userID uint, categories []string) error
	List(ctx context.Context, userID uint) ([]models.SkillDevelopment, error)
	AddXP(ctx context.Context, userID uint, category string, xp int, at time.Time) (models.SkillDevelopment, error)
}

type skillRepository struct {
	db *gorm.DB
}

// NewSkillRepository constructs the skill repository.
func NewSkillRepository(db *gorm.DB) SkillRepository {
	return &skillRepository{db: db}
}

func (r *skillRepository) Ensure(ctx context.Context, userID uint, categories []string) error {
	for _, category := range categories {
		if _, err := r.ensureOne(ctx, userID, category); err != nil {
			return err
		}
	}
	return nil
}

func (r *skillRepository) ensureOne(ctx context.Context, userID uint, category string) (models.SkillDevelopment, error) {
	var skill models.SkillDevelopment
	err := r.db.WithContext(ctx).
		Where(models.SkillDevelopment{UserID: userID, SkillCategory: category}).
		Attrs(models.SkillDevelopment{SkillLevel: 1}).
		FirstOrCreate(&skill).Error
	return skill, err
}

func (r *skillRepository) List(ctx context.Context, userID uint) ([]models.SkillDevelopment, error) {
	var skills []models.SkillDevelopment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("skill_category ASC").
		Find(&skills).Error
	if err != nil {
		return nil, err
	}
	return skills, nil
}

// AddXP credits xp to a skill and recomputes its level as 1 + xp/100, capped
// at MaxSkillLevel.
func (r *skillRepository) AddXP(ctx context.Context, userID uint, category string, xp int, at time.Time) (models.SkillDevelopment, error) {
	skill, err := r.ensureOne(ctx, userID, category)
	if err != nil {
		return models.SkillDevelopment{}, err
	}

	skill.XPPoints += xp
	skill.SkillLevel = 1 + skill.XPPoints/100
	if skill.SkillLevel > MaxSkillLevel {
		skill.SkillLevel = MaxSkillLevel
	}
	skill.LastPracticeDate = &at

	if err := r.db.WithContext(ctx).Save(&skill).Error; err != nil {
		return models.SkillDevelopment{}, err
	}
	return skill, nil
}
