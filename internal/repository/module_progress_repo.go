package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/models"
)

// ModuleProgressRepository stores per-module learner progress.
type ModuleProgressRepository interface {
	Find(ctx context.Context, userID, moduleID uint) (models.ModuleProgress, error)
	Save(ctx context.Context, progress *models.ModuleProgress) error
	ListActive(ctx context.Context, userID uint, limit int) ([]models.ModuleProgress, error)
	Names(ctx context.Context, userID uint) (map[uint]string, error)
}

type moduleProgressRepository struct {
	db *gorm.DB
}

// NewModuleProgressRepository constructs the module progress repository.
func NewModuleProgressRepository(db *gorm.DB) ModuleProgressRepository {
	return &moduleProgressRepository{db: db}
}

func (r *moduleProgressRepository) Find(ctx context.Context, userID, moduleID uint) (models.ModuleProgress, error) {
	var progress models.ModuleProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error
	if err != nil {
		return models.ModuleProgress{}, err
	}
	return progress, nil
}

func (r *moduleProgressRepository) Save(ctx context.Context, progress *models.ModuleProgress) error {
	return r.db.WithContext(ctx).Save(progress).Error
}

// ListActive returns started but unfinished modules, most recently accessed first.
func (r *moduleProgressRepository) ListActive(ctx context.Context, userID uint, limit int) ([]models.ModuleProgress, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND progress_percentage > 0 AND progress_percentage < 100", userID).
		Order("last_accessed DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.ModuleProgress
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *moduleProgressRepository) Names(ctx context.Context, userID uint) (map[uint]string, error) {
	var rows []models.ModuleProgress
	err := r.db.WithContext(ctx).
		Select("module_id", "module_name").
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(rows))
	for _, row := range rows {
		names[row.ModuleID] = row.ModuleName
	}
	return names, nil
}
