package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/models"
)

// Store groups the activity API repositories over one database handle.
type Store struct {
	db *gorm.DB

	Activities ActivityLogRepository
	Stats      UserStatsRepository
	Modules    ModuleProgressRepository
	Sessions   LiveSessionRepository
	Skills     SkillRepository
	Goals      WeeklyGoalRepository
}

// NewStore builds every repository on top of db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Activities: NewActivityLogRepository(db),
		Stats:      NewUserStatsRepository(db),
		Modules:    NewModuleProgressRepository(db),
		Sessions:   NewLiveSessionRepository(db),
		Skills:     NewSkillRepository(db),
		Goals:      NewWeeklyGoalRepository(db),
	}
}

// Migrate creates or updates the activity API tables.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(models.All()...)
}

// Transaction runs fn with a store bound to a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
