package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/models"
)

// LiveSessionRepository stores dashboard study sessions.
type LiveSessionRepository interface {
	Create(ctx context.Context, session *models.LiveSession) error
	FindActive(ctx context.Context, id, userID uint) (models.LiveSession, error)
	Save(ctx context.Context, session *models.LiveSession) error
	ListActiveBefore(ctx context.Context, before time.Time) ([]models.LiveSession, error)
}

type liveSessionRepository struct {
	db *gorm.DB
}

// NewLiveSessionRepository constructs the live session repository.
func NewLiveSessionRepository(db *gorm.DB) LiveSessionRepository {
	return &liveSessionRepository{db: db}
}

func (r *liveSessionRepository) Create(ctx context.Context, session *models.LiveSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *liveSessionRepository) FindActive(ctx context.Context, id, userID uint) (models.LiveSession, error) {
	var session models.LiveSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		First(&session).Error
	if err != nil {
		return models.LiveSession{}, err
	}
	return session, nil
}

func (r *liveSessionRepository) Save(ctx context.Context, session *models.LiveSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *liveSessionRepository) ListActiveBefore(ctx context.Context, before time.Time) ([]models.LiveSession, error) {
	var sessions []models.LiveSession
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_time < ?", true, before).
		Order("start_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
