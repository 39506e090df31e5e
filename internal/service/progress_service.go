package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/models"
	"github.com/noah-isme/vedispeak/internal/repository"
)

// ErrInvalidModule is returned for a zero module id.
var ErrInvalidModule = errors.New("module id is required")

// ProgressService records module progress and the activities it implies.
type ProgressService interface {
	UpdateModule(ctx context.Context, userID, moduleID uint, req dto.ModuleProgressUpdateRequest) (dto.ModuleProgressResponse, error)
}

type progressService struct {
	store      *repository.Store
	activities ActivityService
	validator  *validator.Validate
	publisher  Publisher
	cache      CacheInvalidator
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewProgressService constructs the progress service. publisher and cache may be nil.
func NewProgressService(store *repository.Store, activities ActivityService, validate *validator.Validate, publisher Publisher, cache CacheInvalidator, logger zerolog.Logger) ProgressService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if cache == nil {
		cache = nopInvalidator{}
	}
	return &progressService{
		store:      store,
		activities: activities,
		validator:  validate,
		publisher:  publisher,
		cache:      cache,
		logger:     logger.With().Str("component", "progress_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/vedispeak/internal/service/progress"),
		now:        time.Now,
	}
}

// UpdateModule sets the module's percentage, accumulates study minutes and
// keeps the best quiz score. Completion is sticky and logged once.
func (s *progressService) UpdateModule(ctx context.Context, userID, moduleID uint, req dto.ModuleProgressUpdateRequest) (dto.ModuleProgressResponse, error) {
	if moduleID == 0 {
		return dto.ModuleProgressResponse{}, ErrInvalidModule
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ModuleProgressResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "progress.update_module", trace.WithAttributes(
		attribute.Int64("progress.user_id", int64(userID)),
		attribute.Int64("progress.module_id", int64(moduleID)),
		attribute.Int("progress.percentage", req.ProgressPercentage),
	))
	defer span.End()

	now := s.now().UTC()
	var row models.ModuleProgress
	newlyCompleted := false

	err := s.store.Transaction(spanCtx, func(tx *repository.Store) error {
		existing, err := tx.Modules.Find(spanCtx, userID, moduleID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = models.ModuleProgress{
				UserID:     userID,
				ModuleID:   moduleID,
				ModuleName: models.ModuleName(moduleID),
			}
		case err != nil:
			return err
		}

		existing.ProgressPercentage = req.ProgressPercentage
		existing.TimeSpentMinutes += req.TimeSpentMinutes
		if req.QuizScore != nil && (existing.QuizScore == nil || *req.QuizScore > *existing.QuizScore) {
			score := *req.QuizScore
			existing.QuizScore = &score
		}
		if req.ProgressPercentage >= 100 && !existing.IsCompleted {
			existing.IsCompleted = true
			existing.CompletionDate = &now
			newlyCompleted = true
		}
		existing.LastAccessed = now

		if err := tx.Modules.Save(spanCtx, &existing); err != nil {
			return err
		}
		row = existing
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("user_id", userID).Uint("module_id", moduleID).Msg("failed to update module progress")
		return dto.ModuleProgressResponse{}, fmt.Errorf("update module %d: %w", moduleID, err)
	}

	s.logDerived(spanCtx, userID, row, req, newlyCompleted)

	response := newModuleProgressResponse(row)
	s.cache.Invalidate(spanCtx, userID)
	s.publisher.Publish(spanCtx, userID, dto.EventProgressUpdate, dto.ProgressEvent{
		ModuleID:           row.ModuleID,
		ProgressPercentage: row.ProgressPercentage,
		TimeSpentMinutes:   row.TimeSpentMinutes,
		QuizScore:          row.QuizScore,
		IsCompleted:        row.IsCompleted,
	})
	return response, nil
}

// logDerived logs completion, quiz and study activities. Failures are logged
// and do not fail the progress write.
func (s *progressService) logDerived(ctx context.Context, userID uint, row models.ModuleProgress, req dto.ModuleProgressUpdateRequest, newlyCompleted bool) {
	moduleID := row.ModuleID
	var derived []dto.LogActivityRequest

	if newlyCompleted {
		derived = append(derived, dto.LogActivityRequest{
			ActivityType: models.ActivityModuleComplete,
			ModuleID:     &moduleID,
			Description:  "Completed " + row.ModuleName,
		})
	}
	if req.QuizScore != nil && *req.QuizScore > 0 {
		activityType := models.ActivityQuizAttempt
		if *req.QuizScore >= PassingQuizScore {
			activityType = models.ActivityQuizPass
		}
		derived = append(derived, dto.LogActivityRequest{
			ActivityType: activityType,
			ModuleID:     &moduleID,
			Description:  fmt.Sprintf("Quiz score: %d%%", *req.QuizScore),
			Metadata:     map[string]interface{}{"score": *req.QuizScore},
		})
	}
	if req.TimeSpentMinutes > 0 {
		derived = append(derived, dto.LogActivityRequest{
			ActivityType:    models.ActivityPracticeSession,
			ModuleID:        &moduleID,
			Description:     "Studied " + row.ModuleName,
			DurationMinutes: req.TimeSpentMinutes,
		})
	}

	for _, activity := range derived {
		if _, err := s.activities.Log(ctx, userID, activity); err != nil {
			s.logger.Warn().Err(err).Str("activity_type", activity.ActivityType).Uint("module_id", moduleID).Msg("failed to log progress activity")
		}
	}
}

func newModuleProgressResponse(row models.ModuleProgress) dto.ModuleProgressResponse {
	return dto.ModuleProgressResponse{
		ModuleID:           row.ModuleID,
		ModuleName:         row.ModuleName,
		ProgressPercentage: row.ProgressPercentage,
		TimeSpentMinutes:   row.TimeSpentMinutes,
		QuizScore:          row.QuizScore,
		IsCompleted:        row.IsCompleted,
		CompletionDate:     row.CompletionDate,
		LastAccessed:       row.LastAccessed,
	}
}
