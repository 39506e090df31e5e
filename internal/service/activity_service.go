package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/models"
	"github.com/noah-isme/vedispeak/internal/observability"
	"github.com/noah-isme/vedispeak/internal/repository"
)

// streakWindow bounds how far back activity is read to compute streaks.
const streakWindow = 60 * 24 * time.Hour

// ErrEmptyActivityType is returned when an activity type is blank after trimming.
var ErrEmptyActivityType = errors.New("activity type is required")

// ActivityService logs learner activity and keeps the derived statistics current.
type ActivityService interface {
	Initialize(ctx context.Context, userID uint) error
	Log(ctx context.Context, userID uint, req dto.LogActivityRequest) (dto.ActivityEvent, error)
}

type activityService struct {
	store     *repository.Store
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	publisher Publisher
	cache     CacheInvalidator
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewActivityService constructs the activity service. publisher and cache may be nil.
func NewActivityService(store *repository.Store, validate *validator.Validate, publisher Publisher, cache CacheInvalidator, logger zerolog.Logger) ActivityService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if cache == nil {
		cache = nopInvalidator{}
	}
	return &activityService{
		store:     store,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		publisher: publisher,
		cache:     cache,
		logger:    logger.With().Str("component", "activity_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/vedispeak/internal/service/activity"),
		now:       time.Now,
	}
}

// Initialize creates the learner's stats row, skill rows and this week's goal.
func (s *activityService) Initialize(ctx context.Context, userID uint) error {
	now := s.now().UTC()
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Stats.Ensure(ctx, userID, SkillLevels[0].Name); err != nil {
			return err
		}
		if err := tx.Skills.Ensure(ctx, userID, models.SkillCategories); err != nil {
			return err
		}
		_, err := tx.Goals.Ensure(ctx, userID, weekStart(now))
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to initialise learner tracking")
		return fmt.Errorf("initialize user %d: %w", userID, err)
	}
	return nil
}

func (s *activityService) Log(ctx context.Context, userID uint, req dto.LogActivityRequest) (dto.ActivityEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityEvent{}, err
	}

	activityType := strings.ToLower(strings.TrimSpace(req.ActivityType))
	if activityType == "" {
		return dto.ActivityEvent{}, ErrEmptyActivityType
	}
	moduleID := req.ModuleID
	if moduleID != nil && *moduleID == 0 {
		moduleID = nil
	}

	spanCtx, span := s.tracer.Start(ctx, "activity.log", trace.WithAttributes(
		attribute.Int64("activity.user_id", int64(userID)),
		attribute.String("activity.type", activityType),
	))
	defer span.End()

	entry := models.ActivityLog{
		UserID:          userID,
		ActivityType:    activityType,
		ModuleID:        moduleID,
		Description:     strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
		XPEarned:        XPFor(activityType, req.DurationMinutes),
		DurationMinutes: req.DurationMinutes,
		Metadata:        sanitizeMetadata(req.Metadata),
		CreatedAt:       s.now().UTC(),
	}

	err := s.store.Transaction(spanCtx, func(tx *repository.Store) error {
		return s.record(spanCtx, tx, &entry)
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("user_id", userID).Str("activity_type", activityType).Msg("failed to log activity")
		return dto.ActivityEvent{}, fmt.Errorf("log activity: %w", err)
	}

	observability.ActivityXP().WithLabelValues(activityType).Add(float64(entry.XPEarned))

	event := dto.ActivityEvent{
		ActivityID:   entry.ID,
		ActivityType: entry.ActivityType,
		ModuleID:     entry.ModuleID,
		Description:  entry.Description,
		XPEarned:     entry.XPEarned,
	}
	s.cache.Invalidate(spanCtx, userID)
	s.publisher.Publish(spanCtx, userID, dto.EventActivityUpdate, event)

	s.logger.Debug().
		Uint("user_id", userID).
		Str("activity_type", activityType).
		Int("xp", entry.XPEarned).
		Msg("activity logged")
	return event, nil
}

// record persists entry and applies its effects on stats, streaks, weekly
// goals and skill development.
func (s *activityService) record(ctx context.Context, tx *repository.Store, entry *models.ActivityLog) error {
	if err := tx.Activities.Create(ctx, entry); err != nil {
		return err
	}

	stats, err := tx.Stats.Ensure(ctx, entry.UserID, SkillLevels[0].Name)
	if err != nil {
		return err
	}
	day := dayStart(entry.CreatedAt)
	stats.TotalStudyMinutes += entry.DurationMinutes
	stats.TotalXPPoints += entry.XPEarned
	if entry.ActivityType == models.ActivityModuleComplete {
		stats.ModulesCompleted++
	}
	stats.LastActivityDate = &day
	stats.SkillLevel = SkillLevelForXP(stats.TotalXPPoints)

	recent, err := tx.Activities.ListSince(ctx, entry.UserID, entry.CreatedAt.Add(-streakWindow))
	if err != nil {
		return err
	}
	times := make([]time.Time, 0, len(recent))
	for _, activity := range recent {
		times = append(times, activity.CreatedAt)
	}
	current, longest := streaks(times, entry.CreatedAt)
	stats.CurrentStreakDays = current
	if longest > stats.LongestStreakDays {
		stats.LongestStreakDays = longest
	}
	if err := tx.Stats.Save(ctx, &stats); err != nil {
		return err
	}

	goal, err := tx.Goals.Ensure(ctx, entry.UserID, weekStart(entry.CreatedAt))
	if err != nil {
		return err
	}
	goal.CurrentStudyMinutes += entry.DurationMinutes
	switch entry.ActivityType {
	case models.ActivityModuleComplete:
		goal.CurrentModules++
	case models.ActivityPracticeSession:
		goal.CurrentPracticeSessions++
	}
	if err := tx.Goals.Save(ctx, &goal); err != nil {
		return err
	}

	if entry.ModuleID != nil {
		if _, err := tx.Skills.AddXP(ctx, entry.UserID, models.ModuleSkill(*entry.ModuleID), entry.XPEarned, entry.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}
