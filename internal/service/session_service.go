package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/models"
	"github.com/noah-isme/vedispeak/internal/observability"
	"github.com/noah-isme/vedispeak/internal/repository"
)

// DefaultSessionType labels sessions started without a type.
const DefaultSessionType = "study"

// ErrSessionNotFound is returned when ending a session that is unknown, owned
// by another learner or already closed.
var ErrSessionNotFound = errors.New("session not found")

// SessionService opens and closes live study sessions.
type SessionService interface {
	Start(ctx context.Context, userID uint, req dto.StartSessionRequest) (uint, error)
	End(ctx context.Context, userID uint, req dto.EndSessionRequest) (dto.SessionSummary, error)
	Sweep(ctx context.Context) (int, error)
	RunSweeper(ctx context.Context, interval time.Duration)
}

type sessionService struct {
	store      *repository.Store
	activities ActivityService
	validator  *validator.Validate
	maxAge     time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSessionService constructs the session service. Sessions left open for
// longer than maxAge are closed by Sweep.
func NewSessionService(store *repository.Store, activities ActivityService, validate *validator.Validate, maxAge time.Duration, logger zerolog.Logger) SessionService {
	if maxAge <= 0 {
		maxAge = 4 * time.Hour
	}
	return &sessionService{
		store:      store,
		activities: activities,
		validator:  validate,
		maxAge:     maxAge,
		logger:     logger.With().Str("component", "session_service").Logger(),
		now:        time.Now,
	}
}

func (s *sessionService) Start(ctx context.Context, userID uint, req dto.StartSessionRequest) (uint, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}

	sessionType := strings.ToLower(strings.TrimSpace(req.SessionType))
	if sessionType == "" {
		sessionType = DefaultSessionType
	}
	moduleID := req.ModuleID
	if moduleID != nil && *moduleID == 0 {
		moduleID = nil
	}

	session := models.LiveSession{
		UserID:      userID,
		SessionType: sessionType,
		ModuleID:    moduleID,
		StartTime:   s.now().UTC(),
		IsActive:    true,
	}
	if err := s.store.Sessions.Create(ctx, &session); err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to start session")
		return 0, fmt.Errorf("start session: %w", err)
	}

	activityType := models.ActivityPracticeSession
	if moduleID != nil {
		activityType = models.ActivityModuleStart
	}
	if _, err := s.activities.Log(ctx, userID, dto.LogActivityRequest{
		ActivityType: activityType,
		ModuleID:     moduleID,
		Description:  fmt.Sprintf("Started %s session", sessionType),
	}); err != nil {
		s.logger.Warn().Err(err).Uint("session_id", session.ID).Msg("failed to log session start")
	}

	s.logger.Info().Uint("user_id", userID).Uint("session_id", session.ID).Str("session_type", sessionType).Msg("session started")
	return session.ID, nil
}

// End closes the session, computes its duration from the stored start time
// and logs it as a practice session.
func (s *sessionService) End(ctx context.Context, userID uint, req dto.EndSessionRequest) (dto.SessionSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionSummary{}, err
	}

	session, err := s.store.Sessions.FindActive(ctx, req.SessionID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SessionSummary{}, ErrSessionNotFound
	}
	if err != nil {
		return dto.SessionSummary{}, fmt.Errorf("end session: %w", err)
	}

	now := s.now().UTC()
	duration := int(now.Sub(session.StartTime) / time.Minute)
	if duration < 0 {
		duration = 0
	}
	session.EndTime = &now
	session.DurationMinutes = duration
	session.IsActive = false
	if err := s.store.Sessions.Save(ctx, &session); err != nil {
		return dto.SessionSummary{}, fmt.Errorf("end session: %w", err)
	}

	if _, err := s.activities.Log(ctx, userID, dto.LogActivityRequest{
		ActivityType:    models.ActivityPracticeSession,
		ModuleID:        session.ModuleID,
		Description:     fmt.Sprintf("Completed %s session", session.SessionType),
		DurationMinutes: duration,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("session_id", session.ID).Msg("failed to log session completion")
	}

	s.logger.Info().Uint("user_id", userID).Uint("session_id", session.ID).Int("duration_minutes", duration).Msg("session ended")
	return dto.SessionSummary{
		DurationMinutes: duration,
		SessionType:     session.SessionType,
		ModuleID:        session.ModuleID,
		XPEarned:        XPFor(models.ActivityPracticeSession, duration),
	}, nil
}

// Sweep closes sessions open for longer than the configured maximum age
// without awarding XP.
func (s *sessionService) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	stale, err := s.store.Sessions.ListActiveBefore(ctx, now.Add(-s.maxAge))
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range stale {
		session := stale[i]
		session.EndTime = &now
		session.DurationMinutes = int(s.maxAge / time.Minute)
		session.IsActive = false
		if err := s.store.Sessions.Save(ctx, &session); err != nil {
			return closed, err
		}
		closed++
		s.logger.Warn().Uint("session_id", session.ID).Uint("user_id", session.UserID).Msg("closed orphaned session")
	}
	observability.SessionsSwept().Add(float64(closed))
	return closed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *sessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("session sweep failed")
			}
		}
	}
}
