package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/models"
)

func TestSessionServiceStartAndEnd(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	id, err := svc.sessions.Start(ctx, 1, dto.StartSessionRequest{ModuleID: uintPtr(3)})
	require.NoError(t, err)
	require.NotZero(t, id)

	svc.clock.Advance(25*time.Minute + 40*time.Second)

	summary, err := svc.sessions.End(ctx, 1, dto.EndSessionRequest{SessionID: id})
	require.NoError(t, err)
	require.Equal(t, 25, summary.DurationMinutes)
	require.Equal(t, DefaultSessionType, summary.SessionType)
	require.Equal(t, uint(3), *summary.ModuleID)
	require.Equal(t, 20, summary.XPEarned)

	counts := countActivities(t, svc, 1)
	require.Equal(t, 1, counts[models.ActivityModuleStart])
	require.Equal(t, 1, counts[models.ActivityPracticeSession])

	stats, err := svc.store.Stats.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 25, stats.TotalStudyMinutes)
	require.Equal(t, 25, stats.TotalXPPoints)
}

func TestSessionServiceWithoutModuleLogsPractice(t *testing.T) {
	svc := newTestServices(t)

	_, err := svc.sessions.Start(context.Background(), 1, dto.StartSessionRequest{SessionType: "Review"})
	require.NoError(t, err)

	entries, err := svc.store.Activities.ListRecent(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.ActivityPracticeSession, entries[0].ActivityType)
	require.Equal(t, "Started review session", entries[0].Description)
}

func TestSessionServiceEndRejectsUnknownSessions(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.sessions.End(ctx, 1, dto.EndSessionRequest{SessionID: 99})
	require.ErrorIs(t, err, ErrSessionNotFound)

	id, err := svc.sessions.Start(ctx, 1, dto.StartSessionRequest{})
	require.NoError(t, err)

	_, err = svc.sessions.End(ctx, 2, dto.EndSessionRequest{SessionID: id})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.sessions.End(ctx, 1, dto.EndSessionRequest{SessionID: id})
	require.NoError(t, err)

	_, err = svc.sessions.End(ctx, 1, dto.EndSessionRequest{SessionID: id})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.sessions.End(ctx, 1, dto.EndSessionRequest{})
	require.Error(t, err)
}

func TestSessionServiceSweepClosesOrphans(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	stale, err := svc.sessions.Start(ctx, 1, dto.StartSessionRequest{})
	require.NoError(t, err)
	svc.clock.Advance(3 * time.Hour)
	fresh, err := svc.sessions.Start(ctx, 2, dto.StartSessionRequest{})
	require.NoError(t, err)
	svc.clock.Advance(90 * time.Minute)

	closed, err := svc.sessions.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	_, err = svc.store.Sessions.FindActive(ctx, stale, 1)
	require.Error(t, err)
	_, err = svc.store.Sessions.FindActive(ctx, fresh, 2)
	require.NoError(t, err)

	require.Equal(t, 1, countActivities(t, svc, 1)[models.ActivityPracticeSession])
}
