package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/models"
)

func TestDashboardServiceStatsCachingAndInvalidation(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	svc := newTestServices(t)
	ctx := context.Background()
	dashboard := NewDashboardService(svc.store, client, time.Minute, zerolog.Nop()).(*dashboardService)
	dashboard.now = svc.clock.Now

	_, err = svc.activities.Log(ctx, 1, dto.LogActivityRequest{ActivityType: models.ActivityQuizPass})
	require.NoError(t, err)

	first, err := dashboard.Stats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 25, first.BasicStats.TotalXPPoints)
	require.True(t, server.Exists(dashboardCacheKey(1)))

	_, err = svc.activities.Log(ctx, 1, dto.LogActivityRequest{ActivityType: models.ActivityQuizPass})
	require.NoError(t, err)

	cached, err := dashboard.Stats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 25, cached.BasicStats.TotalXPPoints)

	dashboard.Invalidate(ctx, 1)
	require.False(t, server.Exists(dashboardCacheKey(1)))

	fresh, err := dashboard.Stats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 50, fresh.BasicStats.TotalXPPoints)
}

func TestDashboardServiceStatsForNewLearner(t *testing.T) {
	svc := newTestServices(t)

	stats, err := svc.dashboard.Stats(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, "Beginner", stats.BasicStats.SkillLevel)
	require.Equal(t, models.DefaultStudyMinutesGoal, stats.WeeklyProgress.StudyGoal)
	require.Equal(t, models.DefaultModulesGoal, stats.WeeklyProgress.ModulesGoal)
	require.NotNil(t, stats.Skills)
	require.NotNil(t, stats.RecentActivities)
	require.NotNil(t, stats.ActiveModules)
	require.Zero(t, stats.StreakInfo.StreakPercentage)
}

func TestDashboardServiceStatsAggregates(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	require.NoError(t, svc.activities.Initialize(ctx, 1))

	svc.clock.now = testNow.AddDate(0, 0, -1)
	_, err := svc.progress.UpdateModule(ctx, 1, 1, dto.ModuleProgressUpdateRequest{ProgressPercentage: 60, TimeSpentMinutes: 45})
	require.NoError(t, err)

	svc.clock.now = testNow
	_, err = svc.progress.UpdateModule(ctx, 1, 6, dto.ModuleProgressUpdateRequest{ProgressPercentage: 30, TimeSpentMinutes: 15})
	require.NoError(t, err)

	stats, err := svc.dashboard.Stats(ctx, 1)
	require.NoError(t, err)

	require.Equal(t, 1.0, stats.BasicStats.TotalStudyHours)
	require.Equal(t, 2, stats.BasicStats.CurrentStreak)
	require.Equal(t, 15, stats.TodayStats.StudyMinutes)
	require.Equal(t, 0.3, stats.TodayStats.StudyHours)
	require.Equal(t, 1, stats.TodayStats.ActivitiesCount)
	require.Equal(t, 60, stats.WeeklyProgress.StudyMinutes)
	require.Equal(t, 2, stats.WeeklyProgress.PracticeSessions)
	require.Len(t, stats.Skills, len(models.SkillCategories))
	require.Len(t, stats.RecentActivities, 2)
	require.Equal(t, uint(6), stats.ActiveModules[0].ModuleID)
	require.Len(t, stats.ActiveModules, 2)
	require.InDelta(t, 6.67, stats.StreakInfo.StreakPercentage, 0.01)

	quick, err := svc.dashboard.QuickStats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, stats.BasicStats.TotalXPPoints, quick.TotalXP)
	require.Equal(t, 15, quick.TodayStudyMinutes)
}

func TestDashboardServiceLiveFeed(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	svc.clock.now = testNow.Add(-2 * time.Hour)
	_, err := svc.progress.UpdateModule(ctx, 1, 1, dto.ModuleProgressUpdateRequest{ProgressPercentage: 10, TimeSpentMinutes: 5})
	require.NoError(t, err)

	svc.clock.now = testNow.Add(-30 * time.Second)
	_, err = svc.activities.Log(ctx, 1, dto.LogActivityRequest{ActivityType: "streak_milestone", Description: "3 day streak"})
	require.NoError(t, err)

	svc.clock.now = testNow
	feed, err := svc.dashboard.LiveFeed(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	require.Equal(t, "streak_milestone", feed[0].Type)
	require.Equal(t, "Just now", feed[0].TimeAgo)
	require.Nil(t, feed[0].ModuleName)

	require.Equal(t, models.ActivityPracticeSession, feed[1].Type)
	require.Equal(t, "2 hours ago", feed[1].TimeAgo)
	require.Equal(t, "ISL Alphabet & Fingerspelling", *feed[1].ModuleName)

	limited, err := svc.dashboard.LiveFeed(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestDashboardServiceWeeklyChart(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	for _, offset := range []int{-10, -2, 0} {
		svc.clock.now = testNow.AddDate(0, 0, offset)
		_, err := svc.activities.Log(ctx, 1, dto.LogActivityRequest{ActivityType: models.ActivityPracticeSession, DurationMinutes: 10})
		require.NoError(t, err)
	}
	_, err := svc.activities.Log(ctx, 1, dto.LogActivityRequest{ActivityType: models.ActivityModuleComplete})
	require.NoError(t, err)

	chart, err := svc.dashboard.WeeklyChart(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"Thu", "Fri", "Sat", "Sun", "Mon", "Tue", "Wed"}, chart.Labels)
	require.Equal(t, []int{0, 0, 0, 0, 10, 0, 10}, chart.StudyMinutes)
	require.Equal(t, []int{0, 0, 0, 0, 1, 0, 1}, chart.PracticeSessions)
	require.Equal(t, []int{0, 0, 0, 0, 0, 0, 1}, chart.ModulesCompleted)
	require.Equal(t, []int{0, 0, 0, 0, 17, 0, 67}, chart.XPEarned)
}

func TestDashboardServiceSkillProgress(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.store.Skills.AddXP(ctx, 1, "numbers", 250, testNow)
	require.NoError(t, err)

	skills, err := svc.dashboard.SkillProgress(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []dto.SkillProgress{{
		Category:           "numbers",
		Level:              3,
		XPPoints:           250,
		ProgressPercentage: 50,
		NextLevelXP:        50,
	}}, skills)
}
