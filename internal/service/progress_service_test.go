package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/models"
)

func countActivities(t *testing.T, svc *testServices, userID uint) map[string]int {
	t.Helper()
	entries, err := svc.store.Activities.ListRecent(context.Background(), userID, 100)
	require.NoError(t, err)
	counts := make(map[string]int)
	for _, entry := range entries {
		counts[entry.ActivityType]++
	}
	return counts
}

func TestProgressServiceLogsCompletionOnce(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	first, err := svc.progress.UpdateModule(ctx, 1, 2, dto.ModuleProgressUpdateRequest{ProgressPercentage: 50, TimeSpentMinutes: 10})
	require.NoError(t, err)
	require.Equal(t, "Numbers & Mathematical Concepts", first.ModuleName)
	require.False(t, first.IsCompleted)
	require.Equal(t, 10, first.TimeSpentMinutes)

	done, err := svc.progress.UpdateModule(ctx, 1, 2, dto.ModuleProgressUpdateRequest{ProgressPercentage: 100, TimeSpentMinutes: 5, QuizScore: intPtr(80)})
	require.NoError(t, err)
	require.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletionDate)
	require.Equal(t, 15, done.TimeSpentMinutes)
	require.Equal(t, 80, *done.QuizScore)

	again, err := svc.progress.UpdateModule(ctx, 1, 2, dto.ModuleProgressUpdateRequest{ProgressPercentage: 100, QuizScore: intPtr(60)})
	require.NoError(t, err)
	require.True(t, again.IsCompleted)
	require.Equal(t, 80, *again.QuizScore)

	counts := countActivities(t, svc, 1)
	require.Equal(t, 1, counts[models.ActivityModuleComplete])
	require.Equal(t, 1, counts[models.ActivityQuizPass])
	require.Equal(t, 1, counts[models.ActivityQuizAttempt])
	require.Equal(t, 2, counts[models.ActivityPracticeSession])

	stats, err := svc.store.Stats.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, stats.ModulesCompleted)
	require.Equal(t, 15, stats.TotalStudyMinutes)
}

func TestProgressServiceCompletionIsSticky(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.progress.UpdateModule(ctx, 1, 3, dto.ModuleProgressUpdateRequest{ProgressPercentage: 100})
	require.NoError(t, err)

	lowered, err := svc.progress.UpdateModule(ctx, 1, 3, dto.ModuleProgressUpdateRequest{ProgressPercentage: 40})
	require.NoError(t, err)
	require.Equal(t, 40, lowered.ProgressPercentage)
	require.True(t, lowered.IsCompleted)

	_, err = svc.progress.UpdateModule(ctx, 1, 3, dto.ModuleProgressUpdateRequest{ProgressPercentage: 100})
	require.NoError(t, err)
	require.Equal(t, 1, countActivities(t, svc, 1)[models.ActivityModuleComplete])
}

func TestProgressServicePublishesProgressUpdate(t *testing.T) {
	svc := newTestServices(t)

	_, err := svc.progress.UpdateModule(context.Background(), 4, 1, dto.ModuleProgressUpdateRequest{ProgressPercentage: 25})
	require.NoError(t, err)

	require.Equal(t, []string{dto.EventProgressUpdate}, svc.publisher.names())
	require.JSONEq(t,
		`{"module_id":1,"progress_percentage":25,"time_spent_minutes":0,"quiz_score":null,"is_completed":false}`,
		string(svc.publisher.events[0].Data))
	require.Contains(t, svc.invalidator.users, uint(4))
}

func TestProgressServiceValidation(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.progress.UpdateModule(ctx, 1, 0, dto.ModuleProgressUpdateRequest{ProgressPercentage: 10})
	require.ErrorIs(t, err, ErrInvalidModule)

	var validationErrs validator.ValidationErrors
	_, err = svc.progress.UpdateModule(ctx, 1, 1, dto.ModuleProgressUpdateRequest{ProgressPercentage: 150})
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.progress.UpdateModule(ctx, 1, 1, dto.ModuleProgressUpdateRequest{ProgressPercentage: 10, QuizScore: intPtr(101)})
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.store.Modules.Find(ctx, 1, 1)
	require.Error(t, err)
}
