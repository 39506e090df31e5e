package activityapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/pkg/activityapi"
)

func newClient(t *testing.T, handler http.HandlerFunc) *activityapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := activityapi.New(activityapi.Config{BaseURL: server.URL, UserID: 7, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return client
}

func TestUpdateModuleProgressSendsPayloadAndHeaders(t *testing.T) {
	var received map[string]interface{}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/progress/module/3", r.URL.Path)
		require.Equal(t, "7", r.Header.Get("X-User-ID"))
		require.NotEmpty(t, r.Header.Get("X-Correlation-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"Progress updated","progress":{"module_id":3,"progress_percentage":60,"time_spent_minutes":12}}`))
	})

	score := 80
	progress, err := client.UpdateModuleProgress(context.Background(), 3, activityapi.ProgressUpdate{
		ProgressPercentage: 60,
		TimeSpentMinutes:   12,
		QuizScore:          &score,
	})
	require.NoError(t, err)
	require.Equal(t, 60, progress.ProgressPercentage)
	require.Equal(t, float64(60), received["progress_percentage"])
	require.Equal(t, float64(12), received["time_spent_minutes"])
	require.Equal(t, float64(80), received["quiz_score"])
}

func TestUpdateModuleProgressRejectsOutOfRange(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := client.UpdateModuleProgress(context.Background(), 1, activityapi.ProgressUpdate{ProgressPercentage: 140})
	require.Error(t, err)
	require.Zero(t, calls)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"Session ID is required"}`))
	})

	_, err := client.EndSession(context.Background(), 0)
	var apiErr *activityapi.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Session ID is required", apiErr.Message)
}

func TestLegacyErrorFieldIsReported(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to initialize tracking"}`))
	})

	err := client.Initialize(context.Background())
	var apiErr *activityapi.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "Failed to initialize tracking", apiErr.Message)
}

func TestNonSuccessStatusWith200IsAnError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"nope"}`))
	})

	_, err := client.QuickStats(context.Background())
	var apiErr *activityapi.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusOK, apiErr.StatusCode)
}

func TestStartSessionRequiresID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","session_id":0}`))
	})

	_, err := client.StartSession(context.Background(), activityapi.SessionStart{SessionType: "study"})
	require.ErrorIs(t, err, activityapi.ErrInvalidResponse)
}

func TestSessionRoundTrip(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/activity/start-session":
			_, _ = w.Write([]byte(`{"status":"success","session_id":41,"message":"Session started successfully"}`))
		case "/api/activity/end-session":
			var body map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, 41, body["session_id"])
			_, _ = w.Write([]byte(`{"status":"success","data":{"duration_minutes":25,"session_type":"study","module_id":null,"xp_earned":20}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	id, err := client.StartSession(context.Background(), activityapi.SessionStart{SessionType: "study"})
	require.NoError(t, err)
	require.Equal(t, 41, id)

	summary, err := client.EndSession(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 25, summary.DurationMinutes)
	require.Equal(t, 20, summary.XPEarned)
	require.Nil(t, summary.ModuleID)
}

func TestLiveFeedPassesLimit(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"status":"success","data":[{"type":"quiz_pass","description":"Quiz score: 90%","xp_earned":25,"time_ago":"Just now"}]}`))
	})

	items, err := client.LiveFeed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "quiz_pass", items[0].Type)
}

func TestDashboardStatsMissingSectionsDecodeToZero(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"basic_stats":{"total_xp_points":120}}}`))
	})

	stats, err := client.DashboardStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 120, stats.BasicStats.TotalXPPoints)
	require.Empty(t, stats.BasicStats.SkillLevel)
	require.Nil(t, stats.Skills)
	require.Nil(t, stats.StreakInfo)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := activityapi.New(activityapi.Config{})
	require.Error(t, err)
}
