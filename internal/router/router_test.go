package router_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/config"
	"github.com/noah-isme/vedispeak/internal/database"
	"github.com/noah-isme/vedispeak/internal/handler"
	"github.com/noah-isme/vedispeak/internal/middleware"
	"github.com/noah-isme/vedispeak/internal/repository"
	"github.com/noah-isme/vedispeak/internal/router"
	"github.com/noah-isme/vedispeak/internal/service"
	"github.com/noah-isme/vedispeak/pkg/activityapi"
	"github.com/noah-isme/vedispeak/pkg/realtime"
)

func startServer(t *testing.T) string {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.Connect("file:"+t.Name()+"?mode=memory&cache=shared", false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))

	validate := validator.New(validator.WithRequiredStructEnabled())
	dashboard := service.NewDashboardService(store, nil, time.Minute, logger)
	hub := service.NewRealtimeHub(nil, nil, "", logger)
	activities := service.NewActivityService(store, validate, hub, dashboard, logger)
	progress := service.NewProgressService(store, activities, validate, hub, dashboard, logger)
	sessions := service.NewSessionService(store, activities, validate, time.Hour, logger)
	realtimeService := service.NewRealtimeService(hub, dashboard, progress, logger)

	cfg := config.Config{AppName: "test", DefaultUserID: 1, RateLimit: 1000, RateLimitWindow: time.Minute}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler: handler.NewActivityHandler(activities, sessions, progress, dashboard, logger),
		ProgressHandler: handler.NewProgressHandler(progress, logger),
		RealtimeHandler: handler.NewRealtimeHandler(realtimeService, logger),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return ln.Addr().String()
}

func waitFor(t *testing.T, events <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case data := <-events:
		return data
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for realtime event")
		return nil
	}
}

func TestActivityAPIEndToEnd(t *testing.T) {
	addr := startServer(t)
	ctx := context.Background()

	client, err := activityapi.New(activityapi.Config{BaseURL: "http://" + addr, UserID: 7, Logger: zerolog.Nop()})
	require.NoError(t, err)

	require.NoError(t, client.Initialize(ctx))

	module := 2
	sessionID, err := client.StartSession(ctx, activityapi.SessionStart{ModuleID: &module})
	require.NoError(t, err)
	require.Positive(t, sessionID)

	progress, err := client.UpdateModuleProgress(ctx, 2, activityapi.ProgressUpdate{ProgressPercentage: 40, TimeSpentMinutes: 6})
	require.NoError(t, err)
	require.Equal(t, 40, progress.ProgressPercentage)
	require.Equal(t, "Numbers & Mathematical Concepts", progress.ModuleName)

	summary, err := client.EndSession(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, 15, summary.XPEarned)

	_, err = client.EndSession(ctx, sessionID)
	var apiErr *activityapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	stats, err := client.DashboardStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.ActiveModules, 1)
	require.Len(t, stats.Skills, 6)
	require.Equal(t, 5+16+15, stats.BasicStats.TotalXPPoints)

	feed, err := client.LiveFeed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	chart, err := client.WeeklyChart(ctx)
	require.NoError(t, err)
	require.Len(t, chart.Labels, 7)
}

func TestRealtimeEndToEnd(t *testing.T) {
	addr := startServer(t)
	ctx := context.Background()

	header := http.Header{}
	header.Set(middleware.UserIDHeader, "9")
	channel, err := realtime.Dial(ctx, realtime.Config{URL: "ws://" + addr + "/api/realtime/ws", Header: header, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer channel.Close()

	joined := make(chan json.RawMessage, 1)
	updates := make(chan json.RawMessage, 4)
	channel.On("learning_room_joined", func(data json.RawMessage) { joined <- data })
	channel.On("progress_update", func(data json.RawMessage) { updates <- data })

	require.NoError(t, channel.Emit("join_learning_room", map[string]int{"module_id": 3}))
	require.JSONEq(t, `{"room":"user_9"}`, string(waitFor(t, joined)))

	client, err := activityapi.New(activityapi.Config{BaseURL: "http://" + addr, UserID: 9, Logger: zerolog.Nop()})
	require.NoError(t, err)
	_, err = client.UpdateModuleProgress(ctx, 3, activityapi.ProgressUpdate{ProgressPercentage: 70})
	require.NoError(t, err)

	var update struct {
		ModuleID           int `json:"module_id"`
		ProgressPercentage int `json:"progress_percentage"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, updates), &update))
	require.Equal(t, 3, update.ModuleID)
	require.Equal(t, 70, update.ProgressPercentage)
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	addr := startServer(t)

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
