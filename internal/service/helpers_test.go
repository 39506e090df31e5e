package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/repository"
)

// testNow is a Wednesday.
var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(at time.Time) *clock { return &clock{now: at} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type publishedEvent struct {
	UserID uint
	Event  string
	Data   json.RawMessage
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, userID uint, event string, payload interface{}) {
	data, _ := json.Marshal(payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Event: event, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.Event)
	}
	return names
}

type recordingInvalidator struct {
	mu    sync.Mutex
	users []uint
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

type testServices struct {
	store       *repository.Store
	clock       *clock
	publisher   *recordingPublisher
	invalidator *recordingInvalidator
	activities  *activityService
	progress    *progressService
	sessions    *sessionService
	dashboard   *dashboardService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	store := newTestStore(t)
	clk := newClock(testNow)
	publisher := &recordingPublisher{}
	invalidator := &recordingInvalidator{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	activities := NewActivityService(store, validate, publisher, invalidator, logger).(*activityService)
	activities.now = clk.Now
	progress := NewProgressService(store, activities, validate, publisher, invalidator, logger).(*progressService)
	progress.now = clk.Now
	sessions := NewSessionService(store, activities, validate, 4*time.Hour, logger).(*sessionService)
	sessions.now = clk.Now
	dashboard := NewDashboardService(store, nil, time.Minute, logger).(*dashboardService)
	dashboard.now = clk.Now

	return &testServices{
		store:       store,
		clock:       clk,
		publisher:   publisher,
		invalidator: invalidator,
		activities:  activities,
		progress:    progress,
		sessions:    sessions,
		dashboard:   dashboard,
	}
}

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }
