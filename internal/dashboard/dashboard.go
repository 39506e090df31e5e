// Package dashboard drives the learner dashboard: statistics rendering, the
// periodic reload and the live study session lifecycle.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/schedule"
	"github.com/noah-isme/vedispeak/internal/view"
	"github.com/noah-isme/vedispeak/pkg/activityapi"
	"github.com/noah-isme/vedispeak/pkg/realtime"
)

const (
	DefaultPollInterval   = 30 * time.Second
	DefaultRefreshDelay   = time.Second
	DefaultUnloadTimeout  = 2 * time.Second
	DefaultFeedLimit      = 10
	SummaryToastDuration  = 5 * time.Second
	sessionTickInterval   = time.Second
	elementSessionTimer   = "session-timer"
	defaultPracticeType   = "practice"
	summaryMessagePattern = "Session completed! %d minutes, +%d XP"
)

// ErrSessionAlreadyActive is returned by StartSession unless the dashboard is idle.
var ErrSessionAlreadyActive = errors.New("study session already active")

// ErrUnloaded is returned by StartSession when the page unloaded while the
// start request was in flight. The opened session is ended again.
var ErrUnloaded = errors.New("dashboard unloaded")

// Phase is the state of the live study session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhasePaused:
		return "paused"
	default:
		return "idle"
	}
}

// API is the slice of the activity API the dashboard uses.
type API interface {
	Initialize(ctx context.Context) error
	StartSession(ctx context.Context, start activityapi.SessionStart) (int, error)
	EndSession(ctx context.Context, sessionID int) (activityapi.SessionSummary, error)
	LogActivity(ctx context.Context, activity activityapi.Activity) (int, error)
	UpdateActivityProgress(ctx context.Context, update activityapi.ActivityProgressUpdate) error
	DashboardStats(ctx context.Context) (activityapi.DashboardStats, error)
	QuickStats(ctx context.Context) (activityapi.QuickStats, error)
	LiveFeed(ctx context.Context, limit int) ([]activityapi.FeedItem, error)
	WeeklyChart(ctx context.Context) (activityapi.WeeklyChart, error)
}

// Channel is the realtime surface the dashboard subscribes to.
type Channel interface {
	On(event string, handler realtime.Handler)
	Emit(event string, payload interface{}) error
}

var _ Channel = (*realtime.Channel)(nil)
var _ API = (*activityapi.Client)(nil)

// Options configures a Dashboard. Channel is optional.
type Options struct {
	API           API
	Document      *view.Document
	Notifier      view.Notifier
	Channel       Channel
	Scheduler     schedule.Scheduler
	Logger        zerolog.Logger
	PollInterval  time.Duration
	RefreshDelay  time.Duration
	UnloadTimeout time.Duration
	FeedLimit     int
}

// Session is a snapshot of the live study session.
type Session struct {
	ID      int
	Phase   Phase
	Elapsed time.Duration
}

// Dashboard owns the dashboard page's timers and session state.
type Dashboard struct {
	api      API
	doc      *view.Document
	render   *Renderer
	notifier view.Notifier
	channel  Channel
	sched    schedule.Scheduler
	logger   zerolog.Logger

	pollInterval  time.Duration
	refreshDelay  time.Duration
	unloadTimeout time.Duration
	feedLimit     int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	phase     Phase
	sessionID int
	elapsed   time.Duration
	pending   bool
	unloading bool
	tick      schedule.Timer
	poll      schedule.Timer
	refresh   schedule.Timer
}

// New builds a dashboard. Nothing runs until Start.
func New(opts Options) *Dashboard {
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.Real()
	}

	d := &Dashboard{
		api:           opts.API,
		doc:           opts.Document,
		render:        NewRenderer(opts.Document),
		notifier:      opts.Notifier,
		channel:       opts.Channel,
		sched:         sched,
		logger:        opts.Logger.With().Str("component", "dashboard").Logger(),
		pollInterval:  opts.PollInterval,
		refreshDelay:  opts.RefreshDelay,
		unloadTimeout: opts.UnloadTimeout,
		feedLimit:     opts.FeedLimit,
	}
	if d.pollInterval <= 0 {
		d.pollInterval = DefaultPollInterval
	}
	if d.refreshDelay <= 0 {
		d.refreshDelay = DefaultRefreshDelay
	}
	if d.unloadTimeout <= 0 {
		d.unloadTimeout = DefaultUnloadTimeout
	}
	if d.feedLimit <= 0 {
		d.feedLimit = DefaultFeedLimit
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Start initialises the tracker, loads the statistics once, starts the
// periodic reload and subscribes to realtime events.
func (d *Dashboard) Start() {
	d.goAsync(func(ctx context.Context) {
		if err := d.api.Initialize(ctx); err != nil {
			d.logger.Error().Err(err).Msg("failed to initialize activity tracking")
		}
	})
	d.goAsync(func(ctx context.Context) { _ = d.LoadStats(ctx) })

	d.mu.Lock()
	if d.poll == nil && !d.unloading {
		d.poll = d.sched.Every(d.pollInterval, func() { _ = d.LoadStats(d.ctx) })
	}
	d.mu.Unlock()

	if d.channel != nil {
		d.channel.On(dto.EventActivityUpdate, func(json.RawMessage) {
			d.goAsync(func(ctx context.Context) {
				_ = d.RefreshFeed(ctx)
				_ = d.RefreshQuickStats(ctx)
			})
		})
		d.channel.On(dto.EventProgressUpdate, func(json.RawMessage) {
			d.goAsync(func(ctx context.Context) { _ = d.LoadStats(ctx) })
		})
		d.channel.On(dto.EventLiveStatsUpdate, d.ApplyLiveStats)
		if err := d.channel.Emit(dto.EventJoinActivityRoom, nil); err != nil {
			d.logger.Warn().Err(err).Msg("failed to join activity room")
		}
	}
}

func (d *Dashboard) goAsync(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(d.ctx)
	}()
}

// Wait blocks until background loads have finished.
func (d *Dashboard) Wait() {
	d.wg.Wait()
}

// Session returns a snapshot of the study session.
func (d *Dashboard) Session() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Session{ID: d.sessionID, Phase: d.phase, Elapsed: d.elapsed}
}

// StartSession opens a live study session. It fails with
// ErrSessionAlreadyActive unless the dashboard is idle.
func (d *Dashboard) StartSession(ctx context.Context, start activityapi.SessionStart) error {
	d.mu.Lock()
	if d.phase != PhaseIdle || d.pending || d.unloading {
		d.mu.Unlock()
		return ErrSessionAlreadyActive
	}
	d.pending = true
	d.mu.Unlock()

	if start.SessionType == "" {
		start.SessionType = defaultPracticeType
	}

	sessionID, err := d.api.StartSession(ctx, start)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to start session")
		return fmt.Errorf("start session: %w", err)
	}
	if d.unloading {
		d.mu.Unlock()
		d.endOrphan(sessionID)
		d.mu.Lock()
		return ErrUnloaded
	}

	d.phase = PhaseActive
	d.sessionID = sessionID
	d.elapsed = 0
	d.startTickLocked()
	d.logger.Info().Int("session_id", sessionID).Str("session_type", start.SessionType).Msg("study session started")
	return nil
}

// endOrphan closes a session whose start resolved after Unload.
func (d *Dashboard) endOrphan(sessionID int) {
	ctx, cancel := context.WithTimeout(context.Background(), d.unloadTimeout)
	defer cancel()
	if _, err := d.api.EndSession(ctx, sessionID); err != nil {
		d.logger.Warn().Err(err).Int("session_id", sessionID).Msg("session started during unload not closed")
		return
	}
	d.logger.Info().Int("session_id", sessionID).Msg("session started during unload closed")
}

func (d *Dashboard) startTickLocked() {
	if d.tick != nil {
		return
	}
	if !d.doc.Has(elementSessionTimer) {
		d.logger.Warn().Str("element", elementSessionTimer).Msg("session timer element missing, tick not started")
		return
	}
	d.tick = d.sched.Every(sessionTickInterval, d.onTick)
}

func (d *Dashboard) stopTickLocked() {
	schedule.Stop(d.tick)
	d.tick = nil
}

func (d *Dashboard) onTick() {
	d.mu.Lock()
	if d.phase != PhaseActive {
		d.mu.Unlock()
		return
	}
	d.elapsed += sessionTickInterval
	elapsed := d.elapsed
	d.mu.Unlock()

	d.doc.SetText(elementSessionTimer, view.FormatClock(elapsed))
}

// SetVisibility pauses the session tick while the page is hidden and resumes
// it from the paused value when the page is shown again.
func (d *Dashboard) SetVisibility(hidden bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case hidden && d.phase == PhaseActive:
		d.phase = PhasePaused
		d.stopTickLocked()
	case !hidden && d.phase == PhasePaused:
		d.phase = PhaseActive
		d.startTickLocked()
	}
}

// EndSession closes the live session. It is a no-op unless a session is
// active or paused. On failure the session is left as it was.
func (d *Dashboard) EndSession(ctx context.Context) error {
	d.mu.Lock()
	if d.phase == PhaseIdle || d.pending {
		d.mu.Unlock()
		return nil
	}
	d.pending = true
	sessionID := d.sessionID
	d.mu.Unlock()

	summary, err := d.api.EndSession(ctx, sessionID)

	d.mu.Lock()
	d.pending = false
	if err != nil {
		d.mu.Unlock()
		d.logger.Error().Err(err).Int("session_id", sessionID).Msg("failed to end session")
		return fmt.Errorf("end session: %w", err)
	}
	d.phase = PhaseIdle
	d.sessionID = 0
	d.elapsed = 0
	d.stopTickLocked()
	unloading := d.unloading
	d.mu.Unlock()

	d.logger.Info().Int("session_id", sessionID).Int("duration_minutes", summary.DurationMinutes).Int("xp_earned", summary.XPEarned).Msg("study session ended")
	if unloading {
		return nil
	}
	if d.notifier != nil {
		d.notifier.Show(fmt.Sprintf(summaryMessagePattern, summary.DurationMinutes, summary.XPEarned), view.KindSuccess, SummaryToastDuration)
	}
	d.scheduleReload()
	return nil
}

// LogActivity records an activity and reloads the statistics shortly after.
func (d *Dashboard) LogActivity(ctx context.Context, activity activityapi.Activity) (int, error) {
	id, err := d.api.LogActivity(ctx, activity)
	if err != nil {
		d.logger.Error().Err(err).Str("activity_type", activity.ActivityType).Msg("failed to log activity")
		return 0, fmt.Errorf("log activity: %w", err)
	}
	d.scheduleReload()
	return id, nil
}

// UpdateModuleProgress writes module progress through the activity tracker
// and reloads the statistics shortly after.
func (d *Dashboard) UpdateModuleProgress(ctx context.Context, update activityapi.ActivityProgressUpdate) error {
	if err := d.api.UpdateActivityProgress(ctx, update); err != nil {
		d.logger.Error().Err(err).Int("module_id", update.ModuleID).Msg("failed to update module progress")
		return fmt.Errorf("update module progress: %w", err)
	}
	d.scheduleReload()
	return nil
}

// scheduleReload debounces a full reload refreshDelay from now.
func (d *Dashboard) scheduleReload() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.unloading {
		return
	}
	schedule.Stop(d.refresh)
	d.refresh = d.sched.After(d.refreshDelay, func() { _ = d.LoadStats(d.ctx) })
}

// LoadStats fetches and renders the full statistics, then the feed and the
// weekly chart.
func (d *Dashboard) LoadStats(ctx context.Context) error {
	stats, err := d.api.DashboardStats(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to load dashboard stats")
		return err
	}
	d.render.Stats(stats)

	feedErr := d.RefreshFeed(ctx)
	chartErr := d.RefreshChart(ctx)
	return errors.Join(feedErr, chartErr)
}

// RefreshQuickStats fetches and renders the reduced statistics.
func (d *Dashboard) RefreshQuickStats(ctx context.Context) error {
	stats, err := d.api.QuickStats(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to load quick stats")
		return err
	}
	d.render.Quick(stats)
	return nil
}

// RefreshFeed fetches and renders the live activity feed.
func (d *Dashboard) RefreshFeed(ctx context.Context) error {
	feed, err := d.api.LiveFeed(ctx, d.feedLimit)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to load activity feed")
		return err
	}
	d.render.Feed(feed)
	return nil
}

// RefreshChart fetches and renders the weekly chart.
func (d *Dashboard) RefreshChart(ctx context.Context) error {
	chart, err := d.api.WeeklyChart(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to load weekly chart")
		return err
	}
	d.render.Chart(chart)
	return nil
}

// ApplyLiveStats renders a live_stats_update payload. A malformed payload is
// rendered as empty statistics.
func (d *Dashboard) ApplyLiveStats(data json.RawMessage) {
	var stats activityapi.DashboardStats
	if len(data) > 0 {
		if err := json.Unmarshal(data, &stats); err != nil {
			d.logger.Warn().Err(err).Msg("malformed live stats, using defaults")
			stats = activityapi.DashboardStats{}
		}
	}
	d.render.Stats(stats)
}

// Unload stops every dashboard timer, ends an open session on a best-effort
// basis and cancels background loads.
func (d *Dashboard) Unload(ctx context.Context) {
	d.mu.Lock()
	d.unloading = true
	schedule.Stop(d.poll, d.refresh)
	d.poll, d.refresh = nil, nil
	open := d.phase != PhaseIdle
	d.mu.Unlock()

	if open {
		endCtx, cancel := context.WithTimeout(ctx, d.unloadTimeout)
		if err := d.EndSession(endCtx); err != nil {
			d.logger.Warn().Err(err).Msg("session not closed on unload")
		}
		cancel()
	}

	d.mu.Lock()
	d.stopTickLocked()
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
