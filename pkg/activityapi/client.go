// Package activityapi is a typed client for the learner activity HTTP API.
package activityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vedispeak",
		Subsystem: "activityapi",
		Name:      "request_duration_seconds",
		Help:      "Duration of learner API requests",
	}, []string{"endpoint"})

	requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vedispeak",
		Subsystem: "activityapi",
		Name:      "request_failures_total",
		Help:      "Number of failed learner API requests",
	}, []string{"endpoint"})
)

// ErrInvalidResponse indicates a success envelope missing a required field.
var ErrInvalidResponse = errors.New("invalid api response")

// APIError is returned for non-2xx responses and for envelopes whose status is not "success".
type APIError struct {
	StatusCode    int
	Message       string
	CorrelationID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("activity api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("activity api: status %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	UserID     uint
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client talks to the activity API. It is safe for concurrent use.
type Client struct {
	baseURL  *url.URL
	userID   uint
	http     *http.Client
	validate *validator.Validate
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// New builds a client for the given base URL.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("activity api base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse activity api base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  base,
		userID:   cfg.UserID,
		http:     httpClient,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("github.com/noah-isme/vedispeak/pkg/activityapi"),
		logger:   cfg.Logger.With().Str("component", "activity_api_client").Logger(),
	}, nil
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// UpdateModuleProgress posts the module's progress.
func (c *Client) UpdateModuleProgress(ctx context.Context, moduleID int, update ProgressUpdate) (ModuleProgress, error) {
	if err := c.validate.Struct(update); err != nil {
		return ModuleProgress{}, err
	}

	var out struct {
		Progress ModuleProgress `json:"progress"`
	}
	path := "/api/progress/module/" + strconv.Itoa(moduleID)
	if err := c.do(ctx, "progress.update", http.MethodPost, path, update, &out); err != nil {
		return ModuleProgress{}, err
	}
	return out.Progress, nil
}

// Initialize prepares server-side tracking rows for the learner.
func (c *Client) Initialize(ctx context.Context) error {
	return c.do(ctx, "activity.initialize", http.MethodPost, "/api/activity/initialize", struct{}{}, nil)
}

// StartSession opens a live session and returns its id.
func (c *Client) StartSession(ctx context.Context, start SessionStart) (int, error) {
	var out struct {
		SessionID int `json:"session_id"`
	}
	if err := c.do(ctx, "activity.start_session", http.MethodPost, "/api/activity/start-session", start, &out); err != nil {
		return 0, err
	}
	if out.SessionID <= 0 {
		return 0, fmt.Errorf("start session: %w", ErrInvalidResponse)
	}
	return out.SessionID, nil
}

// EndSession closes a live session and returns its summary.
func (c *Client) EndSession(ctx context.Context, sessionID int) (SessionSummary, error) {
	var out dataEnvelope[SessionSummary]
	body := map[string]int{"session_id": sessionID}
	if err := c.do(ctx, "activity.end_session", http.MethodPost, "/api/activity/end-session", body, &out); err != nil {
		return SessionSummary{}, err
	}
	return out.Data, nil
}

// LogActivity records an activity and returns its id.
func (c *Client) LogActivity(ctx context.Context, activity Activity) (int, error) {
	if err := c.validate.Struct(activity); err != nil {
		return 0, err
	}

	var out struct {
		ActivityID int `json:"activity_id"`
	}
	if err := c.do(ctx, "activity.log", http.MethodPost, "/api/activity/log-activity", activity, &out); err != nil {
		return 0, err
	}
	return out.ActivityID, nil
}

// UpdateActivityProgress posts module progress through the activity tracker endpoint.
func (c *Client) UpdateActivityProgress(ctx context.Context, update ActivityProgressUpdate) error {
	if err := c.validate.Struct(update); err != nil {
		return err
	}
	return c.do(ctx, "activity.update_module_progress", http.MethodPost, "/api/activity/update-module-progress", update, nil)
}

// DashboardStats loads the full dashboard payload.
func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var out dataEnvelope[DashboardStats]
	err := c.do(ctx, "activity.dashboard_stats", http.MethodGet, "/api/activity/dashboard-stats", nil, &out)
	return out.Data, err
}

// QuickStats loads the reduced stats payload.
func (c *Client) QuickStats(ctx context.Context) (QuickStats, error) {
	var out dataEnvelope[QuickStats]
	err := c.do(ctx, "activity.quick_stats", http.MethodGet, "/api/activity/quick-stats", nil, &out)
	return out.Data, err
}

// LiveFeed loads the most recent activities, newest first.
func (c *Client) LiveFeed(ctx context.Context, limit int) ([]FeedItem, error) {
	var out dataEnvelope[[]FeedItem]
	path := "/api/activity/live-feed"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.do(ctx, "activity.live_feed", http.MethodGet, path, nil, &out)
	return out.Data, err
}

// WeeklyChart loads the seven-day chart series.
func (c *Client) WeeklyChart(ctx context.Context) (WeeklyChart, error) {
	var out dataEnvelope[WeeklyChart]
	err := c.do(ctx, "activity.weekly_chart", http.MethodGet, "/api/activity/weekly-chart", nil, &out)
	return out.Data, err
}

// SkillProgress loads the per-skill development view.
func (c *Client) SkillProgress(ctx context.Context) ([]SkillProgress, error) {
	var out dataEnvelope[[]SkillProgress]
	err := c.do(ctx, "activity.skill_progress", http.MethodGet, "/api/activity/skill-progress", nil, &out)
	return out.Data, err
}

func (c *Client) do(parent context.Context, endpoint, method, path string, body, out interface{}) (err error) {
	correlationID := uuid.NewString()
	ctx, span := c.tracer.Start(parent, "activityapi."+endpoint, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("correlation_id", correlationID),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			requestFailures.WithLabelValues(endpoint).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, marshalErr)
		}
		reader = bytes.NewReader(payload)
	}

	target, err := c.baseURL.Parse(c.baseURL.Path + path)
	if err != nil {
		return fmt.Errorf("build %s url: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatUint(uint64(c.userID), 10))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || decodeErr != nil || env.Status != "success" {
		message := env.Message
		if message == "" {
			message = env.Error
		}
		if decodeErr != nil && resp.StatusCode < http.StatusBadRequest {
			message = "malformed response body"
		}
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("correlation_id", correlationID).
			Int("status", resp.StatusCode).
			Str("message", message).
			Msg("activity api request failed")
		return &APIError{StatusCode: resp.StatusCode, Message: message, CorrelationID: correlationID}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
	}

	c.logger.Debug().Str("endpoint", endpoint).Str("correlation_id", correlationID).Msg("activity api request completed")
	return nil
}
