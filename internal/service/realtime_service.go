package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/middleware"
	"github.com/noah-isme/vedispeak/internal/observability"
)

const realtimePingInterval = 30 * time.Second

// RealtimeConnectionOptions wraps metadata extracted during the HTTP upgrade.
type RealtimeConnectionOptions struct {
	UserID        uint
	CorrelationID string
	Context       context.Context
}

// RealtimeService serves learner websocket connections.
type RealtimeService interface {
	ServeConnection(conn *websocket.Conn, opts RealtimeConnectionOptions)
}

type realtimeService struct {
	hub       *RealtimeHub
	dashboard DashboardService
	progress  ProgressService
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRealtimeService builds the websocket service on top of hub.
func NewRealtimeService(hub *RealtimeHub, dashboard DashboardService, progress ProgressService, logger zerolog.Logger) RealtimeService {
	return &realtimeService{
		hub:       hub,
		dashboard: dashboard,
		progress:  progress,
		logger:    logger.With().Str("component", "realtime_service").Logger(),
		now:       time.Now,
	}
}

func (s *realtimeService) ServeConnection(conn *websocket.Conn, opts RealtimeConnectionOptions) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.CorrelationID != "" {
		ctx = middleware.ContextWithCorrelation(ctx, opts.CorrelationID)
	}

	client := newRealtimeClient(opts.UserID)
	observability.RealtimeConnections().Inc()
	defer observability.RealtimeConnections().Dec()

	go s.writer(conn, client)
	s.reader(ctx, conn, client)
}

func (s *realtimeService) reader(ctx context.Context, conn *websocket.Conn, client *realtimeClient) {
	defer s.close(conn, client)

	for {
		var frame dto.RealtimeFrame
		if err := conn.ReadJSON(&frame); err != nil {
			s.logger.Debug().Err(err).Uint("user_id", client.userID).Msg("realtime read loop ended")
			return
		}
		s.handleFrame(ctx, client, frame)
	}
}

func (s *realtimeService) writer(conn *websocket.Conn, client *realtimeClient) {
	defer s.close(conn, client)

	ticker := time.NewTicker(realtimePingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-client.send:
			if err := conn.WriteJSON(frame); err != nil {
				s.logger.Debug().Err(err).Msg("realtime write loop terminated")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				s.logger.Debug().Err(err).Msg("realtime ping failed")
				return
			}
		case <-client.closed:
			return
		}
	}
}

func (s *realtimeService) close(conn *websocket.Conn, client *realtimeClient) {
	client.once.Do(func() {
		close(client.closed)
		s.hub.leaveAll(client)
		_ = conn.Close()
	})
}

// handleFrame dispatches one inbound event. Replies go to the sending client only.
func (s *realtimeService) handleFrame(ctx context.Context, client *realtimeClient, frame dto.RealtimeFrame) {
	observability.RealtimeEvents().WithLabelValues(frame.Event, "in").Inc()
	logger := s.logger.With().
		Str("event", frame.Event).
		Uint("user_id", client.userID).
		Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
		Logger()
	logger.Debug().Msg("realtime event received")

	switch frame.Event {
	case dto.EventJoinActivityRoom:
		room := ActivityRoom(client.userID)
		s.hub.join(client, room)
		s.reply(client, dto.EventActivityRoomJoined, dto.RoomJoined{Room: room})

	case dto.EventJoinLearningRoom:
		room := LearningRoom(client.userID)
		s.hub.join(client, room)
		s.reply(client, dto.EventLearningRoomJoined, dto.RoomJoined{Room: room})

	case dto.EventStartModuleSession:
		var payload dto.ModuleSessionPayload
		if err := decodeFrame(frame, &payload); err != nil || payload.ModuleID == 0 {
			s.replyError(client, frame.Event, "invalid session data")
			return
		}
		s.reply(client, dto.EventSessionStarted, dto.SessionStartedPayload{
			ModuleID:  payload.ModuleID,
			StartTime: s.now().UTC(),
		})

	case dto.EventUpdateSessionProgress:
		var payload dto.SessionProgressPayload
		if err := decodeFrame(frame, &payload); err != nil || payload.ModuleID == 0 {
			s.replyError(client, frame.Event, "invalid progress data")
			return
		}
		progress, err := s.progress.UpdateModule(ctx, client.userID, payload.ModuleID, dto.ModuleProgressUpdateRequest{
			ProgressPercentage: payload.Progress,
			TimeSpentMinutes:   payload.TimeSpent,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to apply session progress")
			s.replyError(client, frame.Event, "failed to update progress")
			return
		}
		s.reply(client, dto.EventSessionProgress, progress)

	case dto.EventRequestLiveStats:
		stats, err := s.dashboard.Stats(ctx, client.userID)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load live stats")
			s.replyError(client, frame.Event, "failed to load stats")
			return
		}
		s.reply(client, dto.EventLiveStatsUpdate, stats)

	default:
		s.replyError(client, frame.Event, "unknown event")
	}
}

func decodeFrame(frame dto.RealtimeFrame, target interface{}) error {
	if len(frame.Data) == 0 {
		return nil
	}
	return json.Unmarshal(frame.Data, target)
}

func (s *realtimeService) reply(client *realtimeClient, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to marshal realtime reply")
		return
	}
	select {
	case client.send <- dto.RealtimeFrame{Event: event, Data: data}:
		observability.RealtimeEvents().WithLabelValues(event, "out").Inc()
	case <-client.closed:
	default:
		s.logger.Warn().Uint("user_id", client.userID).Str("event", event).Msg("client queue full, dropping reply")
	}
}

func (s *realtimeService) replyError(client *realtimeClient, event, message string) {
	s.reply(client, dto.EventError, dto.RealtimeError{Event: event, Message: message})
}
