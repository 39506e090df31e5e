package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/observability"
)

const realtimeSendBufferSize = 32

// ActivityRoom is the room joined by dashboards of a learner.
func ActivityRoom(userID uint) string {
	return fmt.Sprintf("user_%d_activity", userID)
}

// LearningRoom is the room joined by module pages of a learner.
func LearningRoom(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

// RealtimeHub tracks connected clients by room and delivers events to every
// room of a learner, on this node and, through Redis or NATS, on its peers.
type RealtimeHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*realtimeClient]struct{}

	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
	tracer       trace.Tracer
}

type realtimeEvent struct {
	Source string          `json:"source"`
	UserID uint            `json:"user_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

// realtimeClient is one websocket connection. rooms is guarded by the hub.
type realtimeClient struct {
	userID uint
	send   chan dto.RealtimeFrame
	rooms  map[string]struct{}
	closed chan struct{}
	once   sync.Once
}

func newRealtimeClient(userID uint) *realtimeClient {
	return &realtimeClient{
		userID: userID,
		send:   make(chan dto.RealtimeFrame, realtimeSendBufferSize),
		rooms:  make(map[string]struct{}),
		closed: make(chan struct{}),
	}
}

// NewRealtimeHub builds a hub. redisClient and natsConn may be nil; when
// channelBase is empty no fan-out happens.
func NewRealtimeHub(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *RealtimeHub {
	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase + ":events"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &RealtimeHub{
		rooms:        make(map[string]map[*realtimeClient]struct{}),
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "realtime_hub").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/vedispeak/internal/service/realtime"),
	}
}

// NodeID identifies this hub in fan-out messages.
func (h *RealtimeHub) NodeID() string { return h.nodeID }

// Start subscribes to peer events until ctx is done.
func (h *RealtimeHub) Start(ctx context.Context) {
	if h.redis != nil && h.redisChannel != "" {
		go h.consumeRedis(ctx)
	}
	if h.nats != nil && h.natsSubject != "" {
		go h.consumeNATS(ctx)
	}
}

// Publish delivers event to the learner's local clients and forwards it to peers.
func (h *RealtimeHub) Publish(ctx context.Context, userID uint, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn().Err(err).Str("event", event).Msg("failed to marshal realtime payload")
		return
	}

	spanCtx, span := h.tracer.Start(ctx, "realtime.publish", trace.WithAttributes(
		attribute.String("realtime.event", event),
		attribute.Int64("realtime.user_id", int64(userID)),
	))
	defer span.End()

	h.deliver(userID, dto.RealtimeFrame{Event: event, Data: data})
	if err := h.forward(spanCtx, realtimeEvent{
		Source: h.nodeID,
		UserID: userID,
		Event:  event,
		Data:   data,
		SentAt: time.Now().UTC(),
	}); err != nil {
		span.RecordError(err)
		h.logger.Warn().Err(err).Str("event", event).Msg("failed to forward realtime event")
	}
}

func (h *RealtimeHub) forward(ctx context.Context, event realtimeEvent) error {
	if (h.redis == nil || h.redisChannel == "") && (h.nats == nil || h.natsSubject == "") {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if h.redis != nil && h.redisChannel != "" {
		if err := h.redis.Publish(ctx, h.redisChannel, payload).Err(); err != nil {
			return err
		}
	}
	if h.nats != nil && h.natsSubject != "" {
		if err := h.nats.Publish(h.natsSubject, payload); err != nil {
			return err
		}
	}
	return nil
}

func (h *RealtimeHub) consumeRedis(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, h.redisChannel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			h.logger.Error().Err(err).Msg("realtime redis subscription closed")
			return
		}
		h.handlePeerEvent([]byte(msg.Payload))
	}
}

func (h *RealtimeHub) consumeNATS(ctx context.Context) {
	sub, err := h.nats.Subscribe(h.natsSubject, func(msg *nats.Msg) {
		h.handlePeerEvent(msg.Data)
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to subscribe to nats realtime subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to drain realtime nats subscription")
		}
	}()
}

func (h *RealtimeHub) handlePeerEvent(data []byte) {
	var event realtimeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Warn().Err(err).Msg("invalid realtime peer event")
		return
	}
	if event.Source == h.nodeID {
		return
	}
	h.deliver(event.UserID, dto.RealtimeFrame{Event: event.Event, Data: event.Data})
}

// deliver sends frame once to every local client in any room of userID.
func (h *RealtimeHub) deliver(userID uint, frame dto.RealtimeFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make(map[*realtimeClient]struct{})
	for _, room := range []string{ActivityRoom(userID), LearningRoom(userID)} {
		for client := range h.rooms[room] {
			targets[client] = struct{}{}
		}
	}
	for client := range targets {
		select {
		case client.send <- frame:
			observability.RealtimeEvents().WithLabelValues(frame.Event, "out").Inc()
		default:
			h.logger.Warn().Uint("user_id", client.userID).Str("event", frame.Event).Msg("dropping realtime event for slow client")
		}
	}
}

func (h *RealtimeHub) join(client *realtimeClient, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[*realtimeClient]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.rooms[room] = struct{}{}
	h.logger.Debug().Str("room", room).Uint("user_id", client.userID).Msg("realtime client joined room")
}

func (h *RealtimeHub) leaveAll(client *realtimeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range client.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	client.rooms = make(map[string]struct{})
}

// RoomSize returns the number of local clients in room.
func (h *RealtimeHub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

var _ Publisher = (*RealtimeHub)(nil)
