// Package realtime is the learner-side websocket channel carrying named JSON events.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const (
	sendBufferSize      = 32
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vedispeak",
	Subsystem: "realtime_client",
	Name:      "events_total",
	Help:      "Realtime events sent and received by the learner channel",
}, []string{"direction", "event"})

var (
	// ErrClosed is returned by Emit once the channel has shut down.
	ErrClosed = errors.New("realtime channel closed")
	// ErrBackpressure is returned by Emit when the send buffer is full.
	ErrBackpressure = errors.New("realtime send buffer full")
)

// Handler receives the raw data of an inbound event.
type Handler func(data json.RawMessage)

// Frame is the wire envelope of every message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Config configures Dial.
type Config struct {
	URL          string
	Header       http.Header
	Dialer       *websocket.Dialer
	PingInterval time.Duration
	Logger       zerolog.Logger
}

// Channel is a connected realtime channel.
type Channel struct {
	conn   *websocket.Conn
	send   chan Frame
	closed chan struct{}
	once   sync.Once
	ping   time.Duration
	logger zerolog.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
}

// Dial connects to the realtime endpoint and starts the read and write loops.
func Dial(ctx context.Context, cfg Config) (*Channel, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("realtime url is required")
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	}

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial realtime channel: %w", err)
	}

	ping := cfg.PingInterval
	if ping <= 0 {
		ping = defaultPingInterval
	}

	ch := &Channel{
		conn:     conn,
		send:     make(chan Frame, sendBufferSize),
		closed:   make(chan struct{}),
		ping:     ping,
		logger:   cfg.Logger.With().Str("component", "realtime_channel").Logger(),
		handlers: make(map[string][]Handler),
	}

	go ch.writer()
	go ch.reader()

	return ch, nil
}

// On registers a handler for an inbound event. Handlers run on the read loop.
func (c *Channel) On(event string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

// Emit queues an outbound event. A nil payload sends no data field.
func (c *Channel) Emit(event string, payload interface{}) error {
	frame := Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", event, err)
		}
		frame.Data = data
	}

	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	select {
	case c.send <- frame:
		eventsTotal.WithLabelValues("out", event).Inc()
		return nil
	case <-c.closed:
		return ErrClosed
	default:
		c.logger.Warn().Str("event", event).Msg("dropping realtime event for full buffer")
		return ErrBackpressure
	}
}

// Done is closed once the channel has shut down.
func (c *Channel) Done() <-chan struct{} {
	return c.closed
}

// Close shuts the channel down. It is safe to call more than once.
func (c *Channel) Close() error {
	c.once.Do(func() {
		close(c.closed)
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.conn.Close()
	})
	return nil
}

func (c *Channel) reader() {
	defer c.Close()

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			select {
			case <-c.closed:
			default:
				c.logger.Debug().Err(err).Msg("realtime read loop ended")
			}
			return
		}
		if frame.Event == "" {
			continue
		}

		eventsTotal.WithLabelValues("in", frame.Event).Inc()

		c.mu.RLock()
		handlers := append([]Handler(nil), c.handlers[frame.Event]...)
		c.mu.RUnlock()

		for _, handler := range handlers {
			handler(frame.Data)
		}
	}
}

func (c *Channel) writer() {
	ticker := time.NewTicker(c.ping)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				c.logger.Debug().Err(err).Msg("realtime write loop terminated")
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(writeWait)); err != nil {
				c.logger.Debug().Err(err).Msg("realtime ping failed")
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}
