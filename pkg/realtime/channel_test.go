package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/pkg/realtime"
)

func TestChannelEmitAndReceive(t *testing.T) {
	app := fiber.New()
	app.Get("/ws", fiberws.New(func(conn *fiberws.Conn) {
		for {
			var frame realtime.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Event == "join_activity_room" {
				_ = conn.WriteJSON(realtime.Frame{Event: "activity_room_joined", Data: json.RawMessage(`{"room":"user_1_activity"}`)})
			}
		}
	}))

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	ch, err := realtime.Dial(context.Background(), realtime.Config{
		URL:    "ws" + strings.TrimPrefix(baseURL, "http") + "/ws",
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	defer ch.Close()

	joined := make(chan string, 1)
	ch.On("activity_room_joined", func(data json.RawMessage) {
		var payload struct {
			Room string `json:"room"`
		}
		_ = json.Unmarshal(data, &payload)
		joined <- payload.Room
	})

	require.NoError(t, ch.Emit("join_activity_room", nil))

	select {
	case room := <-joined:
		require.Equal(t, "user_1_activity", room)
	case <-time.After(2 * time.Second):
		t.Fatal("expected room acknowledgement")
	}
}

func TestChannelEmitAfterClose(t *testing.T) {
	app := fiber.New()
	app.Get("/ws", fiberws.New(func(conn *fiberws.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	ch, err := realtime.Dial(context.Background(), realtime.Config{
		URL:    "ws" + strings.TrimPrefix(baseURL, "http") + "/ws",
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	require.ErrorIs(t, ch.Emit("update_session_progress", map[string]int{"progress": 10}), realtime.ErrClosed)

	select {
	case <-ch.Done():
	case <-time.After(time.Second):
		t.Fatal("expected channel to report done")
	}
}

func TestDialRequiresURL(t *testing.T) {
	_, err := realtime.Dial(context.Background(), realtime.Config{})
	require.Error(t, err)
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}
