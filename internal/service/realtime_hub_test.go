package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/dto"
)

func drain(client *realtimeClient) []dto.RealtimeFrame {
	var frames []dto.RealtimeFrame
	for {
		select {
		case frame := <-client.send:
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func TestRealtimeHubDeliversOncePerClient(t *testing.T) {
	hub := NewRealtimeHub(nil, nil, "", zerolog.Nop())

	both := newRealtimeClient(1)
	hub.join(both, ActivityRoom(1))
	hub.join(both, LearningRoom(1))
	dashboardOnly := newRealtimeClient(1)
	hub.join(dashboardOnly, ActivityRoom(1))
	other := newRealtimeClient(2)
	hub.join(other, ActivityRoom(2))

	hub.Publish(context.Background(), 1, dto.EventActivityUpdate, dto.ActivityEvent{ActivityID: 7})

	frames := drain(both)
	require.Len(t, frames, 1)
	require.Equal(t, dto.EventActivityUpdate, frames[0].Event)
	require.JSONEq(t, `{"activity_id":7,"activity_type":"","module_id":null,"description":"","xp_earned":0}`, string(frames[0].Data))
	require.Len(t, drain(dashboardOnly), 1)
	require.Empty(t, drain(other))
}

func TestRealtimeHubLeaveAllRemovesEmptyRooms(t *testing.T) {
	hub := NewRealtimeHub(nil, nil, "", zerolog.Nop())
	client := newRealtimeClient(3)
	hub.join(client, ActivityRoom(3))
	hub.join(client, LearningRoom(3))
	require.Equal(t, 1, hub.RoomSize("user_3_activity"))
	require.Equal(t, 1, hub.RoomSize("user_3"))

	hub.leaveAll(client)

	require.Zero(t, hub.RoomSize(ActivityRoom(3)))
	require.Zero(t, hub.RoomSize(LearningRoom(3)))
	hub.Publish(context.Background(), 3, dto.EventProgressUpdate, dto.ProgressEvent{})
	require.Empty(t, drain(client))
}

func TestRealtimeHubDropsWhenClientIsSlow(t *testing.T) {
	hub := NewRealtimeHub(nil, nil, "", zerolog.Nop())
	client := newRealtimeClient(1)
	hub.join(client, LearningRoom(1))

	for i := 0; i < realtimeSendBufferSize+5; i++ {
		hub.Publish(context.Background(), 1, dto.EventProgressUpdate, dto.ProgressEvent{ProgressPercentage: i})
	}
	require.Len(t, drain(client), realtimeSendBufferSize)
}

func TestRealtimeHubFansOutThroughRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newHub := func() *RealtimeHub {
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		hub := NewRealtimeHub(client, nil, "test:realtime", zerolog.Nop())
		hub.Start(ctx)
		return hub
	}
	origin := newHub()
	peer := newHub()
	require.NotEqual(t, origin.NodeID(), peer.NodeID())

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("test:realtime:events")["test:realtime:events"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	local := newRealtimeClient(5)
	origin.join(local, ActivityRoom(5))
	remote := newRealtimeClient(5)
	peer.join(remote, LearningRoom(5))

	origin.Publish(ctx, 5, dto.EventProgressUpdate, dto.ProgressEvent{ModuleID: 2, ProgressPercentage: 55})

	var frame dto.RealtimeFrame
	require.Eventually(t, func() bool {
		select {
		case frame = <-remote.send:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, dto.EventProgressUpdate, frame.Event)

	var payload dto.ProgressEvent
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	require.Equal(t, 55, payload.ProgressPercentage)

	time.Sleep(50 * time.Millisecond)
	require.Len(t, drain(local), 1)
}

func BenchmarkRealtimeHubPublish(b *testing.B) {
	hub := NewRealtimeHub(nil, nil, "", zerolog.Nop())
	clients := make([]*realtimeClient, 0, 64)
	for i := 0; i < 64; i++ {
		client := newRealtimeClient(uint(i%8 + 1))
		hub.join(client, ActivityRoom(client.userID))
		hub.join(client, LearningRoom(client.userID))
		clients = append(clients, client)
	}
	ctx := context.Background()
	payload := dto.ActivityEvent{ActivityID: 1, ActivityType: "practice_session", XPEarned: 15}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hub.Publish(ctx, uint(i%8+1), dto.EventActivityUpdate, payload)
		if i%realtimeSendBufferSize == 0 {
			for _, client := range clients {
				drain(client)
			}
		}
	}
}
