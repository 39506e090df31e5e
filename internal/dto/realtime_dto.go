package dto

import (
	"encoding/json"
	"time"
)

// Realtime event names exchanged over the learner websocket.
const (
	EventJoinActivityRoom      = "join_activity_room"
	EventJoinLearningRoom      = "join_learning_room"
	EventStartModuleSession    = "start_module_session"
	EventUpdateSessionProgress = "update_session_progress"
	EventRequestLiveStats      = "request_live_stats"

	EventActivityRoomJoined = "activity_room_joined"
	EventLearningRoomJoined = "learning_room_joined"
	EventActivityUpdate     = "activity_update"
	EventProgressUpdate     = "progress_update"
	EventLiveStatsUpdate    = "live_stats_update"
	EventSessionProgress    = "session_progress_updated"
	EventSessionStarted     = "session_started"
	EventError              = "error"
)

// RealtimeFrame is the JSON envelope of every websocket message.
type RealtimeFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomJoined acknowledges a room subscription.
type RoomJoined struct {
	Room string `json:"room"`
}

// ModuleSessionPayload is sent with start_module_session and join_learning_room.
type ModuleSessionPayload struct {
	ModuleID uint `json:"module_id"`
}

// SessionProgressPayload is sent with update_session_progress.
type SessionProgressPayload struct {
	ModuleID  uint `json:"module_id"`
	Progress  int  `json:"progress"`
	TimeSpent int  `json:"time_spent"`
}

// ProgressEvent is broadcast as progress_update after a module progress write.
type ProgressEvent struct {
	ModuleID           uint `json:"module_id"`
	ProgressPercentage int  `json:"progress_percentage"`
	TimeSpentMinutes   int  `json:"time_spent_minutes"`
	QuizScore          *int `json:"quiz_score"`
	IsCompleted        bool `json:"is_completed"`
}

// ActivityEvent is broadcast as activity_update after an activity is logged.
type ActivityEvent struct {
	ActivityID   uint   `json:"activity_id"`
	ActivityType string `json:"activity_type"`
	ModuleID     *uint  `json:"module_id"`
	Description  string `json:"description"`
	XPEarned     int    `json:"xp_earned"`
}

// SessionStartedPayload acknowledges start_module_session.
type SessionStartedPayload struct {
	ModuleID  uint      `json:"module_id"`
	StartTime time.Time `json:"start_time"`
}

// RealtimeError reports a rejected inbound event.
type RealtimeError struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
