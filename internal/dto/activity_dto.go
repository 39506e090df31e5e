package dto

import "time"

// ModuleProgressUpdateRequest is the body of POST /api/progress/module/{id}.
type ModuleProgressUpdateRequest struct {
	ProgressPercentage int  `json:"progress_percentage" validate:"gte=0,lte=100"`
	TimeSpentMinutes   int  `json:"time_spent_minutes" validate:"gte=0"`
	QuizScore          *int `json:"quiz_score" validate:"omitempty,gte=0,lte=100"`
}

// ActivityModuleProgressRequest is the body of POST /api/activity/update-module-progress.
type ActivityModuleProgressRequest struct {
	ModuleID           uint `json:"module_id" validate:"required"`
	ProgressPercentage int  `json:"progress_percentage" validate:"gte=0,lte=100"`
	TimeSpentMinutes   int  `json:"time_spent_minutes" validate:"gte=0"`
	QuizScore          *int `json:"quiz_score" validate:"omitempty,gte=0,lte=100"`
}

// ModuleProgressResponse mirrors a stored module progress row.
type ModuleProgressResponse struct {
	ModuleID           uint       `json:"module_id"`
	ModuleName         string     `json:"module_name"`
	ProgressPercentage int        `json:"progress_percentage"`
	TimeSpentMinutes   int        `json:"time_spent_minutes"`
	QuizScore          *int       `json:"quiz_score"`
	IsCompleted        bool       `json:"is_completed"`
	CompletionDate     *time.Time `json:"completion_date"`
	LastAccessed       time.Time  `json:"last_accessed"`
}

// LogActivityRequest is the body of POST /api/activity/log-activity.
type LogActivityRequest struct {
	ActivityType    string                 `json:"activity_type" validate:"required,max=64"`
	ModuleID        *uint                  `json:"module_id"`
	Description     string                 `json:"description" validate:"max=500"`
	DurationMinutes int                    `json:"duration_minutes" validate:"gte=0"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// StartSessionRequest is the body of POST /api/activity/start-session.
type StartSessionRequest struct {
	SessionType string `json:"session_type" validate:"omitempty,max=32"`
	ModuleID    *uint  `json:"module_id"`
}

// EndSessionRequest is the body of POST /api/activity/end-session.
type EndSessionRequest struct {
	SessionID uint `json:"session_id" validate:"required"`
}

// SessionSummary is returned when a live session ends.
type SessionSummary struct {
	DurationMinutes int    `json:"duration_minutes"`
	SessionType     string `json:"session_type"`
	ModuleID        *uint  `json:"module_id"`
	XPEarned        int    `json:"xp_earned"`
}

// DashboardStats is the full dashboard payload.
type DashboardStats struct {
	BasicStats       BasicStats       `json:"basic_stats"`
	TodayStats       TodayStats       `json:"today_stats"`
	WeeklyProgress   WeeklyProgress   `json:"weekly_progress"`
	Skills           []SkillStat      `json:"skills"`
	RecentActivities []RecentActivity `json:"recent_activities"`
	ActiveModules    []ActiveModule   `json:"active_modules"`
	StreakInfo       StreakInfo       `json:"streak_info"`
}

// BasicStats captures lifetime totals.
type BasicStats struct {
	TotalStudyHours  float64 `json:"total_study_hours"`
	ModulesCompleted int     `json:"modules_completed"`
	TotalXPPoints    int     `json:"total_xp_points"`
	SkillLevel       string  `json:"skill_level"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
}

// TodayStats captures activity since local midnight.
type TodayStats struct {
	StudyMinutes    int     `json:"study_minutes"`
	StudyHours      float64 `json:"study_hours"`
	XPEarned        int     `json:"xp_earned"`
	ActivitiesCount int     `json:"activities_count"`
}

// WeeklyProgress compares the current week's counters with its goals.
type WeeklyProgress struct {
	StudyMinutes     int `json:"study_minutes"`
	StudyGoal        int `json:"study_goal"`
	ModulesCompleted int `json:"modules_completed"`
	ModulesGoal      int `json:"modules_goal"`
	PracticeSessions int `json:"practice_sessions"`
	PracticeGoal     int `json:"practice_goal"`
}

// SkillStat is one skill category row.
type SkillStat struct {
	SkillCategory string `json:"skill_category"`
	SkillLevel    int    `json:"skill_level"`
	XPPoints      int    `json:"xp_points"`
}

// RecentActivity is a compact activity log row.
type RecentActivity struct {
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	XPEarned     int       `json:"xp_earned"`
	CreatedAt    time.Time `json:"created_at"`
	ModuleID     *uint     `json:"module_id"`
}

// ActiveModule is a module with progress strictly between 0 and 100.
type ActiveModule struct {
	ModuleID           uint      `json:"module_id"`
	ModuleName         string    `json:"module_name"`
	ProgressPercentage int       `json:"progress_percentage"`
	TimeSpentMinutes   int       `json:"time_spent_minutes"`
	LastAccessed       time.Time `json:"last_accessed"`
}

// StreakInfo summarises the learner's streaks.
type StreakInfo struct {
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	StreakPercentage float64 `json:"streak_percentage"`
}

// QuickStats is the reduced payload used between full reloads.
type QuickStats struct {
	TotalXP           int    `json:"total_xp"`
	CurrentStreak     int    `json:"current_streak"`
	TodayStudyMinutes int    `json:"today_study_minutes"`
	SkillLevel        string `json:"skill_level"`
	ModulesCompleted  int    `json:"modules_completed"`
}

// FeedItem is one row of the live activity feed.
type FeedItem struct {
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	XPEarned        int       `json:"xp_earned"`
	DurationMinutes int       `json:"duration_minutes"`
	Timestamp       time.Time `json:"timestamp"`
	ModuleName      *string   `json:"module_name"`
	TimeAgo         string    `json:"time_ago"`
}

// WeeklyChart holds seven zero-filled daily series, oldest first.
type WeeklyChart struct {
	Labels           []string `json:"labels"`
	StudyMinutes     []int    `json:"study_minutes"`
	XPEarned         []int    `json:"xp_earned"`
	PracticeSessions []int    `json:"practice_sessions"`
	ModulesCompleted []int    `json:"modules_completed"`
}

// SkillProgress is the detailed skill development view.
type SkillProgress struct {
	Category           string `json:"category"`
	Level              int    `json:"level"`
	XPPoints           int    `json:"xp_points"`
	ProgressPercentage int    `json:"progress_percentage"`
	NextLevelXP        int    `json:"next_level_xp"`
}
