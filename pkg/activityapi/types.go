package activityapi

import "time"

// ProgressUpdate is the payload of a module progress write.
type ProgressUpdate struct {
	ProgressPercentage int  `json:"progress_percentage" validate:"gte=0,lte=100"`
	TimeSpentMinutes   int  `json:"time_spent_minutes" validate:"gte=0"`
	QuizScore          *int `json:"quiz_score" validate:"omitempty,gte=0,lte=100"`
}

// ModuleProgress is the stored progress echoed back by the server.
type ModuleProgress struct {
	ModuleID           int        `json:"module_id"`
	ModuleName         string     `json:"module_name"`
	ProgressPercentage int        `json:"progress_percentage"`
	TimeSpentMinutes   int        `json:"time_spent_minutes"`
	QuizScore          *int       `json:"quiz_score"`
	IsCompleted        bool       `json:"is_completed"`
	CompletionDate     *time.Time `json:"completion_date"`
}

// ActivityProgressUpdate is the dashboard tracker's module progress payload.
type ActivityProgressUpdate struct {
	ModuleID           int  `json:"module_id" validate:"required"`
	ProgressPercentage int  `json:"progress_percentage" validate:"gte=0,lte=100"`
	TimeSpentMinutes   int  `json:"time_spent_minutes" validate:"gte=0"`
	QuizScore          *int `json:"quiz_score,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Activity describes a learner action to log.
type Activity struct {
	ActivityType    string                 `json:"activity_type" validate:"required"`
	ModuleID        *int                   `json:"module_id,omitempty"`
	Description     string                 `json:"description,omitempty"`
	DurationMinutes int                    `json:"duration_minutes,omitempty" validate:"gte=0"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// SessionStart describes a live session to open.
type SessionStart struct {
	SessionType string `json:"session_type,omitempty"`
	ModuleID    *int   `json:"module_id,omitempty"`
}

// SessionSummary is returned when a session ends.
type SessionSummary struct {
	DurationMinutes int    `json:"duration_minutes"`
	SessionType     string `json:"session_type"`
	ModuleID        *int   `json:"module_id"`
	XPEarned        int    `json:"xp_earned"`
}

// DashboardStats is the full dashboard payload. Missing sections decode to
// zero values and nil slices.
type DashboardStats struct {
	BasicStats       BasicStats       `json:"basic_stats"`
	TodayStats       TodayStats       `json:"today_stats"`
	WeeklyProgress   WeeklyProgress   `json:"weekly_progress"`
	Skills           []SkillStat      `json:"skills"`
	RecentActivities []RecentActivity `json:"recent_activities"`
	ActiveModules    []ActiveModule   `json:"active_modules"`
	StreakInfo       *StreakInfo      `json:"streak_info"`
}

type BasicStats struct {
	TotalStudyHours  float64 `json:"total_study_hours"`
	ModulesCompleted int     `json:"modules_completed"`
	TotalXPPoints    int     `json:"total_xp_points"`
	SkillLevel       string  `json:"skill_level"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
}

type TodayStats struct {
	StudyMinutes    int     `json:"study_minutes"`
	StudyHours      float64 `json:"study_hours"`
	XPEarned        int     `json:"xp_earned"`
	ActivitiesCount int     `json:"activities_count"`
}

type WeeklyProgress struct {
	StudyMinutes     int `json:"study_minutes"`
	StudyGoal        int `json:"study_goal"`
	ModulesCompleted int `json:"modules_completed"`
	ModulesGoal      int `json:"modules_goal"`
	PracticeSessions int `json:"practice_sessions"`
	PracticeGoal     int `json:"practice_goal"`
}

type SkillStat struct {
	SkillCategory string `json:"skill_category"`
	SkillLevel    int    `json:"skill_level"`
	XPPoints      int    `json:"xp_points"`
}

type RecentActivity struct {
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	XPEarned     int       `json:"xp_earned"`
	CreatedAt    time.Time `json:"created_at"`
	ModuleID     *int      `json:"module_id"`
}

type ActiveModule struct {
	ModuleID           int    `json:"module_id"`
	ModuleName         string `json:"module_name"`
	ProgressPercentage int    `json:"progress_percentage"`
	TimeSpentMinutes   int    `json:"time_spent_minutes"`
}

type StreakInfo struct {
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	StreakPercentage float64 `json:"streak_percentage"`
}

// QuickStats is the reduced stats payload.
type QuickStats struct {
	TotalXP           int    `json:"total_xp"`
	CurrentStreak     int    `json:"current_streak"`
	TodayStudyMinutes int    `json:"today_study_minutes"`
	SkillLevel        string `json:"skill_level"`
	ModulesCompleted  int    `json:"modules_completed"`
}

// FeedItem is one live feed row.
type FeedItem struct {
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	XPEarned        int       `json:"xp_earned"`
	DurationMinutes int       `json:"duration_minutes"`
	Timestamp       time.Time `json:"timestamp"`
	ModuleName      *string   `json:"module_name"`
	TimeAgo         string    `json:"time_ago"`
}

// WeeklyChart holds the seven-day series.
type WeeklyChart struct {
	Labels           []string `json:"labels"`
	StudyMinutes     []int    `json:"study_minutes"`
	XPEarned         []int    `json:"xp_earned"`
	PracticeSessions []int    `json:"practice_sessions"`
	ModulesCompleted []int    `json:"modules_completed"`
}

// SkillProgress is one row of the skill development view.
type SkillProgress struct {
	Category           string `json:"category"`
	Level              int    `json:"level"`
	XPPoints           int    `json:"xp_points"`
	ProgressPercentage int    `json:"progress_percentage"`
	NextLevelXP        int    `json:"next_level_xp"`
}
