package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity types recognised by the XP rules.
const (
	ActivityModuleStart     = "module_start"
	ActivityModuleComplete  = "module_complete"
	ActivityQuizAttempt     = "quiz_attempt"
	ActivityQuizPass        = "quiz_pass"
	ActivityPracticeSession = "practice_session"
	ActivityDailyGoal       = "daily_goal"
	ActivityWeeklyGoal      = "weekly_goal"
	ActivityStreakMilestone = "streak_milestone"
	ActivitySkillLevelUp    = "skill_levelup"
)

// ActivityLog records one learner action and the XP it earned.
type ActivityLog struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"not null;index:idx_activity_user_created" json:"user_id"`
	ActivityType    string            `gorm:"size:64;not null" json:"activity_type"`
	ModuleID        *uint             `json:"module_id"`
	Description     string            `gorm:"size:500" json:"description"`
	XPEarned        int               `gorm:"not null" json:"xp_earned"`
	DurationMinutes int               `gorm:"not null" json:"duration_minutes"`
	Metadata        datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt       time.Time         `gorm:"index:idx_activity_user_created" json:"created_at"`
}
