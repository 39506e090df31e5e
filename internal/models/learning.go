package models

import (
	"fmt"
	"time"
)

// Default weekly goals.
const (
	DefaultStudyMinutesGoal     = 300
	DefaultModulesGoal          = 2
	DefaultPracticeSessionsGoal = 10
)

// SkillCategories are the skills tracked for every learner.
var SkillCategories = []string{"alphabet", "numbers", "vocabulary", "grammar", "conversation", "comprehension"}

var moduleNames = map[uint]string{
	1: "ISL Alphabet & Fingerspelling",
	2: "Numbers & Mathematical Concepts",
	3: "Family & Relationships",
	4: "Colors, Shapes & Objects",
	5: "Time & Calendar Concepts",
	6: "Basic Grammar & Sentence Structure",
}

var moduleSkills = map[uint]string{
	1: "alphabet",
	2: "numbers",
	3: "vocabulary",
	4: "vocabulary",
	5: "vocabulary",
	6: "grammar",
}

// ModuleName returns the display name of a module.
func ModuleName(moduleID uint) string {
	if name, ok := moduleNames[moduleID]; ok {
		return name
	}
	return fmt.Sprintf("Module %d", moduleID)
}

// ModuleSkill returns the skill category a module trains.
func ModuleSkill(moduleID uint) string {
	if skill, ok := moduleSkills[moduleID]; ok {
		return skill
	}
	return "conversation"
}

// UserStats holds a learner's running totals.
type UserStats struct {
	UserID            uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TotalStudyMinutes int        `gorm:"not null" json:"total_study_minutes"`
	TotalXPPoints     int        `gorm:"not null" json:"total_xp_points"`
	ModulesCompleted  int        `gorm:"not null" json:"modules_completed"`
	SkillLevel        string     `gorm:"size:32;not null" json:"skill_level"`
	CurrentStreakDays int        `gorm:"not null" json:"current_streak_days"`
	LongestStreakDays int        `gorm:"not null" json:"longest_streak_days"`
	LastActivityDate  *time.Time `json:"last_activity_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ModuleProgress is a learner's progress through one module.
type ModuleProgress struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;uniqueIndex:idx_progress_user_module" json:"user_id"`
	ModuleID           uint       `gorm:"not null;uniqueIndex:idx_progress_user_module" json:"module_id"`
	ModuleName         string     `gorm:"size:128;not null" json:"module_name"`
	ProgressPercentage int        `gorm:"not null" json:"progress_percentage"`
	TimeSpentMinutes   int        `gorm:"not null" json:"time_spent_minutes"`
	QuizScore          *int       `json:"quiz_score"`
	IsCompleted        bool       `gorm:"not null" json:"is_completed"`
	CompletionDate     *time.Time `json:"completion_date"`
	LastAccessed       time.Time  `json:"last_accessed"`
}

// LiveSession is a bounded period of study opened from the dashboard.
type LiveSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	SessionType     string     `gorm:"size:32;not null" json:"session_type"`
	ModuleID        *uint      `json:"module_id"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes"`
	IsActive        bool       `gorm:"not null;index" json:"is_active"`
}

// SkillDevelopment tracks XP and level per skill category.
type SkillDevelopment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex:idx_skill_user_category" json:"user_id"`
	SkillCategory    string     `gorm:"size:32;not null;uniqueIndex:idx_skill_user_category" json:"skill_category"`
	SkillLevel       int        `gorm:"not null" json:"skill_level"`
	XPPoints         int        `gorm:"not null" json:"xp_points"`
	LastPracticeDate *time.Time `json:"last_practice_date"`
}

// WeeklyGoal holds the goals and counters of one week, keyed by its Monday.
type WeeklyGoal struct {
	ID                      uint   `gorm:"primaryKey" json:"id"`
	UserID                  uint   `gorm:"not null;uniqueIndex:idx_goal_user_week" json:"user_id"`
	WeekStart               string `gorm:"size:10;not null;uniqueIndex:idx_goal_user_week" json:"week_start"`
	StudyMinutesGoal        int    `gorm:"not null" json:"study_minutes_goal"`
	ModulesGoal             int    `gorm:"not null" json:"modules_goal"`
	PracticeSessionsGoal    int    `gorm:"not null" json:"practice_sessions_goal"`
	CurrentStudyMinutes     int    `gorm:"not null" json:"current_study_minutes"`
	CurrentModules          int    `gorm:"not null" json:"current_modules"`
	CurrentPracticeSessions int    `gorm:"not null" json:"current_practice_sessions"`
}

// NewWeeklyGoal returns a goal row with the default targets.
func NewWeeklyGoal(userID uint, weekStart string) WeeklyGoal {
	return WeeklyGoal{
		UserID:               userID,
		WeekStart:            weekStart,
		StudyMinutesGoal:     DefaultStudyMinutesGoal,
		ModulesGoal:          DefaultModulesGoal,
		PracticeSessionsGoal: DefaultPracticeSessionsGoal,
	}
}

// All lists the models migrated by the activity API.
func All() []interface{} {
	return []interface{}{
		&UserStats{},
		&ActivityLog{},
		&ModuleProgress{},
		&LiveSession{},
		&SkillDevelopment{},
		&WeeklyGoal{},
	}
}
