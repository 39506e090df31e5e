package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/vedispeak/internal/models"
)

// PassingQuizScore is the minimum quiz score logged as a pass.
const PassingQuizScore = 70

// XPRewards is the base XP per activity type. Unknown types earn nothing.
var XPRewards = map[string]int{
	models.ActivityModuleStart:     5,
	models.ActivityModuleComplete:  50,
	models.ActivityQuizAttempt:     10,
	models.ActivityQuizPass:        25,
	models.ActivityPracticeSession: 15,
	models.ActivityDailyGoal:       30,
	models.ActivityWeeklyGoal:      100,
	models.ActivityStreakMilestone: 20,
	models.ActivitySkillLevelUp:    40,
}

// SkillLevel is an overall proficiency band.
type SkillLevel struct {
	Name      string
	Threshold int
}

// SkillLevels are ordered by ascending XP threshold.
var SkillLevels = []SkillLevel{
	{Name: "Beginner", Threshold: 0},
	{Name: "Elementary", Threshold: 100},
	{Name: "Intermediate", Threshold: 300},
	{Name: "Advanced", Threshold: 600},
	{Name: "Expert", Threshold: 1000},
	{Name: "Master", Threshold: 1500},
}

// SkillLevelForXP returns the highest band whose threshold totalXP reaches.
func SkillLevelForXP(totalXP int) string {
	level := SkillLevels[0].Name
	for _, candidate := range SkillLevels {
		if totalXP >= candidate.Threshold {
			level = candidate.Name
		}
	}
	return level
}

// XPFor computes the XP of an activity. Practice sessions earn one bonus
// point per five minutes, up to 20.
func XPFor(activityType string, durationMinutes int) int {
	xp := XPRewards[activityType]
	if activityType == models.ActivityPracticeSession && durationMinutes > 0 {
		bonus := durationMinutes / 5
		if bonus > 20 {
			bonus = 20
		}
		xp += bonus
	}
	return xp
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday of t's week as YYYY-MM-DD.
func weekStart(t time.Time) string {
	day := dayStart(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset).Format("2006-01-02")
}

// streaks returns the current run of consecutive active days ending today or
// yesterday, and the longest run among activity.
func streaks(activity []time.Time, now time.Time) (current, longest int) {
	seen := make(map[time.Time]struct{}, len(activity))
	days := make([]time.Time, 0, len(activity))
	for _, at := range activity {
		day := dayStart(at)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if len(days) == 0 {
		return 0, 0
	}

	today := dayStart(now)
	cursor := today
	if _, ok := seen[cursor]; !ok {
		cursor = today.AddDate(0, 0, -1)
	}
	for {
		if _, ok := seen[cursor]; !ok {
			break
		}
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	run := 0
	for i, day := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return current, longest
}

func plural(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}

// formatTimeAgo renders the feed's relative timestamps.
func formatTimeAgo(now, at time.Time) string {
	diff := now.Sub(at)
	if diff < 0 {
		return "Just now"
	}
	days := int(diff / (24 * time.Hour))
	if days > 0 {
		return plural(days, "day")
	}
	seconds := int(diff / time.Second)
	switch {
	case seconds > 3600:
		return plural(seconds/3600, "hour")
	case seconds > 60:
		return plural(seconds/60, "minute")
	default:
		return "Just now"
	}
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

// Publisher delivers realtime events to a learner's rooms.
type Publisher interface {
	Publish(ctx context.Context, userID uint, event string, payload interface{})
}

// CacheInvalidator drops cached dashboard data after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID uint)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, uint, string, interface{}) {}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, uint) {}
