package dashboard

import (
	"fmt"
	"math"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/vedispeak/internal/view"
	"github.com/noah-isme/vedispeak/pkg/activityapi"
)

const (
	defaultSkillLevel    = "Beginner"
	defaultStudyGoal     = 300
	defaultModulesGoal   = 2
	defaultPracticeGoal  = 10
	defaultActivityIcon  = "fa-circle"
	defaultActivityColor = "bg-slate-500"
)

var activityIcons = map[string]string{
	"module_start":     "fa-play",
	"module_complete":  "fa-check-circle",
	"quiz_attempt":     "fa-question-circle",
	"quiz_pass":        "fa-trophy",
	"practice_session": "fa-dumbbell",
	"skill_unlock":     "fa-star",
	"streak_milestone": "fa-fire",
	"login":            "fa-sign-in-alt",
}

var activityColors = map[string]string{
	"module_start":     "bg-blue-500",
	"module_complete":  "bg-emerald-500",
	"quiz_attempt":     "bg-purple-500",
	"quiz_pass":        "bg-amber-500",
	"practice_session": "bg-indigo-500",
	"skill_unlock":     "bg-pink-500",
	"streak_milestone": "bg-red-500",
	"login":            "bg-slate-500",
}

// ActivityIcon maps an activity type to its icon class.
func ActivityIcon(activityType string) string {
	if icon, ok := activityIcons[activityType]; ok {
		return icon
	}
	return defaultActivityIcon
}

// ActivityColor maps an activity type to its badge colour class.
func ActivityColor(activityType string) string {
	if color, ok := activityColors[activityType]; ok {
		return color
	}
	return defaultActivityColor
}

// Renderer writes dashboard payloads into the document.
type Renderer struct {
	doc       *view.Document
	sanitizer *bluemonday.Policy
}

// NewRenderer binds a renderer to a document.
func NewRenderer(doc *view.Document) *Renderer {
	return &Renderer{doc: doc, sanitizer: bluemonday.StrictPolicy()}
}

func (r *Renderer) setNumber(id string, value float64) {
	r.doc.SetText(id, view.FormatNumber(value))
}

func orDefault(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

// Stats renders the full dashboard payload. Zero or missing values fall back
// to their defaults; list sections are only replaced when present.
func (r *Renderer) Stats(stats activityapi.DashboardStats) {
	basic := stats.BasicStats
	r.setNumber("total-study-hours", basic.TotalStudyHours)
	r.setNumber("modules-completed", float64(basic.ModulesCompleted))
	r.setNumber("total-xp-points", float64(basic.TotalXPPoints))
	level := basic.SkillLevel
	if level == "" {
		level = defaultSkillLevel
	}
	r.doc.SetText("skill-level", level)
	r.setNumber("current-streak", float64(basic.CurrentStreak))
	r.setNumber("longest-streak", float64(basic.LongestStreak))

	today := stats.TodayStats
	r.setNumber("today-study-hours", today.StudyHours)
	r.setNumber("today-xp-earned", float64(today.XPEarned))
	r.setNumber("today-activities", float64(today.ActivitiesCount))

	weekly := stats.WeeklyProgress
	r.ProgressBar("weekly-study-progress", weekly.StudyMinutes, orDefault(weekly.StudyGoal, defaultStudyGoal))
	r.ProgressBar("weekly-modules-progress", weekly.ModulesCompleted, orDefault(weekly.ModulesGoal, defaultModulesGoal))
	r.ProgressBar("weekly-practice-progress", weekly.PracticeSessions, orDefault(weekly.PracticeGoal, defaultPracticeGoal))

	if stats.Skills != nil {
		r.Skills(stats.Skills)
	}
	if stats.ActiveModules != nil {
		r.ActiveModules(stats.ActiveModules)
	}
	if stats.StreakInfo != nil {
		r.Streak(*stats.StreakInfo)
	}
}

// ProgressBar sets a bar's width to current/goal capped at 100% and, when a
// companion "-text" element exists, writes "current/goal" into it.
func (r *Renderer) ProgressBar(id string, current, goal int) {
	percentage := 0.0
	if goal > 0 {
		percentage = math.Min(float64(current)/float64(goal)*100, 100)
	}
	if !r.doc.SetStyle(id, "width", view.FormatNumber(percentage)+"%") {
		return
	}
	if r.doc.Has(id + "-text") {
		r.doc.SetText(id+"-text", fmt.Sprintf("%d/%d", current, goal))
	}
}

// Skills renders one bar per skill category.
func (r *Renderer) Skills(skills []activityapi.SkillStat) {
	items := make([]view.Item, 0, len(skills))
	for _, skill := range skills {
		items = append(items, view.Item{
			Key:     skill.SkillCategory,
			Text:    skill.SkillCategory,
			Classes: []string{"skill-item"},
			Style:   map[string]string{"width": strconv.Itoa(skill.XPPoints%100) + "%"},
			Data: map[string]string{
				"level": fmt.Sprintf("Level %d", skill.SkillLevel),
				"xp":    fmt.Sprintf("%d XP", skill.XPPoints),
			},
		})
	}
	r.doc.SetItems("skills-container", items)
}

// ActiveModules renders the in-progress module list.
func (r *Renderer) ActiveModules(modules []activityapi.ActiveModule) {
	items := make([]view.Item, 0, len(modules))
	for _, module := range modules {
		items = append(items, view.Item{
			Key:     strconv.Itoa(module.ModuleID),
			Text:    module.ModuleName,
			Classes: []string{"module-item"},
			Style:   map[string]string{"width": strconv.Itoa(module.ProgressPercentage) + "%"},
			Data: map[string]string{
				"progress": strconv.Itoa(module.ProgressPercentage) + "%",
				"studied":  fmt.Sprintf("%d min studied", module.TimeSpentMinutes),
				"href":     fmt.Sprintf("/learn/module/%d", module.ModuleID),
			},
		})
	}
	r.doc.SetItems("active-modules-container", items)
}

// Streak renders the streak block.
func (r *Renderer) Streak(info activityapi.StreakInfo) {
	r.doc.SetItems("streak-container", []view.Item{{
		Key:  "streak",
		Text: strconv.Itoa(info.CurrentStreak),
		Data: map[string]string{
			"label": "Day Streak",
			"best":  fmt.Sprintf("Best: %d days", info.LongestStreak),
		},
	}})
}

// Quick renders the reduced stats payload.
func (r *Renderer) Quick(stats activityapi.QuickStats) {
	r.setNumber("total-xp-points", float64(stats.TotalXP))
	r.setNumber("current-streak", float64(stats.CurrentStreak))
	r.setNumber("today-study-minutes", float64(stats.TodayStudyMinutes))
	level := stats.SkillLevel
	if level == "" {
		level = defaultSkillLevel
	}
	r.doc.SetText("skill-level", level)
	r.setNumber("modules-completed", float64(stats.ModulesCompleted))
}

// Feed renders the live activity feed with sanitised descriptions.
func (r *Renderer) Feed(activities []activityapi.FeedItem) {
	items := make([]view.Item, 0, len(activities))
	for i, activity := range activities {
		data := map[string]string{
			"icon":     ActivityIcon(activity.Type),
			"time_ago": activity.TimeAgo,
		}
		if activity.XPEarned > 0 {
			data["xp"] = fmt.Sprintf("+%d XP", activity.XPEarned)
		}
		items = append(items, view.Item{
			Key:     strconv.Itoa(i),
			Text:    r.sanitizer.Sanitize(activity.Description),
			Classes: []string{"activity-item", ActivityColor(activity.Type)},
			Data:    data,
		})
	}
	r.doc.SetItems("activity-feed-container", items)
}

// Chart renders one bar per day scaled against the busiest day (at least 1).
func (r *Renderer) Chart(chart activityapi.WeeklyChart) {
	maxValue := 1
	for _, minutes := range chart.StudyMinutes {
		if minutes > maxValue {
			maxValue = minutes
		}
	}

	items := make([]view.Item, 0, len(chart.Labels))
	for i, label := range chart.Labels {
		minutes := 0
		if i < len(chart.StudyMinutes) {
			minutes = chart.StudyMinutes[i]
		}
		height := float64(minutes) / float64(maxValue) * 100
		items = append(items, view.Item{
			Key:   strconv.Itoa(i),
			Text:  label,
			Style: map[string]string{"height": view.FormatNumber(height) + "%"},
			Data:  map[string]string{"minutes": fmt.Sprintf("%dm", minutes)},
		})
	}
	r.doc.SetItems("weekly-chart-container", items)
}
