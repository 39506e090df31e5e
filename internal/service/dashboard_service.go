package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/models"
	"github.com/noah-isme/vedispeak/internal/observability"
	"github.com/noah-isme/vedispeak/internal/repository"
)

const (
	recentActivityLimit = 10
	activeModuleLimit   = 5
	defaultFeedLimit    = 20
	maxFeedLimit        = 100
	streakGoalDays      = 30
	chartDays           = 7
)

// DashboardService produces the learner dashboard payloads.
type DashboardService interface {
	CacheInvalidator
	Stats(ctx context.Context, userID uint) (dto.DashboardStats, error)
	QuickStats(ctx context.Context, userID uint) (dto.QuickStats, error)
	LiveFeed(ctx context.Context, userID uint, limit int) ([]dto.FeedItem, error)
	WeeklyChart(ctx context.Context, userID uint) (dto.WeeklyChart, error)
	SkillProgress(ctx context.Context, userID uint) ([]dto.SkillProgress, error)
}

type dashboardService struct {
	store    *repository.Store
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService builds the dashboard aggregator. cache may be nil.
func NewDashboardService(store *repository.Store, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &dashboardService{
		store:    store,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

func dashboardCacheKey(userID uint) string {
	return fmt.Sprintf("dashboard:stats:%d", userID)
}

func (s *dashboardService) Stats(ctx context.Context, userID uint) (dto.DashboardStats, error) {
	cacheKey := dashboardCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardStats
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.DashboardCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("user_id", userID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		observability.DashboardCache().WithLabelValues("miss").Inc()
	}

	response, err := s.buildStats(ctx, userID)
	if err != nil {
		return dto.DashboardStats{}, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached stats of a learner.
func (s *dashboardService) Invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate dashboard cache")
	}
}

func (s *dashboardService) buildStats(ctx context.Context, userID uint) (dto.DashboardStats, error) {
	now := s.now().UTC()

	stats, err := s.store.Stats.Get(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.DashboardStats{}, err
	}

	today, err := s.store.Activities.ListSince(ctx, userID, dayStart(now))
	if err != nil {
		return dto.DashboardStats{}, err
	}
	var todayStats dto.TodayStats
	for _, entry := range today {
		todayStats.StudyMinutes += entry.DurationMinutes
		todayStats.XPEarned += entry.XPEarned
		todayStats.ActivitiesCount++
	}
	todayStats.StudyHours = roundTenth(float64(todayStats.StudyMinutes) / 60)

	goal, err := s.store.Goals.Find(ctx, userID, weekStart(now))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		goal, err = models.NewWeeklyGoal(userID, weekStart(now)), nil
	}
	if err != nil {
		return dto.DashboardStats{}, err
	}

	skillRows, err := s.store.Skills.List(ctx, userID)
	if err != nil {
		return dto.DashboardStats{}, err
	}
	skills := make([]dto.SkillStat, 0, len(skillRows))
	for _, skill := range skillRows {
		skills = append(skills, dto.SkillStat{
			SkillCategory: skill.SkillCategory,
			SkillLevel:    skill.SkillLevel,
			XPPoints:      skill.XPPoints,
		})
	}

	recentRows, err := s.store.Activities.ListRecent(ctx, userID, recentActivityLimit)
	if err != nil {
		return dto.DashboardStats{}, err
	}
	recent := make([]dto.RecentActivity, 0, len(recentRows))
	for _, entry := range recentRows {
		recent = append(recent, dto.RecentActivity{
			ActivityType: entry.ActivityType,
			Description:  entry.Description,
			XPEarned:     entry.XPEarned,
			CreatedAt:    entry.CreatedAt,
			ModuleID:     entry.ModuleID,
		})
	}

	activeRows, err := s.store.Modules.ListActive(ctx, userID, activeModuleLimit)
	if err != nil {
		return dto.DashboardStats{}, err
	}
	active := make([]dto.ActiveModule, 0, len(activeRows))
	for _, row := range activeRows {
		active = append(active, dto.ActiveModule{
			ModuleID:           row.ModuleID,
			ModuleName:         row.ModuleName,
			ProgressPercentage: row.ProgressPercentage,
			TimeSpentMinutes:   row.TimeSpentMinutes,
			LastAccessed:       row.LastAccessed,
		})
	}

	return dto.DashboardStats{
		BasicStats: dto.BasicStats{
			TotalStudyHours:  roundTenth(float64(stats.TotalStudyMinutes) / 60),
			ModulesCompleted: stats.ModulesCompleted,
			TotalXPPoints:    stats.TotalXPPoints,
			SkillLevel:       SkillLevelForXP(stats.TotalXPPoints),
			CurrentStreak:    stats.CurrentStreakDays,
			LongestStreak:    stats.LongestStreakDays,
		},
		TodayStats: todayStats,
		WeeklyProgress: dto.WeeklyProgress{
			StudyMinutes:     goal.CurrentStudyMinutes,
			StudyGoal:        goal.StudyMinutesGoal,
			ModulesCompleted: goal.CurrentModules,
			ModulesGoal:      goal.ModulesGoal,
			PracticeSessions: goal.CurrentPracticeSessions,
			PracticeGoal:     goal.PracticeSessionsGoal,
		},
		Skills:           skills,
		RecentActivities: recent,
		ActiveModules:    active,
		StreakInfo:       streakInfo(stats.CurrentStreakDays, stats.LongestStreakDays),
	}, nil
}

func streakInfo(current, longest int) dto.StreakInfo {
	info := dto.StreakInfo{CurrentStreak: current, LongestStreak: longest}
	if current > 0 {
		info.StreakPercentage = math.Min(float64(current)/streakGoalDays*100, 100)
	}
	return info
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s *dashboardService) QuickStats(ctx context.Context, userID uint) (dto.QuickStats, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return dto.QuickStats{}, err
	}
	return dto.QuickStats{
		TotalXP:           stats.BasicStats.TotalXPPoints,
		CurrentStreak:     stats.BasicStats.CurrentStreak,
		TodayStudyMinutes: stats.TodayStats.StudyMinutes,
		SkillLevel:        stats.BasicStats.SkillLevel,
		ModulesCompleted:  stats.BasicStats.ModulesCompleted,
	}, nil
}

func (s *dashboardService) LiveFeed(ctx context.Context, userID uint, limit int) ([]dto.FeedItem, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	entries, err := s.store.Activities.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	names, err := s.store.Modules.Names(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	items := make([]dto.FeedItem, 0, len(entries))
	for _, entry := range entries {
		item := dto.FeedItem{
			Type:            entry.ActivityType,
			Description:     entry.Description,
			XPEarned:        entry.XPEarned,
			DurationMinutes: entry.DurationMinutes,
			Timestamp:       entry.CreatedAt,
			TimeAgo:         formatTimeAgo(now, entry.CreatedAt),
		}
		if entry.ModuleID != nil {
			if name, ok := names[*entry.ModuleID]; ok {
				item.ModuleName = &name
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// WeeklyChart returns seven zero-filled days ending today, oldest first.
func (s *dashboardService) WeeklyChart(ctx context.Context, userID uint) (dto.WeeklyChart, error) {
	today := dayStart(s.now())
	first := today.AddDate(0, 0, -(chartDays - 1))

	entries, err := s.store.Activities.ListSince(ctx, userID, first)
	if err != nil {
		return dto.WeeklyChart{}, err
	}

	chart := dto.WeeklyChart{
		Labels:           make([]string, chartDays),
		StudyMinutes:     make([]int, chartDays),
		XPEarned:         make([]int, chartDays),
		PracticeSessions: make([]int, chartDays),
		ModulesCompleted: make([]int, chartDays),
	}
	for i := 0; i < chartDays; i++ {
		chart.Labels[i] = first.AddDate(0, 0, i).Format("Mon")
	}

	for _, entry := range entries {
		slot := int(dayStart(entry.CreatedAt).Sub(first) / (24 * time.Hour))
		if slot < 0 || slot >= chartDays {
			continue
		}
		chart.StudyMinutes[slot] += entry.DurationMinutes
		chart.XPEarned[slot] += entry.XPEarned
		switch entry.ActivityType {
		case models.ActivityPracticeSession:
			chart.PracticeSessions[slot]++
		case models.ActivityModuleComplete:
			chart.ModulesCompleted[slot]++
		}
	}
	return chart, nil
}

func (s *dashboardService) SkillProgress(ctx context.Context, userID uint) ([]dto.SkillProgress, error) {
	rows, err := s.store.Skills.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	skills := make([]dto.SkillProgress, 0, len(rows))
	for _, row := range rows {
		skills = append(skills, dto.SkillProgress{
			Category:           row.SkillCategory,
			Level:              row.SkillLevel,
			XPPoints:           row.XPPoints,
			ProgressPercentage: row.XPPoints % 100,
			NextLevelXP:        row.SkillLevel*100 - row.XPPoints,
		})
	}
	return skills, nil
}
