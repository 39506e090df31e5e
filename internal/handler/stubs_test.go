package handler_test

import (
	"context"
	"time"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/service"
)

type stubActivityService struct {
	initialized []uint
	logged      []dto.LogActivityRequest
	event       dto.ActivityEvent
	err         error
}

func (s *stubActivityService) Initialize(_ context.Context, userID uint) error {
	s.initialized = append(s.initialized, userID)
	return s.err
}

func (s *stubActivityService) Log(_ context.Context, _ uint, req dto.LogActivityRequest) (dto.ActivityEvent, error) {
	s.logged = append(s.logged, req)
	return s.event, s.err
}

var _ service.ActivityService = (*stubActivityService)(nil)

type stubSessionService struct {
	startID uint
	summary dto.SessionSummary
	err     error
	lastEnd dto.EndSessionRequest
	lastUID uint
}

func (s *stubSessionService) Start(_ context.Context, userID uint, _ dto.StartSessionRequest) (uint, error) {
	s.lastUID = userID
	return s.startID, s.err
}

func (s *stubSessionService) End(_ context.Context, userID uint, req dto.EndSessionRequest) (dto.SessionSummary, error) {
	s.lastUID = userID
	s.lastEnd = req
	return s.summary, s.err
}

func (s *stubSessionService) Sweep(context.Context) (int, error) { return 0, nil }

func (s *stubSessionService) RunSweeper(context.Context, time.Duration) {}

var _ service.SessionService = (*stubSessionService)(nil)

type stubProgressService struct {
	response   dto.ModuleProgressResponse
	err        error
	lastModule uint
	lastReq    dto.ModuleProgressUpdateRequest
}

func (s *stubProgressService) UpdateModule(_ context.Context, _ uint, moduleID uint, req dto.ModuleProgressUpdateRequest) (dto.ModuleProgressResponse, error) {
	s.lastModule = moduleID
	s.lastReq = req
	if s.err != nil {
		return dto.ModuleProgressResponse{}, s.err
	}
	response := s.response
	response.ModuleID = moduleID
	response.ProgressPercentage = req.ProgressPercentage
	return response, nil
}

var _ service.ProgressService = (*stubProgressService)(nil)

type stubDashboardService struct {
	stats     dto.DashboardStats
	feed      []dto.FeedItem
	lastLimit int
	err       error
}

func (s *stubDashboardService) Invalidate(context.Context, uint) {}

func (s *stubDashboardService) Stats(context.Context, uint) (dto.DashboardStats, error) {
	return s.stats, s.err
}

func (s *stubDashboardService) QuickStats(context.Context, uint) (dto.QuickStats, error) {
	return dto.QuickStats{TotalXP: s.stats.BasicStats.TotalXPPoints, SkillLevel: s.stats.BasicStats.SkillLevel}, s.err
}

func (s *stubDashboardService) LiveFeed(_ context.Context, _ uint, limit int) ([]dto.FeedItem, error) {
	s.lastLimit = limit
	return s.feed, s.err
}

func (s *stubDashboardService) WeeklyChart(context.Context, uint) (dto.WeeklyChart, error) {
	return dto.WeeklyChart{Labels: []string{"Mon"}, StudyMinutes: []int{5}}, s.err
}

func (s *stubDashboardService) SkillProgress(context.Context, uint) ([]dto.SkillProgress, error) {
	return []dto.SkillProgress{{Category: "alphabet", Level: 2, XPPoints: 130}}, s.err
}

var _ service.DashboardService = (*stubDashboardService)(nil)
