package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/service"
	"github.com/noah-isme/vedispeak/internal/utils"
)

// ActivityHandler exposes the activity tracker and dashboard endpoints.
type ActivityHandler struct {
	activities service.ActivityService
	sessions   service.SessionService
	progress   service.ProgressService
	dashboard  service.DashboardService
	logger     zerolog.Logger
}

// NewActivityHandler creates a new handler instance.
func NewActivityHandler(activities service.ActivityService, sessions service.SessionService, progress service.ProgressService, dashboard service.DashboardService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		sessions:   sessions,
		progress:   progress,
		dashboard:  dashboard,
		logger:     logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/initialize", h.initialize)
	router.Post("/start-session", h.startSession)
	router.Post("/end-session", h.endSession)
	router.Post("/log-activity", h.logActivity)
	router.Post("/update-module-progress", h.updateModuleProgress)
	router.Get("/dashboard-stats", h.dashboardStats)
	router.Get("/quick-stats", h.quickStats)
	router.Get("/live-feed", h.liveFeed)
	router.Get("/weekly-chart", h.weeklyChart)
	router.Get("/skill-progress", h.skillProgress)
}

func (h *ActivityHandler) initialize(c *fiber.Ctx) error {
	if err := h.activities.Initialize(requestContext(c), userIDFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "failed to initialize tracking")
	}
	return utils.SendSuccess(c, "tracking initialized", nil)
}

func (h *ActivityHandler) startSession(c *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	sessionID, err := h.sessions.Start(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to start session")
	}
	return utils.SendFields(c, fiber.StatusOK, "session started", fiber.Map{"session_id": sessionID})
}

func (h *ActivityHandler) endSession(c *fiber.Ctx) error {
	var req dto.EndSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	summary, err := h.sessions.End(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to end session")
	}
	return utils.SendSuccess(c, "session ended", summary)
}

func (h *ActivityHandler) logActivity(c *fiber.Ctx) error {
	var req dto.LogActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	event, err := h.activities.Log(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to log activity")
	}
	return utils.SendFields(c, fiber.StatusOK, "activity logged", fiber.Map{
		"activity_id": event.ActivityID,
		"xp_earned":   event.XPEarned,
	})
}

func (h *ActivityHandler) updateModuleProgress(c *fiber.Ctx) error {
	var req dto.ActivityModuleProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ModuleID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrInvalidModule.Error())
	}

	progress, err := h.progress.UpdateModule(requestContext(c), userIDFromContext(c), req.ModuleID, dto.ModuleProgressUpdateRequest{
		ProgressPercentage: req.ProgressPercentage,
		TimeSpentMinutes:   req.TimeSpentMinutes,
		QuizScore:          req.QuizScore,
	})
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update module progress")
	}
	return utils.SendSuccess(c, "progress updated", progress)
}

func (h *ActivityHandler) dashboardStats(c *fiber.Ctx) error {
	stats, err := h.dashboard.Stats(requestContext(c), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load dashboard stats")
	}
	return utils.SendSuccess(c, "dashboard stats", stats)
}

func (h *ActivityHandler) quickStats(c *fiber.Ctx) error {
	stats, err := h.dashboard.QuickStats(requestContext(c), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load quick stats")
	}
	return utils.SendSuccess(c, "quick stats", stats)
}

func (h *ActivityHandler) liveFeed(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	feed, err := h.dashboard.LiveFeed(requestContext(c), userIDFromContext(c), limit)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load live feed")
	}
	return utils.SendSuccess(c, "live feed", feed)
}

func (h *ActivityHandler) weeklyChart(c *fiber.Ctx) error {
	chart, err := h.dashboard.WeeklyChart(requestContext(c), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load weekly chart")
	}
	return utils.SendSuccess(c, "weekly chart", chart)
}

func (h *ActivityHandler) skillProgress(c *fiber.Ctx) error {
	skills, err := h.dashboard.SkillProgress(requestContext(c), userIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load skill progress")
	}
	return utils.SendSuccess(c, "skill progress", skills)
}
