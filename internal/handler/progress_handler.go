package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vedispeak/internal/dto"
	"github.com/noah-isme/vedispeak/internal/service"
	"github.com/noah-isme/vedispeak/internal/utils"
)

// ProgressHandler exposes the module progress endpoint used by learning pages.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler creates a new handler instance.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the progress routes.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Post("/module/:moduleId", h.updateModule)
}

func (h *ProgressHandler) updateModule(c *fiber.Ctx) error {
	moduleID, err := strconv.ParseUint(c.Params("moduleId"), 10, 32)
	if err != nil || moduleID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid module id")
	}

	var req dto.ModuleProgressUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	progress, err := h.service.UpdateModule(requestContext(c), userIDFromContext(c), uint(moduleID), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update progress")
	}
	return utils.SendFields(c, fiber.StatusOK, "progress updated", fiber.Map{"progress": progress})
}
