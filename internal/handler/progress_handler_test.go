package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vedispeak/internal/handler"
)

func newProgressApp(svc *stubProgressService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/progress", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(5))
		return c.Next()
	})
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestProgressHandlerReturnsProgressField(t *testing.T) {
	svc := &stubProgressService{}
	app := newProgressApp(svc)

	resp, body := doJSON(t, app, http.MethodPost, "/api/progress/module/3", map[string]interface{}{
		"progress_percentage": 55,
		"time_spent_minutes":  2,
		"quiz_score":          80,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "success", body["status"])

	progress := body["progress"].(map[string]interface{})
	require.Equal(t, float64(3), progress["module_id"])
	require.Equal(t, float64(55), progress["progress_percentage"])
	require.Equal(t, uint(3), svc.lastModule)
	require.Equal(t, 80, *svc.lastReq.QuizScore)
}

func TestProgressHandlerRejectsBadInput(t *testing.T) {
	svc := &stubProgressService{}
	app := newProgressApp(svc)

	resp, body := doJSON(t, app, http.MethodPost, "/api/progress/module/abc", map[string]interface{}{"progress_percentage": 10})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid module id", body["message"])

	svc.err = validator.ValidationErrors{}
	resp, body = doJSON(t, app, http.MethodPost, "/api/progress/module/3", map[string]interface{}{"progress_percentage": 130})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "error", body["status"])
}
