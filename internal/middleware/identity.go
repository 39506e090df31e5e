package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/vedispeak/internal/utils"
)

// UserIDHeader carries the learner id on HTTP requests.
const UserIDHeader = "X-User-ID"

// Identity resolves the acting learner from the X-User-ID header or the
// user_id query parameter, falling back to defaultUserID. Authentication is
// left to the deployment in front of the API.
func Identity(defaultUserID uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(UserIDHeader))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("user_id"))
		}

		userID := defaultUserID
		if raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || parsed == 0 {
				return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
			}
			userID = uint(parsed)
		}
		if userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "user id required")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
