package utils

import "github.com/gofiber/fiber/v2"

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// SendFields sends a success envelope whose payload sits next to status
// instead of under data, e.g. {"status":"success","session_id":3}.
func SendFields(c *fiber.Ctx, status int, message string, fields fiber.Map) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	body := fiber.Map{}
	for key, value := range fields {
		body[key] = value
	}
	body["status"] = StatusSuccess
	if message != "" {
		body["message"] = message
	}

	return c.Status(status).JSON(body)
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Status:  StatusError,
		Message: message,
	})
}
