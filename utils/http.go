// utils/http.go - JSON response envelope helpers
package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Error codes the API is allowed to return. Handlers never invent codes
// outside this set.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeInternalError   = "INTERNAL_ERROR"
)

// SendError sends the structured error envelope:
// {"success": false, "error": {"code", "message", "requestId"}}
func SendError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":      code,
			"message":   message,
			"requestId": c.Locals(requestid.ConfigDefault.ContextKey),
		},
	})
}

// SendSuccess sends a success envelope with the payload fields merged in
// at the top level next to "success": true.
func SendSuccess(c *fiber.Ctx, data fiber.Map) error {
	response := fiber.Map{"success": true}
	for k, v := range data {
		response[k] = v
	}
	return c.JSON(response)
}
