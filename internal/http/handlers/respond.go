package handlers

import (
	"github.com/gofiber/fiber/v2"

	"librarium/internal/apperr"
	applog "librarium/internal/log"
)

type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details []apperr.Detail `json:"details,omitempty"`
	Context map[string]any  `json:"context,omitempty"`
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

// respondErr translates the domain error taxonomy to HTTP: validation
// and conflict errors become 400, not-found 404, anything else a generic
// 500 whose cause stays in the app log only.
func respondErr(c *fiber.Ctx, err error) error {
	if e, ok := apperr.From(err); ok {
		status := fiber.StatusBadRequest
		if e.Kind == apperr.KindNotFound {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   errorBody{Code: e.Code, Message: e.Message, Details: e.Details, Context: e.Meta},
		})
	}

	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   errorBody{Code: "internal", Message: "unknown error occurred"},
	})
}

func badRequest(c *fiber.Ctx, code, message string, details ...apperr.Detail) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   errorBody{Code: code, Message: message, Details: details},
	})
}
