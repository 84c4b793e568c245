// Package web holds the fiber glue shared by every HTTP adapter.
package web

import (
	"errors"

	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Type    string      `json:"type,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// NewErrorHandler returns a fiber ErrorHandler that maps application errors to
// their status code. Unknown errors are logged and reported as a generic 500.
func NewErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return Error(c, log, err)
	}
}

// Error writes err as an ErrorResponse
func Error(c *fiber.Ctx, log logger.Logger, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Message: fe.Message})
	}

	status := apperrors.HTTPStatus(err)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && status < fiber.StatusInternalServerError {
		resp := ErrorResponse{Message: appErr.Message, Type: string(appErr.Type)}
		if v, ok := appErr.Details["validation_errors"]; ok {
			resp.Details = v
		}
		return c.Status(status).JSON(resp)
	}

	if status < fiber.StatusInternalServerError {
		return c.Status(status).JSON(ErrorResponse{Message: err.Error()})
	}

	if log != nil {
		log.WithFields(map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		}).Errorf("HTTP Error: %v", err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Message: "Internal Server Error",
		Type:    string(apperrors.ErrorTypeInternal),
	})
}

// BadRequest is returned by handlers when the body cannot be parsed
func BadRequest(message string) error {
	return apperrors.NewValidationError(message)
}
