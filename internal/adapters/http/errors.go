package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int                 `json:"status"`
	Code      string              `json:"code"`    // Error code: bad_request, validation_error, not_found, etc.
	Message   string              `json:"message"` // Human-readable message
	RequestID string              `json:"request_id,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"` // keyed by field or non_field_errors
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

func requestID(c *fiber.Ctx) string {
	reqID, _ := c.Locals("requestid").(string)
	return reqID
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errValidation returns a 400 error carrying every violation by key.
func errValidation(c *fiber.Ctx, ve domain.ValidationErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(APIError{
		Status:    fiber.StatusBadRequest,
		Code:      "validation_error",
		Message:   "invalid input",
		RequestID: requestID(c),
		Errors:    ve.ByKey(),
	})
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errRateLimited returns a 429 error.
func errRateLimited(c *fiber.Ctx) error {
	return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// writeError maps a service error onto the matching response.
func writeError(c *fiber.Ctx, err error) error {
	if ve, ok := domain.AsValidationErrors(err); ok {
		return errValidation(c, ve)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "not found")
	case errors.Is(err, domain.ErrInvalidFilter):
		return errBadRequest(c, err.Error())
	}
	logging.FromContext(c.UserContext()).Error("request failed", "error", err)
	return errInternal(c, "internal server error")
}
