package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/refcue/internal/common"
)

// FieldError is one failed field in an error response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// statusFor maps an error onto an HTTP status and response code.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, "HTTP_ERROR"
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, common.ErrReferentialIntegrity), errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, common.ErrAuth):
		return fiber.StatusUnauthorized, "AUTH_ERROR"
	case errors.Is(err, common.ErrRemote):
		return fiber.StatusBadGateway, "REMOTE_ERROR"
	case errors.Is(err, common.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, common.ErrIngest):
		return fiber.StatusInternalServerError, "INGEST_ERROR"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

func errorBody(err error) (int, ErrorResponse) {
	status, code := statusFor(err)
	body := ErrorResponse{Error: code, Message: err.Error()}

	var fe *fiber.Error
	var appErr *common.AppError
	var verrs common.ValidationErrors
	switch {
	case errors.As(err, &fe):
		body.Message = fe.Message
	case errors.As(err, &verrs):
		body.Message = common.ErrValidation.Error()
		for _, v := range verrs {
			body.Fields = append(body.Fields, FieldError{Field: v.Field, Message: v.Message})
		}
	case status >= fiber.StatusInternalServerError && code != "INGEST_ERROR":
		// driver and mailbox details stay in the log
		body.Message = "internal server error"
		if status == fiber.StatusBadGateway {
			body.Message = common.ErrRemote.Error()
		}
	case errors.As(err, &appErr):
		body.Message = appErr.Message
	}
	return status, body
}

// ErrorHandler renders errors returned by handlers as ErrorResponse JSON.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := errorBody(err)
		if status >= fiber.StatusInternalServerError {
			common.LoggerFromContext(c.UserContext(), logger).Error("request failed",
				"method", c.Method(), "path", c.Path(), "status", status, "error", err)
		}
		return c.Status(status).JSON(body)
	}
}
