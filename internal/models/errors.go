package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_FAILED"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Detail string              `json:"detail"`
	Code   string              `json:"code,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldError reports one or more problems with a single input field.
func NewFieldError(field string, messages ...string) *AppError {
	msg := "Invalid input"
	if len(messages) > 0 {
		msg = messages[0]
	}
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
		Fields:  map[string][]string{field: messages},
	}
}

// NewFieldValidationError collects per-field problems into one error.
// It returns nil when fields is empty so callers can return it unconditionally.
func NewFieldValidationError(fields map[string][]string) *AppError {
	if len(fields) == 0 {
		return nil
	}
	msg := "Invalid input"
	if len(fields) == 1 {
		for _, msgs := range fields {
			if len(msgs) > 0 {
				msg = msgs[0]
			}
		}
	}
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
		Fields:  fields,
	}
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Code:    CodeAuthentication,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HTTPStatus maps an error to the status code it should be reported with.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeAuthentication:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response.
// Internal error causes are never written to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Detail: appErr.Message,
			Code:   appErr.Code,
			Errors: appErr.Fields,
		}
	} else if status >= fiber.StatusInternalServerError {
		response = ErrorResponse{
			Detail: "Internal server error",
			Code:   CodeInternal,
		}
	} else {
		response = ErrorResponse{
			Detail: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
