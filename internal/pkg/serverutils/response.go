// FILE: internal/pkg/serverutils/response.go
package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"plugin-billing-be/internal/pkg/apperrors"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type APIError struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) APIError {
	return APIError{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// WriteError maps the service error taxonomy onto HTTP statuses so
// controllers stay thin.
func WriteError(ctx *fiber.Ctx, err error) error {
	switch {
	case apperrors.IsNotFound(err):
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
	case apperrors.IsValidation(err):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(fiber.StatusUnprocessableEntity, err.Error()))
	case apperrors.IsPayment(err):
		return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, err.Error()))
	case errors.Is(err, apperrors.ErrStaleUpdate):
		return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, err.Error()))
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
