package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/storefront/order-service/internal/domain"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
)

// respondError maps service errors onto the response envelope.
func respondError(c *fiber.Ctx, err error) error {
	message := err.Error()
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	switch {
	case errors.Is(err, domain.ErrResourceNotFound):
		return sharedHTTP.NotFoundResponse(c, message)
	case errors.Is(err, domain.ErrBadRequest):
		return sharedHTTP.BadRequestResponse(c, message, nil)
	case errors.Is(err, domain.ErrDuplicateItem):
		return sharedHTTP.ConflictResponse(c, message, nil)
	case errors.Is(err, domain.ErrInvalidTransition):
		return sharedHTTP.ErrorResponse(c, fiber.StatusConflict, "INVALID_TRANSITION", message, nil)
	case errors.Is(err, domain.ErrEmptyCart):
		return sharedHTTP.ErrorResponse(c, fiber.StatusUnprocessableEntity, "EMPTY_CART", message, nil)
	case errors.Is(err, domain.ErrAccessDenied):
		return sharedHTTP.ForbiddenResponse(c, message)
	}

	log.Printf("Request failed: %s %s: %v", c.Method(), c.Path(), err)
	return sharedHTTP.InternalServerErrorResponse(c, "Internal server error", nil)
}

// ErrorHandler handles errors that escape the handlers, including fiber's own
// routing errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "ERROR"
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusBadRequest:
			code = "BAD_REQUEST"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		}
		return sharedHTTP.ErrorResponse(c, fiberErr.Code, code, fiberErr.Message, nil)
	}
	return respondError(c, err)
}
