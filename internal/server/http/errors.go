package http

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/gofiber/fiber/v2"
)

const (
	msgEmailTaken         = "Email already registered"
	msgAlreadyVerified    = "Email already verified"
	msgInvalidCode        = "Invalid verification code"
	msgUserNotFound       = "User not found"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidToken       = "Could not validate credentials"
	msgTokenExpired       = "Token has expired"
	msgMissingRefresh     = "Refresh token missing"
	msgInternal           = "Internal server error"
)

// errorStatus maps service errors to an HTTP status and a client-safe
// message. Anything unrecognised becomes a generic 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrEmailTaken):
		return fiber.StatusBadRequest, msgEmailTaken
	case errors.Is(err, common.ErrAlreadyVerified):
		return fiber.StatusBadRequest, msgAlreadyVerified
	case errors.Is(err, common.ErrInvalidCode):
		return fiber.StatusBadRequest, msgInvalidCode
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, msgUserNotFound
	case errors.Is(err, common.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized, msgTokenExpired
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenMalformed):
		return fiber.StatusUnauthorized, msgInvalidToken
	default:
		return fiber.StatusInternalServerError, msgInternal
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status, msg := errorStatus(err)
	if status == fiber.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	return c.Status(status).JSON(ErrorResponse{Detail: msg})
}

// newErrorHandler renders errors that escape handlers (unknown routes,
// recovered panics, body limits) in the same {"detail": ...} shape.
func newErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{Detail: fe.Message})
		}

		logger.Error(context.Background(), "unhandled error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: msgInternal})
	}
}
