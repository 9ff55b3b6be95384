package http

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/gofiber/fiber/v2"
)

const localUserID = "user_id"

// requireAccessToken accepts "Authorization: Bearer <access token>" and
// stores the subject in c.Locals(localUserID).
func (s *HTTPServer) requireAccessToken(c *fiber.Ctx) error {
	header := c.Get(common.AuthorizationHeaderName)

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return writeError(c, common.ErrorUnauthorized)
	}

	claims, err := s.tokens.VerifyAccessToken(strings.TrimSpace(token))
	if err != nil {
		return writeError(c, err)
	}

	c.Locals(localUserID, claims.UserID())
	return c.Next()
}

// requestLogger logs one line per request and feeds the HTTP metrics.
func (s *HTTPServer) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	latency := time.Since(start)

	if err != nil {
		// let the error handler set the final status before we read it
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	route := c.Route().Path

	if s.metrics != nil {
		s.metrics.ObserveRequest(c.Method(), route, status, latency)
	}

	s.logger.Info(c.UserContext(), "http request",
		"request_id", c.Locals("requestid"),
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", latency.String(),
	)

	return nil
}
