package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quickdesk/quickdesk/internal/observability"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// ErrorHandler maps every error escaping a handler to the uniform
// response envelope. Internal detail is withheld in production mode.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"message": fiberErr.Message,
			})
		}

		domainErr := errorutil.ToDomainError(err)
		message := domainErr.Message
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("code", domainErr.Code),
				zap.Error(err))
			if production {
				message = "internal server error"
			}
		}
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

		body := fiber.Map{
			"success": false,
			"message": message,
		}
		if len(domainErr.Details) > 0 && domainErr.HTTPStatus < fiber.StatusInternalServerError {
			body["details"] = domainErr.Details
		}
		return c.Status(domainErr.HTTPStatus).JSON(body)
	}
}

// Recover converts handler panics into internal errors instead of
// dropping the connection.
func Recover(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Any("panic", r))
				err = errorutil.NewInternalError(fiber.ErrInternalServerError)
			}
		}()
		return c.Next()
	}
}

// RequestTimeout bounds each request's context. Client disconnects and
// slow handlers both surface as context cancellation downstream.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
