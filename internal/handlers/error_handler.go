package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

const internalMessage = "Internal server error"

// ErrorHandler renders every error returned by a handler or middleware as
// an Envelope. Server-side failures are logged and reported to Sentry.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return renderFiberError(c, fe)
		}
		ae = apperr.Wrap(apperr.InternalError, internalMessage, err)
	}

	status := apperr.Status(ae.Kind)
	env := dto.Envelope{Message: ae.Message, Error: string(ae.Kind), Data: ae.Data}
	switch ae.Kind {
	case apperr.StoreUnavailable, apperr.ProviderUnavailable, apperr.ProviderTimeout:
		if ae.Err != nil {
			env.Detail = ae.Err.Error()
		}
	case apperr.InternalError:
		env.Message = internalMessage
	}

	if status >= fiber.StatusInternalServerError {
		report(c, status, err)
	}
	return c.Status(status).JSON(env)
}

func renderFiberError(c *fiber.Ctx, fe *fiber.Error) error {
	env := dto.Envelope{Message: fe.Message, Error: string(apperr.KindForStatus(fe.Code))}
	if fe.Code >= fiber.StatusInternalServerError {
		report(c, fe.Code, fe)
		env.Message = internalMessage
	}
	return c.Status(fe.Code).JSON(env)
}

func report(c *fiber.Ctx, status int, err error) {
	requestID, _ := c.Locals("requestid").(string)
	slog.ErrorContext(c.UserContext(), "request failed",
		"request_id", requestID,
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"error", err.Error(),
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

// invalidBody is returned when a JSON body cannot be decoded.
func invalidBody(err error) error {
	return apperr.Wrap(apperr.InvalidInput, "Invalid request body", err)
}
