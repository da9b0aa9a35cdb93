package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"orderdesk/internal/apperror"
)

func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"status":  "success",
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err in the error envelope. Internal errors are logged
// and answered with a generic message.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := apperror.CodeInternal
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = apperror.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			code = apperror.CodeValidation
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		if fiberErr.Code >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", utils.CopyString(c.Path())), zap.Error(err))
			return internalError(c)
		}
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"status":  "error",
			"message": fiberErr.Message,
			"code":    code,
		})
	}

	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		log.Error("request failed",
			zap.String("method", utils.CopyString(c.Method())),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Error(err),
		)
		return internalError(c)
	}

	body := fiber.Map{
		"status":  "error",
		"message": appErr.Message,
		"code":    appErr.Code,
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	return c.Status(StatusFor(appErr.Kind)).JSON(body)
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": "Internal server error",
		"code":    apperror.CodeInternal,
	})
}

// ErrorHandler is the Fiber error handler rendering every unhandled error
// in the error envelope.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, log, err)
	}
}
