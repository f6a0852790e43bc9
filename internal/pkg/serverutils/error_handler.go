package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"ai-mentor-be/pkg/graph"
	"ai-mentor-be/pkg/retrieval"
)

// ErrorHandlerMiddleware maps domain errors bubbling out of handlers to
// consistent HTTP responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, message := classify(err)
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fiber.StatusBadRequest, err.Error()
	}

	switch {
	case errors.Is(err, graph.ErrUnknownNode):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, graph.ErrGeneration):
		return fiber.StatusBadGateway, err.Error()
	case errors.Is(err, retrieval.ErrRetrievalUnavailable):
		return fiber.StatusServiceUnavailable, err.Error()
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict, err.Error()
	}

	return fiber.StatusInternalServerError, err.Error()
}

var (
	// ErrNotFound marks a missing resource (session, log entry).
	ErrNotFound = errors.New("resource not found")

	// ErrConflict marks a rejected concurrent turn on the same session.
	ErrConflict = errors.New("conflicting request in progress")
)
