package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/project-idol/internal/chat"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ErrorHandlingMiddleware maps chat errors to HTTP statuses.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			if _, ok := err.(*echo.HTTPError); ok {
				return err
			}

			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				slog.Error("request failed",
					"path", c.Request().URL.Path,
					"method", c.Request().Method,
					"status", status,
					"error", err.Error(),
				)
			}

			if err := c.JSON(status, errorResponse{Error: err.Error()}); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
