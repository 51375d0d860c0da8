package middleware

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/restaurant-reservation/internal/dto"
	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as dto.ErrorResponse. Errors that are not
// *echo.HTTPError become a generic 500 so internals never reach the client.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := dto.ErrorResponse{Message: "internal server error"}

		var he *echo.HTTPError
		var verrs ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			switch m := he.Message.(type) {
			case string:
				body.Message = m
			case dto.ErrorResponse:
				body = m
			default:
				body.Message = http.StatusText(code)
			}
		case errors.As(err, &verrs):
			code = http.StatusBadRequest
			body = verrs.Response()
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", code,
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}
