package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "smp/internal/errors"
)

// msgInvalidBody is returned when a request body cannot be decoded.
const msgInvalidBody = "Invalid request body"

// fail converts a service error into the HTTP error for the given surface.
func fail(err error, surface apperrors.Surface) error {
	return apperrors.MapErrorToHTTP(err, surface)
}

// bind decodes the request body into v.
func bind(c echo.Context, v interface{}, surface apperrors.Surface) error {
	if err := c.Bind(v); err != nil {
		return fail(apperrors.Validation(msgInvalidBody), surface)
	}
	return nil
}

// HTTPErrorHandler renders every error as {success: false, message}.
func HTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *apperrors.HTTPError
		var echoErr *echo.HTTPError
		switch {
		case errors.As(err, &httpErr):
		case errors.As(err, &echoErr):
			msg := http.StatusText(echoErr.Code)
			if m, ok := echoErr.Message.(string); ok {
				msg = m
			} else if echoErr.Message != nil {
				msg = fmt.Sprint(echoErr.Message)
			}
			httpErr = apperrors.NewHTTPError(echoErr.Code, msg)
		default:
			httpErr = apperrors.MapErrorToHTTP(err, apperrors.SurfaceAuthorized)
		}
		if httpErr.StatusCode >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(httpErr.StatusCode)
		} else {
			writeErr = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		if writeErr != nil {
			log.Error().Err(writeErr).Msg("write error response")
		}
	}
}
