package apperror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// response is the wire shape of every error the API returns.
type response struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// EchoHTTPErrorHandler returns an echo error handler that serializes
// taxonomy errors with their stable code and hides everything else behind
// a generic internal error. Internal causes are logged, not returned.
func EchoHTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *Error
		if errors.As(err, &appErr) {
			if appErr.Code == CodeInternal {
				logger.Error().Err(err).Str("path", c.Path()).Msg("internal error")
				_ = c.JSON(http.StatusInternalServerError, response{Code: CodeInternal, Message: "internal error"})
				return
			}
			_ = c.JSON(HTTPStatus(appErr.Code), response{Code: appErr.Code, Message: appErr.Message})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			msg, ok := httpErr.Message.(string)
			if !ok {
				msg = http.StatusText(httpErr.Code)
			}
			code := CodeValidation
			switch httpErr.Code {
			case http.StatusNotFound:
				code = CodeNotFound
			case http.StatusForbidden:
				code = CodeForbidden
			case http.StatusUnauthorized:
				code = CodeForbidden
			case http.StatusInternalServerError:
				code = CodeInternal
			}
			_ = c.JSON(httpErr.Code, response{Code: code, Message: msg})
			return
		}

		logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		_ = c.JSON(http.StatusInternalServerError, response{Code: CodeInternal, Message: "internal error"})
	}
}
