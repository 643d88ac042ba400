package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	er "github.com/mcorbin/corbierror"
)

func writeError(c echo.Context, logger *slog.Logger, status int, messages ...string) {
	err := c.JSON(status, er.Error{
		Messages: messages,
	})
	if err != nil {
		logger.Error(err.Error())
		c.Response().Status = http.StatusInternalServerError
	}
}

// echoErrorMessages maps the errors raised by echo itself (binding,
// validation, routing, authentication) to a status and user messages
func echoErrorMessages(echoError *echo.HTTPError) (int, []string, bool) {
	if jsonError, ok := echoError.Internal.(*json.UnmarshalTypeError); ok {
		return http.StatusBadRequest, []string{fmt.Sprintf("invalid JSON payload, field %s is incorrect", jsonError.Field)}, true
	}
	switch echoError.Code {
	case http.StatusBadRequest:
		if strings.Contains(echoError.Error(), "Field validation") {
			return http.StatusBadRequest, strings.Split(fmt.Sprintf("%+v", echoError.Message), "\n"), true
		}
	case http.StatusUnauthorized:
		return http.StatusUnauthorized, []string{"unauthorized"}, true
	case http.StatusMethodNotAllowed:
		return http.StatusMethodNotAllowed, []string{"method not allowed"}, true
	case http.StatusNotFound:
		return http.StatusNotFound, []string{"not found"}, true
	}
	return 0, nil, false
}

func errorHandler(logger *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		// can happen if ctx.Error() is called in a middleware with nil passed
		if err == nil {
			return
		}
		errLoggedMsg := err.Error() + " on " + c.Request().Method + " " + c.Request().URL.Path
		if corbiError, ok := err.(*er.Error); ok {
			if corbiError.Type == er.Forbidden || corbiError.Type == er.NotFound {
				logger.Warn(errLoggedMsg)
			} else {
				logger.Error(errLoggedMsg)
			}
			finalErr, status := er.HTTPError(*corbiError)
			if err := c.JSON(status, finalErr); err != nil {
				logger.Error(err.Error())
				c.Response().Status = http.StatusInternalServerError
			}
			return
		}
		if echoError, ok := err.(*echo.HTTPError); ok {
			if status, messages, handled := echoErrorMessages(echoError); handled {
				logger.Warn(errLoggedMsg)
				writeError(c, logger, status, messages...)
				return
			}
		}
		logger.Error(errLoggedMsg)
		writeError(c, logger, http.StatusInternalServerError, "internal server error")
	}
}
