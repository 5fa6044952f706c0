package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/planmarket/auth-service/internal/ratelimit"
	"github.com/planmarket/auth-service/internal/service"
	"github.com/planmarket/auth-service/internal/storage"
	"github.com/planmarket/auth-service/internal/util"
)

func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(c, log, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
			return
		case isUnauthorizedTokenError(err), errors.Is(err, storage.ErrSessionNotFound):
			writeJSON(c, log, http.StatusUnauthorized, "unauthorized")
			return
		case errors.Is(err, storage.ErrEmailTaken):
			writeJSON(c, log, http.StatusConflict, storage.ErrEmailTaken.Error())
			return
		case errors.Is(err, ratelimit.ErrRateLimited):
			writeJSON(c, log, http.StatusTooManyRequests, "too many requests")
			return
		}

		var respErr util.ResponseError
		if errors.As(err, &respErr) {
			writeJSON(c, log, respErr.Status, respErr.Msg)
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			writeJSON(c, log, he.Code, fmt.Sprintf("%v", he.Message))
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		writeJSON(c, log, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(c echo.Context, log *zap.SugaredLogger, status int, reason string) {
	if err := c.JSON(status, map[string]string{"reason": reason}); err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}

// isUnauthorizedTokenError collapses every token failure kind to one
// client-visible outcome; the kinds stay distinct for logging only.
func isUnauthorizedTokenError(err error) bool {
	return errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrTokenInvalid) ||
		errors.Is(err, service.ErrTokenMalformed) ||
		errors.Is(err, service.ErrTokenRevoked)
}
