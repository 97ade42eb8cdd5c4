package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// sentinels to status codes and renders {"error": "<message>"}. Only store
// outages and unexpected errors are logged above Debug.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return expected(log, c, err, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return expected(log, c, err, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return expected(log, c, err, http.StatusBadRequest, domain.ErrDuplicateIdentity.Error())
	case errors.Is(err, domain.ErrForbidden):
		return expected(log, c, err, http.StatusForbidden, domain.ErrForbidden.Error())
	case errors.Is(err, domain.ErrRateLimited):
		return expected(log, c, err, http.StatusTooManyRequests, domain.ErrRateLimited.Error())
	case errors.Is(err, domain.ErrNoteNotFound):
		return expected(log, c, err, http.StatusNotFound, domain.ErrNoteNotFound.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("backing store unavailable")
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func expected(log zerolog.Logger, c echo.Context, err error, code int, msg string) (int, string) {
	log.Debug().Err(err).Int("status", code).Str("path", c.Path()).Msg("request rejected")
	return code, msg
}
