package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/infrastructure/sessions"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to HTTP status codes.
//   - Reports upstream dispatch failures as 502 with their error kind.
//   - Logs unexpected errors without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "not_found"}
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, errorResponse{Error: "tracking session not found"}
	case errors.Is(err, domain.ErrSnapshotMissing):
		return http.StatusNotFound, errorResponse{Error: "no location recorded for this order yet"}
	case errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict, errorResponse{Error: "order is already being tracked"}
	case errors.Is(err, domain.ErrInvalidInterval):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	case errors.Is(err, sessions.ErrManagerClosed):
		return http.StatusServiceUnavailable, errorResponse{Error: "shutting down"}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusBadGateway, errorResponse{Error: "order api credentials are not configured"}
	case domain.IsPollError(err):
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("upstream dispatch failure")
		return http.StatusBadGateway, errorResponse{Error: "dispatch api request failed", Kind: domain.ErrorKind(err)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
