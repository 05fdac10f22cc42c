package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/ports"
)

// SessionHandler starts, stops and lists tracking sessions.
type SessionHandler struct {
	sessions ports.SessionManager
	log      zerolog.Logger
}

func NewSessionHandler(sessions ports.SessionManager, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

type startSessionRequest struct {
	OrderNumber string `json:"order_number" validate:"required,numeric,max=32"`
}

type sessionResponse struct {
	ID          string       `json:"id"`
	OrderNumber string       `json:"order_number"`
	Endpoint    string       `json:"endpoint"`
	StartedAt   string       `json:"started_at"`
	Links       sessionLinks `json:"_links"`
}

type sessionLinks struct {
	Self     string `json:"self"`
	Location string `json:"location"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
	Count    int               `json:"count"`
}

func toSessionResponse(s ports.SessionInfo) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		OrderNumber: s.OrderNumber,
		Endpoint:    s.Endpoint,
		StartedAt:   s.StartedAt.UTC().Format(time.RFC3339),
		Links: sessionLinks{
			Self:     "/v1/sessions/" + s.OrderNumber,
			Location: "/v1/orders/" + s.OrderNumber + "/location",
		},
	}
}

// Start handles POST /v1/sessions.
func (h *SessionHandler) Start(c echo.Context) error {
	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	sub, err := ctxSubject(c)
	if err != nil {
		return err
	}

	info, err := h.sessions.Start(c.Request().Context(), req.OrderNumber)
	if err != nil {
		return err
	}

	h.log.Info().
		Str("order", info.OrderNumber).
		Str("session_id", info.ID).
		Str("requested_by", sub).
		Msg("tracking session started")

	return c.JSON(http.StatusCreated, toSessionResponse(*info))
}

// Stop handles DELETE /v1/sessions/:order_number.
func (h *SessionHandler) Stop(c echo.Context) error {
	order, err := orderParam(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Stop(order); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/sessions.
func (h *SessionHandler) List(c echo.Context) error {
	infos := h.sessions.List()
	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(infos)), Count: len(infos)}
	for _, s := range infos {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}
