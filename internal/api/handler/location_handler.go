package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// LocationHandler serves the recorded driver locations of an order. Either
// backend may be nil when its storage is not configured.
type LocationHandler struct {
	snapshots ports.SnapshotStore
	history   ports.ObservationHistory
}

func NewLocationHandler(snapshots ports.SnapshotStore, history ports.ObservationHistory) *LocationHandler {
	return &LocationHandler{snapshots: snapshots, history: history}
}

type coordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type locationResponse struct {
	Coordinates  coordinatesResponse `json:"coordinates"`
	MapsURL      string              `json:"maps_url"`
	UpdatedAt    string              `json:"updated_at,omitempty"`
	BatteryLevel *int                `json:"battery_level,omitempty"`
	DeviceType   string              `json:"device_type,omitempty"`
	Active       bool                `json:"active"`
}

type taskResponse struct {
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Address string `json:"address,omitempty"`
}

type observationResponse struct {
	OrderNumber string            `json:"order_number"`
	SessionID   string            `json:"session_id"`
	Sequence    int               `json:"sequence"`
	ObservedAt  string            `json:"observed_at"`
	FetchMs     int64             `json:"fetch_ms"`
	Outcome     string            `json:"outcome"`
	Location    *locationResponse `json:"location,omitempty"`
	Moved       *bool             `json:"moved,omitempty"`
	DistanceKm  *float64          `json:"distance_km,omitempty"`
	Tasks       []taskResponse    `json:"tasks,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// latestResponse is the stored fix plus the outcome of the newest poll. The
// fix is stale when that poll did not locate the driver.
type latestResponse struct {
	observationResponse
	LastPollOutcome string `json:"last_poll_outcome"`
	Stale           bool   `json:"stale"`
}

type historyResponse struct {
	OrderNumber  string                `json:"order_number"`
	Observations []observationResponse `json:"observations"`
	Count        int                   `json:"count"`
}

func toObservationResponse(obs domain.Observation) observationResponse {
	resp := observationResponse{
		OrderNumber: obs.OrderNumber,
		SessionID:   obs.SessionID,
		Sequence:    obs.Sequence,
		ObservedAt:  obs.ObservedAt.UTC().Format(time.RFC3339),
		FetchMs:     obs.FetchTime.Milliseconds(),
		Outcome:     string(obs.Outcome),
		Error:       obs.Error,
	}
	if loc := obs.Location; loc != nil {
		l := &locationResponse{
			Coordinates:  coordinatesResponse{Lat: loc.Coordinates.Lat, Lng: loc.Coordinates.Lng},
			MapsURL:      loc.MapsURL(),
			BatteryLevel: loc.BatteryLevel,
			DeviceType:   loc.DeviceType,
			Active:       loc.Active,
		}
		if !loc.UpdatedAt.IsZero() {
			l.UpdatedAt = loc.UpdatedAt.UTC().Format(time.RFC3339)
		}
		resp.Location = l
	}
	if m := obs.Movement; m != nil {
		moved := m.Moved
		resp.Moved = &moved
		if m.Moved {
			d := m.DistanceKm
			resp.DistanceKm = &d
		}
	}
	for _, t := range obs.Tasks {
		resp.Tasks = append(resp.Tasks, taskResponse{Kind: string(t.Kind), Status: string(t.Status), Address: t.Address})
	}
	return resp
}

// Latest handles GET /v1/orders/:order_number/location.
func (h *LocationHandler) Latest(c echo.Context) error {
	if h.snapshots == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "snapshot store is not configured")
	}
	order, err := orderParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	obs, err := h.snapshots.Latest(ctx, order)
	if err != nil {
		return err
	}

	last, err := h.snapshots.LastOutcome(ctx, order)
	switch {
	case errors.Is(err, domain.ErrSnapshotMissing):
		last = obs.Outcome
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, latestResponse{
		observationResponse: toObservationResponse(*obs),
		LastPollOutcome:     string(last),
		Stale:               last != domain.OutcomeLocated,
	})
}

// History handles GET /v1/orders/:order_number/history?limit=N.
func (h *LocationHandler) History(c echo.Context) error {
	if h.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "observation history is not configured")
	}
	order, err := orderParam(c)
	if err != nil {
		return err
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 500")
		}
		limit = n
	}

	observations, err := h.history.History(c.Request().Context(), order, limit)
	if err != nil {
		return err
	}

	resp := historyResponse{
		OrderNumber:  order,
		Observations: make([]observationResponse, 0, len(observations)),
		Count:        len(observations),
	}
	for _, obs := range observations {
		resp.Observations = append(resp.Observations, toObservationResponse(obs))
	}
	return c.JSON(http.StatusOK, resp)
}
