package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/api/handler"
	"github.com/yabalash/driver-tracker/internal/api/middleware"
	"github.com/yabalash/driver-tracker/internal/core/ports"
)

// Deps are the collaborators of the control API. Snapshots, History and any
// Checks entry may be nil when the matching backend is disabled.
type Deps struct {
	Sessions  ports.SessionManager
	Snapshots ports.SnapshotStore
	History   ports.ObservationHistory
	Checks    map[string]handler.Pinger
	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := deps.Log.Info()
			if v.Error != nil {
				evt = deps.Log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Control API ---
	sessionHandler := handler.NewSessionHandler(deps.Sessions, deps.Log)
	locationHandler := handler.NewLocationHandler(deps.Snapshots, deps.History)

	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret))
	read := middleware.RBAC(middleware.RoleOperator, middleware.RoleViewer)
	write := middleware.RBAC(middleware.RoleOperator)

	v1.GET("/sessions", sessionHandler.List, read)
	v1.POST("/sessions", sessionHandler.Start, write)
	v1.DELETE("/sessions/:order_number", sessionHandler.Stop, write)
	v1.GET("/orders/:order_number/location", locationHandler.Latest, read)
	v1.GET("/orders/:order_number/history", locationHandler.History, read)

	return e
}
