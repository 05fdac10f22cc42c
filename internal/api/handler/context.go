package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yabalash/driver-tracker/internal/api/middleware"
)

// ctxSubject returns the caller identity injected by the Auth middleware.
// An empty subject means the route was mounted without Auth.
func ctxSubject(c echo.Context) (string, error) {
	sub, _ := c.Get(middleware.CtxSubject).(string)
	if sub == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return sub, nil
}

// orderParam reads and checks the :order_number path parameter.
func orderParam(c echo.Context) (string, error) {
	order := c.Param("order_number")
	if order == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "order_number is required")
	}
	return order, nil
}
