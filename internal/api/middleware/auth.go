package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by Auth.
const (
	CtxSubject = "subject"
	CtxRole    = "role"
)

// Auth validates an HS256 bearer token and injects its sub and role claims
// into the context. Expired tokens are rejected.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := parser.ParseWithClaims(parts[1], claims, func(*jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims.GetSubject()
			role, _ := claims["role"].(string)
			if sub == "" || role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject or role")
			}

			c.Set(CtxSubject, sub)
			c.Set(CtxRole, role)

			return next(c)
		}
	}
}
