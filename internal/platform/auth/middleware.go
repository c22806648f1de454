package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	AdminIDKey       contextKey = "admin_id"
	AdminUsernameKey contextKey = "admin_username"
)

// RequireSession returns middleware that rejects requests without a valid
// admin session token in the Authorization header.
func RequireSession(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := svc.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, AdminIDKey, claims.Subject)
			ctx = context.WithValue(ctx, AdminUsernameKey, claims.Username)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// AdminIDFromContext returns the authenticated admin's id, or "".
func AdminIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(AdminIDKey).(string)
	return id
}

// UsernameFromContext returns the authenticated admin's username, or "".
func UsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(AdminUsernameKey).(string)
	return name
}
