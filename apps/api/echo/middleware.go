package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core/session"
)

// roleMiddleware restricts a route to the sessions whose role allows required.
func roleMiddleware(required session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role.Allows(required) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
