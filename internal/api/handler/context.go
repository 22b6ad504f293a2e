package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wekeza/investment-platform/internal/api/middleware"
)

// ctxUserID extracts the authenticated user id injected by the Auth
// middleware. Its absence means the route was wired without the middleware,
// which is a server bug surfaced as 401 rather than a panic.
func ctxUserID(c echo.Context) (int64, error) {
	id, ok := c.Get(middleware.CtxUserID).(int64)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
