package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

const timeLayout = time.RFC3339

// reqCtx derives a bounded context for database calls from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
