package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes with a plain 200 "ok". It takes no
// dependencies on purpose: it must succeed even when the database or
// Redis is down.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
