package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is a simple liveness endpoint for load balancers.  It returns a
// plain text "ok" with HTTP 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadyCheck reports whether a dependency is usable.
type ReadyCheck func(ctx context.Context) error

// ReadyHandler runs named dependency checks for GET /readyz.
type ReadyHandler struct {
	checks map[string]ReadyCheck
}

func NewReadyHandler(checks map[string]ReadyCheck) *ReadyHandler {
	return &ReadyHandler{checks: checks}
}

// Ready returns 200 when every check passes and 503 otherwise, with the
// status of each dependency.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for n := range h.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	status := http.StatusOK
	out := make(map[string]string, len(names))
	for _, n := range names {
		if err := h.checks[n](ctx); err != nil {
			out[n] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		out[n] = "ok"
	}
	return c.JSON(status, echo.Map{"checks": out})
}
