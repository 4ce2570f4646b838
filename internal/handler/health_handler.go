package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	driver string
}

// NewHealthHandler creates a health handler reporting the store driver in use.
func NewHealthHandler(driver string) *HealthHandler {
	return &HealthHandler{driver: driver}
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Health reports that the process is serving requests.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Store: h.driver})
}
