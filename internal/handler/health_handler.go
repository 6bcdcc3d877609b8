package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hlmartins/invoice-agent-be/internal/config"
)

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ready",
		"version":     h.cfg.APIVersion,
		"environment": h.cfg.Environment,
		"ai_provider": h.cfg.Provider.Name,
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}
