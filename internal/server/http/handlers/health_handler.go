package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// HealthHandler reports liveness together with database connectivity.
type HealthHandler struct {
	facade HealthFacade
	resp   Responder
}

func NewHealthHandler(facade HealthFacade, resp Responder) *HealthHandler {
	return &HealthHandler{facade: facade, resp: resp}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.facade.HealthCheck(c.Request.Context()); err != nil {
		h.resp.logger.Warn("health check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Database: "disconnected"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "connected"})
}
