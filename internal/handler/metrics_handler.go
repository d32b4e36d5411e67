package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/service"
	"github.com/Larrykj/School-App-sub001/pkg/response"
)

// MetricsHandler exposes a JSON snapshot of runtime metrics.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot godoc
// @Summary Get aggregated runtime metrics
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /system/metrics [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
