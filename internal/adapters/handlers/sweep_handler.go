package handlers

import (
	"net/http"

	"github.com/iwtcode/servoSweep/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// Discover принимает событие обнаружения устройств на шине.
func (h *Handler) Discover(c *gin.Context) {
	var req models.DiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid discovery payload")
		return
	}

	ids := make([]models.DeviceID, 0, len(req.DeviceIDs))
	for _, id := range req.DeviceIDs {
		ids = append(ids, models.DeviceID(id))
	}

	h.logger.Info("Discovery event received", "ids", ids)
	result := h.usecase.HandleDiscovery(c.Request.Context(), ids)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "result": result})
}

// GetSweepStatus возвращает состояние защёлки и планировщиков.
func (h *Handler) GetSweepStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sweep": h.usecase.GetSweepStatus()})
}
