package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	apperrors "github.com/iwtcode/servoSweep/pkg/errors"

	"github.com/gin-gonic/gin"
)

// GetDevices возвращает состояние всех известных устройств.
func (h *Handler) GetDevices(c *gin.Context) {
	devices := h.usecase.GetDevices()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"count":   len(devices),
		"devices": devices,
	})
}

// GetDevice возвращает последнее наблюдённое и скомандованное состояние устройства.
func (h *Handler) GetDevice(c *gin.Context) {
	id, err := parseDeviceID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err, "Invalid device id")
		return
	}

	device, ok := h.usecase.GetDevice(id)
	if !ok {
		h.NotFound(c, fmt.Errorf("device %d is unknown", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "device": device})
}

// PushTelemetry принимает частичное обновление телеметрии устройства.
func (h *Handler) PushTelemetry(c *gin.Context) {
	id, err := parseDeviceID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err, "Invalid device id")
		return
	}

	var update models.TelemetryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.BadRequest(c, err, "Invalid telemetry payload")
		return
	}

	if err := h.usecase.ObserveTelemetry(id, update); err != nil {
		h.AppError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Status: "ok", Message: "telemetry accepted"})
}

func parseDeviceID(raw string) (models.DeviceID, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", raw, apperrors.ErrInvalidDeviceID)
	}
	return models.DeviceID(id), nil
}
