package interfaces

import (
	"context"

	"github.com/iwtcode/servoSweep/internal/domain/models"
)

// Usecases - это агрегирующий интерфейс для всех use cases
type Usecases interface {
	TelemetryObserver
	HandleDiscovery(ctx context.Context, ids []models.DeviceID) models.DiscoveryResult
	GetDevices() []models.DeviceView
	GetDevice(id models.DeviceID) (models.DeviceView, bool)
	GetSweepStatus() models.SweepStatus
	Shutdown(ctx context.Context) error
}
