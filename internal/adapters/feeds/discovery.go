package feeds

import (
	"context"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
)

// DiscoveryHandler принимает события обнаружения устройств.
type DiscoveryHandler interface {
	HandleDiscovery(ctx context.Context, ids []models.DeviceID) models.DiscoveryResult
}

// StaticDiscovery сообщает заранее известный набор устройств одним событием.
type StaticDiscovery struct {
	ids     []models.DeviceID
	handler DiscoveryHandler
	logger  *logging.Logger
}

func NewStaticDiscovery(ids []models.DeviceID, handler DiscoveryHandler, logger *logging.Logger) *StaticDiscovery {
	return &StaticDiscovery{ids: ids, handler: handler, logger: logger.WithPrefix("DISCOVERY")}
}

// Announce отправляет событие, если список не пуст.
func (d *StaticDiscovery) Announce(ctx context.Context) (models.DiscoveryResult, bool) {
	if len(d.ids) == 0 {
		return models.DiscoveryResult{}, false
	}
	result := d.handler.HandleDiscovery(ctx, d.ids)
	d.logger.Info("Static discovery announced",
		"ids", d.ids,
		"added", result.Added,
		"sweep_started", result.SweepStarted,
	)
	return result, true
}
