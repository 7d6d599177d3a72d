package sweep

import (
	"context"
	"errors"
	"sync"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
	"github.com/iwtcode/servoSweep/internal/observability"
	"github.com/iwtcode/servoSweep/internal/services/clock"
	"github.com/iwtcode/servoSweep/internal/services/state"
	apperrors "github.com/iwtcode/servoSweep/pkg/errors"
)

// Coordinator запускает планировщики, когда все сконфигурированные устройства
// найдены. Запуск происходит не больше одного раза за время жизни процесса.
type Coordinator struct {
	configs []models.SweepConfig
	channel interfaces.CommandChannel
	store   *state.Store
	clock   clock.Clock
	logger  *logging.Logger
	metrics *observability.Metrics
	opts    Options

	mu         sync.Mutex
	started    bool
	schedulers map[models.DeviceID]*Scheduler
	order      []models.DeviceID
}

func NewCoordinator(
	configs []models.SweepConfig,
	channel interfaces.CommandChannel,
	store *state.Store,
	clk clock.Clock,
	logger *logging.Logger,
	metrics *observability.Metrics,
	opts Options,
) *Coordinator {
	return &Coordinator{
		configs:    configs,
		channel:    channel,
		store:      store,
		clock:      clk,
		logger:     logger.WithPrefix("SWEEP"),
		metrics:    metrics,
		opts:       opts,
		schedulers: make(map[models.DeviceID]*Scheduler),
	}
}

// Configured возвращает устройства из плана в порядке плана.
func (c *Coordinator) Configured() []models.DeviceID {
	ids := make([]models.DeviceID, 0, len(c.configs))
	for _, cfg := range c.configs {
		ids = append(ids, cfg.DeviceID)
	}
	return ids
}

// Missing возвращает сконфигурированные устройства, которые ещё не обнаружены.
func (c *Coordinator) Missing() []models.DeviceID {
	var missing []models.DeviceID
	for _, cfg := range c.configs {
		if !c.store.Has(cfg.DeviceID) {
			missing = append(missing, cfg.DeviceID)
		}
	}
	return missing
}

// MaybeStart запускает по одному планировщику на конфигурацию, если все устройства
// обнаружены. Если чего-то не хватает, возвращает *MissingDevicesError и ничего
// не запускает. Повторный вызов после запуска ничего не делает.
func (c *Coordinator) MaybeStart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if missing := c.Missing(); len(missing) > 0 {
		ids := make([]int, len(missing))
		for i, id := range missing {
			ids[i] = int(id)
		}
		err := &apperrors.MissingDevicesError{IDs: ids}
		c.logger.Warn("Sweep test skipped", "expected", len(c.configs), "error", err)
		return err
	}

	c.started = true
	c.logger.Info("Starting motor sweep test", "devices", len(c.configs))

	for _, cfg := range c.configs {
		if _, exists := c.schedulers[cfg.DeviceID]; exists {
			c.logger.Warn("Duplicate sweep configuration ignored", "device", cfg.DeviceID)
			continue
		}
		s := NewScheduler(cfg, c.channel, c.store, c.clock, c.logger.WithPrefix("DEVICE"), c.metrics, c.opts)
		if err := s.Start(ctx); err != nil {
			if errors.Is(err, apperrors.ErrNoPositions) {
				c.logger.Warn("No positions configured for motor. Sweep skipped.", "device", cfg.DeviceID)
			} else {
				c.logger.Error("Failed to start sweep", "device", cfg.DeviceID, "error", err)
			}
			continue
		}
		c.schedulers[cfg.DeviceID] = s
		c.order = append(c.order, cfg.DeviceID)
	}
	return nil
}

// Started сообщает, сработала ли защёлка запуска.
func (c *Coordinator) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Scheduler возвращает планировщик устройства, если он запущен.
func (c *Coordinator) Scheduler(id models.DeviceID) (*Scheduler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.schedulers[id]
	return s, ok
}

// Status возвращает состояние всех запущенных планировщиков.
func (c *Coordinator) Status() models.SweepStatus {
	c.mu.Lock()
	schedulers := make([]*Scheduler, 0, len(c.order))
	for _, id := range c.order {
		schedulers = append(schedulers, c.schedulers[id])
	}
	started := c.started
	c.mu.Unlock()

	st := models.SweepStatus{
		Started:    started,
		Configured: c.Configured(),
		Schedulers: make([]models.SchedulerStatus, 0, len(schedulers)),
	}
	for _, s := range schedulers {
		st.Schedulers = append(st.Schedulers, s.Status())
	}
	return st
}

// Stop останавливает все планировщики. Защёлка запуска остаётся взведённой.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		c.schedulers[id].Stop()
	}
}
