package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	apperrors "github.com/iwtcode/servoSweep/pkg/errors"
)

type Usecase struct {
	deps Deps

	// runCtx живёт дольше любого запроса: планировщики и агрегатор
	// останавливаются только в Shutdown.
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu       sync.Mutex
	shutdown bool
}

func NewUsecase(deps Deps) *Usecase {
	ctx, cancel := context.WithCancel(context.Background())
	return &Usecase{
		deps:      deps,
		runCtx:    ctx,
		cancelRun: cancel,
	}
}

// HandleDiscovery регистрирует обнаруженные устройства, при первом событии
// запускает агрегатор и проверяет, можно ли начинать прогон.
func (u *Usecase) HandleDiscovery(_ context.Context, ids []models.DeviceID) models.DiscoveryResult {
	u.mu.Lock()
	defer u.mu.Unlock()

	valid := make([]models.DeviceID, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			u.deps.Logger.Warn("Ignoring invalid device id", "device", id, "error", apperrors.ErrInvalidDeviceID)
			continue
		}
		valid = append(valid, id)
	}

	result := models.DiscoveryResult{Added: u.deps.Store.Discover(valid)}
	if u.shutdown {
		return result
	}

	if !u.deps.Aggregator.Started() && len(u.deps.Store.Discovered()) > 0 {
		if err := u.deps.Aggregator.Start(u.runCtx, u.deps.Store.Discovered()); err != nil {
			u.deps.Logger.Error("Failed to start telemetry logging", "error", err)
		}
	}

	err := u.deps.Coordinator.MaybeStart(u.runCtx)
	var missing *apperrors.MissingDevicesError
	if errors.As(err, &missing) {
		for _, id := range missing.IDs {
			result.Missing = append(result.Missing, models.DeviceID(id))
		}
	}
	result.SweepStarted = u.deps.Coordinator.Started()
	return result
}

// ObserveTelemetry принимает частичное обновление. Неизвестное поле отклоняет
// всё обновление целиком.
func (u *Usecase) ObserveTelemetry(id models.DeviceID, update models.TelemetryUpdate) error {
	if id <= 0 {
		return fmt.Errorf("device %d: %w", id, apperrors.ErrInvalidDeviceID)
	}
	snapshot := make(models.Snapshot, len(update))
	for name, value := range update {
		field, ok := models.ParseField(name)
		if !ok {
			return fmt.Errorf("field %q: %w", name, apperrors.ErrUnknownField)
		}
		snapshot[field] = value
	}
	if len(snapshot) == 0 {
		return nil
	}
	u.deps.Store.Observe(id, snapshot, u.deps.Clock.Now())
	u.deps.Metrics.TelemetryUpdate()
	return nil
}

func (u *Usecase) GetDevices() []models.DeviceView {
	return u.deps.Store.Views()
}

func (u *Usecase) GetDevice(id models.DeviceID) (models.DeviceView, bool) {
	return u.deps.Store.View(id)
}

func (u *Usecase) GetSweepStatus() models.SweepStatus {
	return u.deps.Coordinator.Status()
}

// Shutdown останавливает планировщики, дописывает очередь строк и закрывает
// внешние каналы.
func (u *Usecase) Shutdown(ctx context.Context) error {
	u.mu.Lock()
	if u.shutdown {
		u.mu.Unlock()
		return nil
	}
	u.shutdown = true
	u.mu.Unlock()

	u.deps.Coordinator.Stop()
	u.cancelRun()

	var errs []error
	if err := u.deps.Aggregator.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop aggregator: %w", err))
	}
	if err := u.deps.Sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close row sink: %w", err))
	}
	if err := u.deps.Channel.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close command channel: %w", err))
	}
	return errors.Join(errs...)
}
