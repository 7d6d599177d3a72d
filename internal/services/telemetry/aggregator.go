package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
	"github.com/iwtcode/servoSweep/internal/observability"
	"github.com/iwtcode/servoSweep/internal/services/clock"
	"github.com/iwtcode/servoSweep/internal/services/state"
	apperrors "github.com/iwtcode/servoSweep/pkg/errors"
)

const (
	DefaultInterval  = 100 * time.Millisecond
	DefaultQueueSize = 64
)

// Aggregator раз в интервал собирает последнее состояние всех устройств в одну
// строку и передаёт её в RowSink. Запись идёт в отдельной горутине, поэтому
// медленный RowSink не сдвигает и не пропускает такты.
type Aggregator struct {
	store     *state.Store
	sink      interfaces.RowSink
	clock     clock.Clock
	logger    *logging.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	queueSize int

	mu      sync.Mutex
	started bool
	stopped bool
	ids     []models.DeviceID
	header  []string
	queue   chan models.TelemetryRow
	timer   clock.Timer
	next    time.Time
	done    chan struct{}
}

func NewAggregator(
	store *state.Store,
	sink interfaces.RowSink,
	clk clock.Clock,
	logger *logging.Logger,
	metrics *observability.Metrics,
	interval time.Duration,
	queueSize int,
) *Aggregator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Aggregator{
		store:     store,
		sink:      sink,
		clock:     clk,
		logger:    logger.WithPrefix("TELEMETRY"),
		metrics:   metrics,
		interval:  interval,
		queueSize: queueSize,
	}
}

// Start фиксирует набор устройств и заголовок и запускает такты.
// Повторный запуск невозможен.
func (a *Aggregator) Start(ctx context.Context, ids []models.DeviceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return fmt.Errorf("telemetry aggregator: %w", apperrors.ErrAlreadyStarted)
	}
	a.started = true
	a.ids = append([]models.DeviceID(nil), ids...)
	a.header = models.HeaderColumns(a.ids)
	a.queue = make(chan models.TelemetryRow, a.queueSize)
	a.done = make(chan struct{})

	go a.runWriter(context.WithoutCancel(ctx))

	a.next = a.clock.Now().Add(a.interval)
	a.timer = a.clock.AfterFunc(a.interval, a.tick)
	a.logger.Info("Telemetry logging started", "devices", len(a.ids), "interval", a.interval)
	return nil
}

// Header возвращает заголовок, зафиксированный при запуске.
func (a *Aggregator) Header() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.header...)
}

// Started сообщает, запущен ли агрегатор.
func (a *Aggregator) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

func (a *Aggregator) tick() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	ids := a.ids
	a.mu.Unlock()

	row := BuildRow(a.clock.Now(), ids, a.store)
	if row.HasData() {
		a.enqueue(row)
	} else {
		a.metrics.RowSuppressed()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.next = a.next.Add(a.interval)
	delay := a.next.Sub(a.clock.Now())
	if delay < 0 {
		delay = 0
	}
	a.timer = a.clock.AfterFunc(delay, a.tick)
}

func (a *Aggregator) enqueue(row models.TelemetryRow) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	select {
	case a.queue <- row:
	default:
		a.metrics.RowDropped()
		a.logger.Warn("Telemetry row dropped, writer is behind", "queue", a.queueSize)
	}
}

func (a *Aggregator) runWriter(ctx context.Context) {
	defer close(a.done)

	headerWritten := a.writeHeader(ctx)
	for row := range a.queue {
		if !headerWritten {
			if headerWritten = a.writeHeader(ctx); !headerWritten {
				a.metrics.RowFailed()
				continue
			}
		}
		if err := a.sink.AppendRow(ctx, row); err != nil {
			a.metrics.RowFailed()
			a.logger.Error("Telemetry log write failed", "error", err)
			continue
		}
		a.metrics.RowWritten()
	}
}

func (a *Aggregator) writeHeader(ctx context.Context) bool {
	if err := a.sink.WriteHeader(ctx, a.header); err != nil {
		a.logger.Error("Telemetry header write failed", "error", err)
		return false
	}
	return true
}

// Stop останавливает такты и дожидается записи строк из очереди.
func (a *Aggregator) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started || a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
	close(a.queue)
	done := a.done
	a.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BuildRow собирает строку телеметрии в порядке ids. Отсутствующие значения
// остаются nil; ноль считается наблюдённым значением.
func BuildRow(ts time.Time, ids []models.DeviceID, store *state.Store) models.TelemetryRow {
	row := models.TelemetryRow{
		Timestamp: ts.UTC(),
		Values:    make([]*int64, 0, models.ColumnsPerDevice*len(ids)),
	}
	for _, id := range ids {
		view, _ := store.View(id)

		var target *int64
		if view.LastCommanded != nil {
			v := int64(*view.LastCommanded)
			target = &v
		}
		row.Values = append(row.Values, target)

		for _, field := range models.TelemetryFields {
			if v, ok := view.Telemetry[field]; ok {
				val := v
				row.Values = append(row.Values, &val)
			} else {
				row.Values = append(row.Values, nil)
			}
		}
	}
	return row
}
