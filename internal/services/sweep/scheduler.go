package sweep

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

// DefaultDwell используется, если ни один интервал устройства не валиден.
const DefaultDwell = time.Second

// Options - общие параметры для всех планировщиков.
type Options struct {
	DefaultDwell time.Duration // запасной интервал, если у устройства нет валидного
	SendTimeout  time.Duration // ограничение на одну отправку, 0 - без ограничения
}

// Scheduler ведёт одно устройство по его последовательности позиций.
// В каждый момент у устройства не больше одного ожидающего таймера
// и не больше одной команды в полёте.
type Scheduler struct {
	cfg      models.SweepConfig
	channel  interfaces.CommandChannel
	store    *state.Store
	clock    clock.Clock
	logger   *logging.Logger
	metrics  *observability.Metrics
	opts     Options
	fallback time.Duration

	mu            sync.Mutex
	ctx           context.Context
	positionIndex int
	initialized   bool
	timer         clock.Timer
	nextFireAt    time.Time
	started       bool
	stopped       bool
}

func NewScheduler(
	cfg models.SweepConfig,
	channel interfaces.CommandChannel,
	store *state.Store,
	clk clock.Clock,
	logger *logging.Logger,
	metrics *observability.Metrics,
	opts Options,
) *Scheduler {
	if opts.DefaultDwell <= 0 {
		opts.DefaultDwell = DefaultDwell
	}
	s := &Scheduler{
		cfg:     cfg,
		channel: channel,
		store:   store,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
	s.fallback = fallbackDwell(cfg, opts.DefaultDwell)
	return s
}

// fallbackDwell: первый валидный элемент intervals_ms, затем interval_ms, затем общий интервал.
func fallbackDwell(cfg models.SweepConfig, def time.Duration) time.Duration {
	for _, ms := range cfg.IntervalsMs {
		if d, ok := models.MillisToDuration(ms); ok {
			return d
		}
	}
	if cfg.IntervalMs != nil {
		if d, ok := models.MillisToDuration(*cfg.IntervalMs); ok {
			return d
		}
	}
	return def
}

func (s *Scheduler) dwellFor(index int) time.Duration {
	if n := len(s.cfg.IntervalsMs); n > 0 {
		if d, ok := models.MillisToDuration(s.cfg.IntervalsMs[index%n]); ok {
			return d
		}
	}
	return s.fallback
}

func (s *Scheduler) startDelay() time.Duration {
	if s.cfg.StartDelayMs == nil {
		return 0
	}
	if d, ok := models.MillisToDuration(*s.cfg.StartDelayMs); ok {
		return d
	}
	return s.fallback
}

// DeviceID возвращает устройство, которым управляет планировщик.
func (s *Scheduler) DeviceID() models.DeviceID { return s.cfg.DeviceID }

// Start планирует первую команду через start_delay_ms. Пустая последовательность
// позиций - ошибка конфигурации, планирование не выполняется.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.cfg.Positions) == 0 {
		return fmt.Errorf("device %d: %w", s.cfg.DeviceID, apperrors.ErrNoPositions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("device %d: %w", s.cfg.DeviceID, apperrors.ErrSweepStarted)
	}
	s.started = true
	s.ctx = ctx
	s.armLocked(s.startDelay())
	return nil
}

// armLocked ставит следующий шаг, предварительно отменяя ожидающий таймер.
func (s *Scheduler) armLocked(delay time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.stopped {
		return
	}
	if delay < 0 {
		delay = s.fallback
	}
	s.nextFireAt = s.clock.Now().Add(delay)
	s.timer = s.clock.AfterFunc(delay, s.tick)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.stopped || s.ctx.Err() != nil {
		s.timer = nil
		s.mu.Unlock()
		return
	}
	s.timer = nil
	currentIndex := s.positionIndex
	target := s.cfg.Positions[currentIndex]
	dwell := s.dwellFor(currentIndex)
	// Индекс сдвигается до отправки: неудачная команда не повторяет ту же цель.
	s.positionIndex = (currentIndex + 1) % len(s.cfg.Positions)
	withInit := !s.initialized
	ctx := s.ctx
	s.mu.Unlock()

	cmd := s.buildCommand(target, withInit)
	err := s.send(ctx, cmd)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.metrics.CommandFailed(s.cfg.DeviceID)
		s.logger.Error("Failed to update motor", "device", s.cfg.DeviceID, "target", target, "init", withInit, "error", err)
	} else {
		if withInit {
			s.initialized = true
		}
		s.store.RecordCommand(s.cfg.DeviceID, target, s.clock.Now())
		s.metrics.CommandSent(s.cfg.DeviceID)
		s.logger.Debug("Motor command sent", "device", s.cfg.DeviceID, "target", target, "index", currentIndex, "dwell", dwell)
	}
	s.armLocked(dwell)
}

func (s *Scheduler) buildCommand(target int, withInit bool) models.Command {
	regs := map[string]int{}
	if withInit {
		regs = s.cfg.InitRegisters()
	}
	regs[models.RegTargetPosition] = target
	return models.Command{
		DeviceID:  s.cfg.DeviceID,
		Registers: regs,
		Init:      withInit,
		IssuedAt:  s.clock.Now(),
	}
}

func (s *Scheduler) send(ctx context.Context, cmd models.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command channel panic: %v", r)
		}
	}()
	if s.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SendTimeout)
		defer cancel()
	}
	return s.channel.Send(ctx, cmd)
}

// Stop отменяет ожидающий шаг. Команда, уже находящаяся в полёте, завершается,
// но следующий шаг не планируется.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Status возвращает снимок состояния планировщика.
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.Lock()
	st := models.SchedulerStatus{
		DeviceID:      s.cfg.DeviceID,
		PositionIndex: s.positionIndex,
		Initialized:   s.initialized,
		Pending:       s.timer != nil,
	}
	if s.timer != nil {
		at := s.nextFireAt
		st.NextFireAt = &at
	}
	s.mu.Unlock()

	if view, ok := s.store.View(s.cfg.DeviceID); ok {
		st.LastCommanded = view.LastCommanded
		st.LastCommandedAt = view.LastCommandedAt
	}
	return st
}
