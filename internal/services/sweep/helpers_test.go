package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
	"github.com/iwtcode/servoSweep/internal/observability"
	"github.com/iwtcode/servoSweep/internal/services/clock"
	"github.com/iwtcode/servoSweep/internal/services/state"
	"github.com/prometheus/client_golang/prometheus"
)

var errLinkDown = errors.New("link down")

// fakeChannel записывает все команды; fail решает, провалить ли n-ю отправку (с нуля).
type fakeChannel struct {
	mu   sync.Mutex
	sent []models.Command
	fail func(n int, cmd models.Command) bool
}

func (f *fakeChannel) Send(_ context.Context, cmd models.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.sent)
	f.sent = append(f.sent, cmd)
	if f.fail != nil && f.fail(n, cmd) {
		return errLinkDown
	}
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func (f *fakeChannel) commands() []models.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Command, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeChannel) targetsFor(id models.DeviceID) []int {
	var out []int
	for _, c := range f.commands() {
		if c.DeviceID == id {
			out = append(out, c.Target())
		}
	}
	return out
}

type fixture struct {
	clock   *clock.Fake
	channel *fakeChannel
	store   *state.Store
	metrics *observability.Metrics
	logger  *logging.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		clock:   clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		channel: &fakeChannel{},
		store:   state.NewStore(),
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
		logger:  logging.Nop(),
	}
}

func (f *fixture) scheduler(cfg models.SweepConfig) *Scheduler {
	return NewScheduler(cfg, f.channel, f.store, f.clock, f.logger, f.metrics, Options{DefaultDwell: time.Second})
}

func ms(v float64) *float64 { return &v }

func intp(v int) *int { return &v }
