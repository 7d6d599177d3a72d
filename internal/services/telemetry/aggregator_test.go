package telemetry

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
	apperrors "github.com/iwtcode/servoSweep/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu         sync.Mutex
	headers    [][]string
	rows       []models.TelemetryRow
	headerErrs int
	rowErr     error
	entered    chan struct{}
	release    chan struct{}
}

func (s *recordingSink) WriteHeader(_ context.Context, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headerErrs > 0 {
		s.headerErrs--
		return errors.New("disk full")
	}
	s.headers = append(s.headers, columns)
	return nil
}

func (s *recordingSink) AppendRow(_ context.Context, row models.TelemetryRow) error {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rowErr != nil {
		return s.rowErr
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) snapshot() ([][]string, []models.TelemetryRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.headers...), append([]models.TelemetryRow(nil), s.rows...)
}

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newAggregator(store *state.Store, sink *recordingSink, clk *clock.Fake, queue int) *Aggregator {
	return NewAggregator(store, sink, clk, logging.Nop(), observability.NewMetrics(prometheus.NewRegistry()), 100*time.Millisecond, queue)
}

func stop(t *testing.T, a *Aggregator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))
}

func TestHeaderWrittenOnceBeforeRows(t *testing.T) {
	store := state.NewStore()
	ids := []models.DeviceID{1, 2, 3}
	store.Discover(ids)
	store.Observe(2, models.Snapshot{models.FieldPosition: 10}, t0)

	clk := clock.NewFake(t0)
	sink := &recordingSink{}
	a := newAggregator(store, sink, clk, 0)
	require.NoError(t, a.Start(context.Background(), ids))

	clk.Advance(300 * time.Millisecond)
	stop(t, a)

	headers, rows := sink.snapshot()
	require.Len(t, headers, 1)
	assert.Len(t, headers[0], 1+8*len(ids))
	assert.Equal(t, "timestamp", headers[0][0])
	assert.Equal(t, "target pos (1)", headers[0][1])
	assert.Equal(t, "pos (1)", headers[0][2])
	assert.Equal(t, "moving (3)", headers[0][24])
	assert.Len(t, rows, 3)
	for _, row := range rows {
		assert.Len(t, row.Values, 8*len(ids))
	}
}

func TestRowWithOnlyCommandedTarget(t *testing.T) {
	store := state.NewStore()
	ids := []models.DeviceID{1, 2}
	store.Discover(ids)
	store.RecordCommand(1, 5, t0)

	clk := clock.NewFake(t0)
	sink := &recordingSink{}
	a := newAggregator(store, sink, clk, 0)
	require.NoError(t, a.Start(context.Background(), ids))

	clk.Advance(100 * time.Millisecond)
	stop(t, a)

	_, rows := sink.snapshot()
	require.Len(t, rows, 1)
	cells := rows[0].Cells()
	require.Len(t, cells, 17)
	assert.Equal(t, "2024-03-01T10:00:00.100Z", cells[0])
	assert.Equal(t, "5", cells[1])
	for i, cell := range cells[2:] {
		assert.Empty(t, cell, "column %d", i+2)
	}
}

func TestRowSuppressedWithoutData(t *testing.T) {
	store := state.NewStore()
	ids := []models.DeviceID{1, 2}
	store.Discover(ids)

	clk := clock.NewFake(t0)
	sink := &recordingSink{}
	a := newAggregator(store, sink, clk, 0)
	require.NoError(t, a.Start(context.Background(), ids))

	clk.Advance(500 * time.Millisecond)
	stop(t, a)

	headers, rows := sink.snapshot()
	assert.Len(t, headers, 1)
	assert.Empty(t, rows)
}

func TestZeroIsPresent(t *testing.T) {
	store := state.NewStore()
	store.Discover([]models.DeviceID{1})
	store.Observe(1, models.Snapshot{models.FieldMoving: 0}, t0)

	row := BuildRow(t0, []models.DeviceID{1}, store)
	assert.True(t, row.HasData())
	assert.Equal(t, []string{"2024-03-01T10:00:00.000Z", "", "", "", "", "", "", "", "0"}, row.Cells())
}

func TestBuildRowFieldOrder(t *testing.T) {
	store := state.NewStore()
	store.Discover([]models.DeviceID{7})
	store.RecordCommand(7, 3000, t0)
	store.Observe(7, models.Snapshot{
		models.FieldPosition:    2990,
		models.FieldSpeed:       120,
		models.FieldLoad:        -15,
		models.FieldCurrent:     40,
		models.FieldTemperature: 33,
		models.FieldStatus:      0,
		models.FieldMoving:      1,
	}, t0)

	row := BuildRow(t0, []models.DeviceID{7}, store)
	assert.Equal(t, []string{"2024-03-01T10:00:00.000Z", "3000", "2990", "120", "-15", "40", "33", "0", "1"}, row.Cells())
}

func TestBuildRowUnknownDevice(t *testing.T) {
	row := BuildRow(t0, []models.DeviceID{42}, state.NewStore())
	assert.False(t, row.HasData())
	assert.Len(t, row.Values, 8)
}

func TestFixedCadenceIndependentOfStore(t *testing.T) {
	store := state.NewStore()
	ids := []models.DeviceID{1}
	store.Discover(ids)
	store.Observe(1, models.Snapshot{models.FieldSpeed: 1}, t0)

	clk := clock.NewFake(t0)
	sink := &recordingSink{}
	a := newAggregator(store, sink, clk, 0)
	require.NoError(t, a.Start(context.Background(), ids))

	clk.Advance(50 * time.Millisecond)
	clk.Advance(50 * time.Millisecond)
	clk.Advance(250 * time.Millisecond)
	stop(t, a)

	_, rows := sink.snapshot()
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, t0.Add(time.Duration(i+1)*100*time.Millisecond), row.Timestamp)
	}
}

func TestSlowSinkDoesNotDelayTicks(t *testing.T) {
	store := state.NewStore()
	ids := []models.DeviceID{1}
	store.Discover(ids)
	store.Observe(1, models.Snapshot{models.FieldPosition: 1}, t0)

	clk := clock.NewFake(t0)
	sink := &recordingSink{entered: make(chan struct{}), release: make(chan struct{})}
	a := newAggregator(store, sink, clk, 2)
	require.NoError(t, a.Start(context.Background(), ids))

	clk.Advance(100 * time.Millisecond)
	<-sink.entered

	// первая строка зависла в записи: два такта встают в очередь, три отбрасываются
	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, clk.Pending(), "next tick is still armed")

	go func() {
		for range sink.entered {
		}
	}()
	close(sink.release)
	stop(t, a)
	close(sink.entered)

	_, rows := sink.snapshot()
	assert.Len(t, rows, 3)
}

func TestWriteFailureDoesNotStopTicks(t *testing.T) {
	store := state.NewStore()
	ids := []models.DeviceID{1}
	store.Discover(ids)
	store.Observe(1, models.Snapshot{models.FieldPosition: 1}, t0)

	clk := clock.NewFake(t0)
	sink := &recordingSink{rowErr: errors.New("io error")}
	a := newAggregator(store, sink, clk, 0)
	require.NoError(t, a.Start(context.Background(), ids))

	clk.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, clk.Pending())
	stop(t, a)
}

func TestHeaderRetriedBeforeFirstRow(t *testing.T) {
	store := state.NewStore()
	ids := []models.DeviceID{1}
	store.Discover(ids)
	store.Observe(1, models.Snapshot{models.FieldPosition: 1}, t0)

	clk := clock.NewFake(t0)
	sink := &recordingSink{headerErrs: 2}
	a := newAggregator(store, sink, clk, 0)
	require.NoError(t, a.Start(context.Background(), ids))

	// попытка при старте и перед первой строкой проваливаются, третья проходит
	clk.Advance(300 * time.Millisecond)
	stop(t, a)

	headers, rows := sink.snapshot()
	assert.Len(t, headers, 1)
	assert.Len(t, rows, 2)
}

func TestStartIsLatched(t *testing.T) {
	store := state.NewStore()
	clk := clock.NewFake(t0)
	sink := &recordingSink{}
	a := newAggregator(store, sink, clk, 0)

	require.NoError(t, a.Start(context.Background(), []models.DeviceID{1}))
	err := a.Start(context.Background(), []models.DeviceID{1, 2})
	require.ErrorIs(t, err, apperrors.ErrAlreadyStarted)
	assert.Len(t, a.Header(), 9)
	assert.True(t, a.Started())
	stop(t, a)
	assert.Zero(t, clk.Pending())
}

func TestStopWithoutStart(t *testing.T) {
	a := newAggregator(state.NewStore(), &recordingSink{}, clock.NewFake(t0), 0)
	assert.NoError(t, a.Stop(context.Background()))
}
