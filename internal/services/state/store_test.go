package state

import (
	"sync"
	"testing"
	"time"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverKeepsFirstDiscoveryOrder(t *testing.T) {
	s := NewStore()

	added := s.Discover([]models.DeviceID{3, 1})
	assert.Equal(t, []models.DeviceID{3, 1}, added)

	added = s.Discover([]models.DeviceID{1, 2, 3})
	assert.Equal(t, []models.DeviceID{2}, added)

	assert.Equal(t, []models.DeviceID{3, 1, 2}, s.Discovered())
	assert.True(t, s.Has(2))
	assert.False(t, s.Has(4))
}

func TestObserveMergesSnapshot(t *testing.T) {
	s := NewStore()
	s.Discover([]models.DeviceID{1})
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s.Observe(1, models.Snapshot{models.FieldPosition: 2048, models.FieldLoad: 0}, at)
	s.Observe(1, models.Snapshot{models.FieldPosition: 2050}, at.Add(time.Second))

	view, ok := s.View(1)
	require.True(t, ok)
	assert.Equal(t, int64(2050), view.Telemetry[models.FieldPosition])
	load, present := view.Telemetry[models.FieldLoad]
	assert.True(t, present, "zero is an observed value")
	assert.Zero(t, load)
	_, present = view.Telemetry[models.FieldSpeed]
	assert.False(t, present)
	require.NotNil(t, view.ObservedAt)
	assert.Equal(t, at.Add(time.Second), *view.ObservedAt)
	assert.Nil(t, view.LastCommanded)
}

func TestObserveUndiscoveredDevice(t *testing.T) {
	s := NewStore()
	s.Observe(9, models.Snapshot{models.FieldTemperature: 31}, time.Now())

	assert.False(t, s.Has(9))
	assert.Empty(t, s.Discovered())
	view, ok := s.View(9)
	require.True(t, ok)
	assert.False(t, view.Discovered)

	s.Discover([]models.DeviceID{9})
	view, _ = s.View(9)
	assert.True(t, view.Discovered)
	assert.Equal(t, int64(31), view.Telemetry[models.FieldTemperature])
}

func TestRecordCommand(t *testing.T) {
	s := NewStore()
	s.Discover([]models.DeviceID{1})
	at := time.Now()

	s.RecordCommand(1, 5, at)

	view, _ := s.View(1)
	require.NotNil(t, view.LastCommanded)
	assert.Equal(t, 5, *view.LastCommanded)
	assert.Equal(t, at, *view.LastCommandedAt)
}

func TestViewReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Observe(1, models.Snapshot{models.FieldSpeed: 10}, time.Now())

	view, _ := s.View(1)
	view.Telemetry[models.FieldSpeed] = 99

	again, _ := s.View(1)
	assert.Equal(t, int64(10), again.Telemetry[models.FieldSpeed])
}

func TestConcurrentWritersPerField(t *testing.T) {
	s := NewStore()
	ids := []models.DeviceID{1, 2, 3, 4}
	s.Discover(ids)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id models.DeviceID) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.RecordCommand(id, i, time.Now())
			}
		}(id)
		go func(id models.DeviceID) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Observe(id, models.Snapshot{models.FieldPosition: int64(i)}, time.Now())
			}
		}(id)
	}
	for i := 0; i < 50; i++ {
		_ = s.Views()
	}
	wg.Wait()

	for _, view := range s.Views() {
		require.NotNil(t, view.LastCommanded)
		assert.Equal(t, 199, *view.LastCommanded)
		assert.Equal(t, int64(199), view.Telemetry[models.FieldPosition])
	}
}
