package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	keys, values [][]byte
	err          error
	closed       bool
}

func (p *fakeProducer) Produce(_ context.Context, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaChannelPublishesCommand(t *testing.T) {
	p := &fakeProducer{}
	ch := NewKafka(p)
	cmd := models.Command{
		DeviceID:  3,
		Registers: map[string]int{models.RegTargetPosition: 2048, models.RegTorqueSwitch: 1},
		Init:      true,
		IssuedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, ch.Send(context.Background(), cmd))
	require.Len(t, p.keys, 1)
	assert.Equal(t, "3", string(p.keys[0]))

	var decoded models.Command
	require.NoError(t, json.Unmarshal(p.values[0], &decoded))
	assert.Equal(t, cmd.DeviceID, decoded.DeviceID)
	assert.Equal(t, 2048, decoded.Target())
	assert.True(t, decoded.Init)

	require.NoError(t, ch.Close())
	assert.True(t, p.closed)
}

func TestKafkaChannelWrapsError(t *testing.T) {
	cause := errors.New("broker unavailable")
	ch := NewKafka(&fakeProducer{err: cause})

	err := ch.Send(context.Background(), models.Command{DeviceID: 1, Registers: map[string]int{}})
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "device 1")
}

func TestLogChannel(t *testing.T) {
	var buf bytes.Buffer
	ch := NewLog(logging.NewLogger(&logging.Config{Enabled: true, Level: "info", Output: &buf}, "App"))

	require.NoError(t, ch.Send(context.Background(), models.Command{DeviceID: 2, Registers: map[string]int{models.RegTargetPosition: 5}}))
	assert.Contains(t, buf.String(), "device=2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ch.Send(ctx, models.Command{DeviceID: 2}), context.Canceled)
}
