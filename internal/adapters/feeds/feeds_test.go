package feeds

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTelemetry(t *testing.T) {
	id, update, err := DecodeTelemetry([]byte(`{"device_id":3,"fields":{"position":1024,"moving":0}}`))
	require.NoError(t, err)
	assert.Equal(t, models.DeviceID(3), id)
	assert.Equal(t, models.TelemetryUpdate{"position": 1024, "moving": 0}, update)

	cases := map[string]string{
		"bad json":      `{"device_id":`,
		"zero id":       `{"device_id":0,"fields":{"position":1}}`,
		"negative id":   `{"device_id":-2,"fields":{"position":1}}`,
		"empty fields":  `{"device_id":1,"fields":{}}`,
		"missing field": `{"device_id":1}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeTelemetry([]byte(payload))
			assert.Error(t, err)
		})
	}
}

// scriptedReader отдаёт заранее заданные сообщения, затем блокируется до отмены.
type scriptedReader struct {
	messages []kafka.Message
	closed   bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		return msg, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

type recordingObserver struct {
	mu      sync.Mutex
	updates map[models.DeviceID][]models.TelemetryUpdate
	done    chan struct{}
	want    int
	seen    int
	reject  models.DeviceID
}

func (o *recordingObserver) ObserveTelemetry(id models.DeviceID, update models.TelemetryUpdate) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen++
	if o.seen == o.want {
		close(o.done)
	}
	if id == o.reject {
		return errors.New("rejected")
	}
	o.updates[id] = append(o.updates[id], update)
	return nil
}

func TestKafkaTelemetryDeliversValidMessages(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		{Value: []byte(`{"device_id":1,"fields":{"position":10}}`)},
		{Value: []byte(`not json`)},
		{Value: []byte(`{"device_id":9,"fields":{"position":1}}`)},
		{Value: []byte(`{"device_id":2,"fields":{"speed":5}}`)},
	}}
	observer := &recordingObserver{
		updates: map[models.DeviceID][]models.TelemetryUpdate{},
		done:    make(chan struct{}),
		want:    3,
		reject:  9,
	}

	feed := NewKafkaTelemetry(reader, observer, logging.Nop())
	feed.Start(context.Background())
	<-observer.done
	require.NoError(t, feed.Stop())

	assert.True(t, reader.closed)
	assert.Equal(t, []models.TelemetryUpdate{{"position": 10}}, observer.updates[1])
	assert.Equal(t, []models.TelemetryUpdate{{"speed": 5}}, observer.updates[2])
	assert.Empty(t, observer.updates[9])
}

type fakeDiscovery struct {
	calls [][]models.DeviceID
}

func (d *fakeDiscovery) HandleDiscovery(_ context.Context, ids []models.DeviceID) models.DiscoveryResult {
	d.calls = append(d.calls, ids)
	return models.DiscoveryResult{Added: ids, SweepStarted: true}
}

func TestStaticDiscovery(t *testing.T) {
	handler := &fakeDiscovery{}

	_, announced := NewStaticDiscovery(nil, handler, logging.Nop()).Announce(context.Background())
	assert.False(t, announced)
	assert.Empty(t, handler.calls)

	result, announced := NewStaticDiscovery([]models.DeviceID{1, 2}, handler, logging.Nop()).Announce(context.Background())
	assert.True(t, announced)
	assert.True(t, result.SweepStarted)
	require.Len(t, handler.calls, 1)
	assert.Equal(t, []models.DeviceID{1, 2}, handler.calls[0])
}
