package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"

	"github.com/segmentio/kafka-go"
)

// TelemetryMessage - формат сообщения в топике телеметрии.
type TelemetryMessage struct {
	DeviceID int                    `json:"device_id"`
	Fields   models.TelemetryUpdate `json:"fields"`
}

// MessageReader - часть kafka.Reader, нужная фиду.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaTelemetry читает обновления телеметрии из топика и передаёт их наблюдателю.
type KafkaTelemetry struct {
	reader   MessageReader
	observer interfaces.TelemetryObserver
	logger   *logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewKafkaReader создает consumer-group reader для топика телеметрии
func NewKafkaReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
	})
}

func NewKafkaTelemetry(reader MessageReader, observer interfaces.TelemetryObserver, logger *logging.Logger) *KafkaTelemetry {
	return &KafkaTelemetry{
		reader:   reader,
		observer: observer,
		logger:   logger.WithPrefix("FEED"),
	}
}

// DecodeTelemetry разбирает сообщение топика телеметрии.
func DecodeTelemetry(value []byte) (models.DeviceID, models.TelemetryUpdate, error) {
	var msg TelemetryMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return 0, nil, fmt.Errorf("decode telemetry message: %w", err)
	}
	if msg.DeviceID <= 0 {
		return 0, nil, fmt.Errorf("decode telemetry message: device_id %d: %w", msg.DeviceID, errNonPositive)
	}
	if len(msg.Fields) == 0 {
		return 0, nil, errors.New("decode telemetry message: no fields")
	}
	return models.DeviceID(msg.DeviceID), msg.Fields, nil
}

var errNonPositive = errors.New("must be positive")

// Start запускает цикл чтения в отдельной горутине.
func (f *KafkaTelemetry) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(ctx)
	}()
}

func (f *KafkaTelemetry) run(ctx context.Context) {
	f.logger.Info("Telemetry feed started")
	for {
		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				f.logger.Info("Telemetry feed stopped")
				return
			}
			f.logger.Error("Failed to read telemetry message", "error", err)
			return
		}

		id, update, err := DecodeTelemetry(msg.Value)
		if err != nil {
			f.logger.Warn("Skipping malformed telemetry message", "offset", msg.Offset, "error", err)
			continue
		}
		if err := f.observer.ObserveTelemetry(id, update); err != nil {
			f.logger.Warn("Telemetry update rejected", "device", id, "error", err)
		}
	}
}

// Stop прерывает чтение и закрывает reader.
func (f *KafkaTelemetry) Stop() error {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
	return f.reader.Close()
}
