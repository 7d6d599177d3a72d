package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
)

// KafkaRow - формат строки телеметрии в топике.
type KafkaRow struct {
	Timestamp time.Time         `json:"timestamp"`
	Columns   map[string]*int64 `json:"columns"`
}

// Kafka публикует каждую строку отдельным JSON-сообщением.
type Kafka struct {
	producer interfaces.KafkaService

	mu      sync.RWMutex
	columns []string
}

func NewKafka(producer interfaces.KafkaService) *Kafka {
	return &Kafka{producer: producer}
}

// WriteHeader запоминает имена колонок: в топик они уходят внутри каждой строки.
func (k *Kafka) WriteHeader(_ context.Context, columns []string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.columns = append([]string(nil), columns...)
	return nil
}

func (k *Kafka) AppendRow(ctx context.Context, row models.TelemetryRow) error {
	k.mu.RLock()
	columns := k.columns
	k.mu.RUnlock()
	if columns == nil {
		return errors.New("kafka sink: header not written")
	}

	payload, err := json.Marshal(KafkaRow{Timestamp: row.Timestamp, Columns: row.Record(columns)})
	if err != nil {
		return fmt.Errorf("kafka sink: marshal row: %w", err)
	}
	return k.producer.Produce(ctx, nil, payload)
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
