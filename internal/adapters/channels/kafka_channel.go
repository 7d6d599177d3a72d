package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
)

// Kafka публикует команды в топик, который читает мост к шине сервоприводов.
// Ключ сообщения - идентификатор устройства, поэтому команды одного
// устройства попадают в одну партицию и сохраняют порядок.
type Kafka struct {
	producer interfaces.KafkaService
}

func NewKafka(producer interfaces.KafkaService) *Kafka {
	return &Kafka{producer: producer}
}

func (k *Kafka) Send(ctx context.Context, cmd models.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать команду для устройства %d: %w", cmd.DeviceID, err)
	}
	if err := k.producer.Produce(ctx, []byte(strconv.Itoa(int(cmd.DeviceID))), payload); err != nil {
		return fmt.Errorf("send command to device %d: %w", cmd.DeviceID, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
