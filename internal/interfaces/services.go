package interfaces

import (
	"context"

	"github.com/iwtcode/servoSweep/internal/domain/models"
)

// CommandChannel отправляет команды позиционирования на устройства.
// Порядок между разными устройствами не гарантируется.
type CommandChannel interface {
	Send(ctx context.Context, cmd models.Command) error
	Close() error
}

// RowSink сохраняет строки телеметрии. WriteHeader вызывается один раз до первой строки.
type RowSink interface {
	WriteHeader(ctx context.Context, columns []string) error
	AppendRow(ctx context.Context, row models.TelemetryRow) error
	Close() error
}

// TelemetryObserver принимает обновления телеметрии от внешних источников.
type TelemetryObserver interface {
	ObserveTelemetry(id models.DeviceID, update models.TelemetryUpdate) error
}
