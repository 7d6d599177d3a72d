package interfaces

import (
	"github.com/iwtcode/servoSweep/internal/domain/entities"
)

// TelemetryRepository определяет контракт для сохранения телеметрии в БД
type TelemetryRepository interface {
	CreateRun(run *entities.TelemetryRun) error
	AppendRecord(record *entities.TelemetryRecord) error
	GetRecords(runID string, limit int) ([]entities.TelemetryRecord, error)
}
