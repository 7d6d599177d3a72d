package telemetry

import (
	"github.com/iwtcode/servoSweep/internal/domain/entities"
)

func (r *TelemetryRepositoryImpl) CreateRun(run *entities.TelemetryRun) error {
	return r.db.Create(run).Error
}

func (r *TelemetryRepositoryImpl) AppendRecord(record *entities.TelemetryRecord) error {
	return r.db.Create(record).Error
}

// GetRecords возвращает строки запуска в порядке записи
func (r *TelemetryRepositoryImpl) GetRecords(runID string, limit int) ([]entities.TelemetryRecord, error) {
	var records []entities.TelemetryRecord
	query := r.db.Where("run_id = ?", runID).Order("timestamp ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
