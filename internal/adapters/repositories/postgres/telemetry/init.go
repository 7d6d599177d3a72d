package telemetry

import (
	"github.com/iwtcode/servoSweep/internal/interfaces"
	"gorm.io/gorm"
)

type TelemetryRepositoryImpl struct {
	db *gorm.DB
}

func NewTelemetryRepository(db *gorm.DB) interfaces.TelemetryRepository {
	return &TelemetryRepositoryImpl{db: db}
}
