package usecases

import (
	"github.com/iwtcode/servoSweep/internal/interfaces"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
	"github.com/iwtcode/servoSweep/internal/observability"
	"github.com/iwtcode/servoSweep/internal/services/clock"
	"github.com/iwtcode/servoSweep/internal/services/state"
	"github.com/iwtcode/servoSweep/internal/services/sweep"
	"github.com/iwtcode/servoSweep/internal/services/telemetry"
)

// Deps - зависимости use case прогона
type Deps struct {
	Store       *state.Store
	Coordinator *sweep.Coordinator
	Aggregator  *telemetry.Aggregator
	Channel     interfaces.CommandChannel
	Sink        interfaces.RowSink
	Clock       clock.Clock
	Metrics     *observability.Metrics
	Logger      *logging.Logger
}

// NewUsecases - конструктор для Usecases
func NewUsecases(deps Deps) interfaces.Usecases {
	return NewUsecase(deps)
}
