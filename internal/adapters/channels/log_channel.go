package channels

import (
	"context"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
)

// Log - холостой канал: команды только пишутся в лог.
type Log struct {
	logger *logging.Logger
}

func NewLog(logger *logging.Logger) *Log {
	return &Log{logger: logger.WithPrefix("DRYRUN")}
}

func (l *Log) Send(ctx context.Context, cmd models.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("Command", "device", cmd.DeviceID, "registers", cmd.Registers, "init", cmd.Init)
	return nil
}

func (l *Log) Close() error { return nil }
