package sinks

import (
	"context"
	"errors"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
)

// Multi раздаёт строки нескольким приёмникам. Ошибка одного приёмника
// не мешает записи в остальные.
type Multi struct {
	sinks []interfaces.RowSink
}

func NewMulti(sinks ...interfaces.RowSink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) WriteHeader(ctx context.Context, columns []string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteHeader(ctx, columns); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) AppendRow(ctx context.Context, row models.TelemetryRow) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.AppendRow(ctx, row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
