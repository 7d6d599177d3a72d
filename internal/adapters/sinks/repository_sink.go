package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/iwtcode/servoSweep/internal/domain/entities"
	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
)

// Repository сохраняет строки в БД. Каждый заголовок открывает новый запуск.
type Repository struct {
	repo interfaces.TelemetryRepository

	mu      sync.RWMutex
	runID   string
	columns []string
}

func NewRepository(repo interfaces.TelemetryRepository) *Repository {
	return &Repository{repo: repo}
}

func (r *Repository) WriteHeader(_ context.Context, columns []string) error {
	raw, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("repository sink: marshal header: %w", err)
	}
	run := &entities.TelemetryRun{RunID: uuid.New().String(), Columns: string(raw)}
	if err := r.repo.CreateRun(run); err != nil {
		return fmt.Errorf("не удалось сохранить запуск телеметрии: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runID = run.RunID
	r.columns = append([]string(nil), columns...)
	return nil
}

// RunID возвращает идентификатор текущего запуска.
func (r *Repository) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

func (r *Repository) AppendRow(_ context.Context, row models.TelemetryRow) error {
	r.mu.RLock()
	runID, columns := r.runID, r.columns
	r.mu.RUnlock()
	if runID == "" {
		return errors.New("repository sink: header not written")
	}

	raw, err := json.Marshal(row.Record(columns))
	if err != nil {
		return fmt.Errorf("repository sink: marshal row: %w", err)
	}
	record := &entities.TelemetryRecord{
		ID:        uuid.New().String(),
		RunID:     runID,
		Timestamp: row.Timestamp,
		Values:    string(raw),
	}
	if err := r.repo.AppendRecord(record); err != nil {
		return fmt.Errorf("не удалось сохранить строку телеметрии: %w", err)
	}
	return nil
}

func (r *Repository) Close() error { return nil }
