package sinks

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iwtcode/servoSweep/internal/domain/models"
)

// CSV дописывает строки телеметрии в файл. Заголовок пишется только в пустой файл.
type CSV struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
}

func NewCSV(path string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл телеметрии %s: %w", path, err)
	}
	return &CSV{path: path, file: file, writer: csv.NewWriter(file)}, nil
}

func (c *CSV) WriteHeader(_ context.Context, columns []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := c.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", c.path, err)
	}
	if info.Size() > 0 {
		return nil
	}
	return c.writeLocked(columns)
}

func (c *CSV) AppendRow(_ context.Context, row models.TelemetryRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(row.Cells())
}

func (c *CSV) writeLocked(record []string) error {
	if err := c.writer.Write(record); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", c.path, err)
	}
	return nil
}

func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
