package entities

import "time"

// TelemetryRun - один запуск логгера телеметрии со своим заголовком.
type TelemetryRun struct {
	RunID     string    `gorm:"primaryKey;not null" json:"run_id"`
	Columns   string    `gorm:"type:text;not null" json:"columns"` // JSON-массив имён колонок
	CreatedAt time.Time `json:"created_at"`
}

// TelemetryRecord - одна сохранённая строка телеметрии.
type TelemetryRecord struct {
	ID        string    `gorm:"primaryKey;not null" json:"id"`
	RunID     string    `gorm:"index;not null" json:"run_id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	Values    string    `gorm:"type:text;not null" json:"values"` // JSON-объект колонка -> значение
	CreatedAt time.Time `json:"created_at"`
}
