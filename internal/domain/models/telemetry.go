package models

import (
	"fmt"
	"strconv"
	"time"
)

// Field - имя поля телеметрии устройства.
type Field string

const (
	FieldPosition    Field = "position"
	FieldSpeed       Field = "speed"
	FieldLoad        Field = "load"
	FieldCurrent     Field = "current"
	FieldTemperature Field = "temperature"
	FieldStatus      Field = "status"
	FieldMoving      Field = "moving"
)

// TelemetryFields - порядок полей телеметрии в строке лога.
var TelemetryFields = []Field{
	FieldPosition,
	FieldSpeed,
	FieldLoad,
	FieldCurrent,
	FieldTemperature,
	FieldStatus,
	FieldMoving,
}

// ColumnsPerDevice - целевая позиция плюс все поля телеметрии.
const ColumnsPerDevice = 8

// ParseField проверяет, что имя поля известно.
func ParseField(name string) (Field, bool) {
	for _, f := range TelemetryFields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Snapshot хранит последние наблюдённые значения. Отсутствие ключа означает,
// что значение ещё ни разу не приходило.
type Snapshot map[Field]int64

// Clone возвращает независимую копию снимка.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DeviceView - согласованное чтение состояния одного устройства.
type DeviceView struct {
	DeviceID        DeviceID   `json:"device_id"`
	Discovered      bool       `json:"discovered"`
	LastCommanded   *int       `json:"last_commanded"`
	LastCommandedAt *time.Time `json:"last_commanded_at,omitempty"`
	Telemetry       Snapshot   `json:"telemetry"`
	ObservedAt      *time.Time `json:"observed_at,omitempty"`
}

// HeaderColumns строит заголовок строки телеметрии для набора устройств.
func HeaderColumns(ids []DeviceID) []string {
	headers := make([]string, 0, 1+ColumnsPerDevice*len(ids))
	headers = append(headers, "timestamp")
	for _, id := range ids {
		headers = append(headers,
			fmt.Sprintf("target pos (%d)", id),
			fmt.Sprintf("pos (%d)", id),
			fmt.Sprintf("speed (%d)", id),
			fmt.Sprintf("load (%d)", id),
			fmt.Sprintf("current (%d)", id),
			fmt.Sprintf("temp (%d)", id),
			fmt.Sprintf("status (%d)", id),
			fmt.Sprintf("moving (%d)", id),
		)
	}
	return headers
}

// TimestampFormat - формат метки времени в строках телеметрии.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// TelemetryRow - одна строка лога. Values содержит по ColumnsPerDevice значений
// на устройство, nil означает отсутствие наблюдения.
type TelemetryRow struct {
	Timestamp time.Time
	Values    []*int64
}

// HasData сообщает, есть ли в строке хотя бы одно наблюдённое значение.
func (r TelemetryRow) HasData() bool {
	for _, v := range r.Values {
		if v != nil {
			return true
		}
	}
	return false
}

// Cells возвращает строку в текстовом виде, пустая строка - маркер отсутствия.
func (r TelemetryRow) Cells() []string {
	cells := make([]string, 0, 1+len(r.Values))
	cells = append(cells, r.Timestamp.UTC().Format(TimestampFormat))
	for _, v := range r.Values {
		if v == nil {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, strconv.FormatInt(*v, 10))
	}
	return cells
}

// Record сопоставляет значения строки с именами колонок заголовка.
func (r TelemetryRow) Record(columns []string) map[string]*int64 {
	out := make(map[string]*int64, len(r.Values))
	for i, v := range r.Values {
		if i+1 >= len(columns) {
			break
		}
		out[columns[i+1]] = v
	}
	return out
}
