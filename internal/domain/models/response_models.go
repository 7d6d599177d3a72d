package models

import "time"

// DiscoveryRequest - набор идентификаторов, найденных на шине.
type DiscoveryRequest struct {
	DeviceIDs []int `json:"device_ids" binding:"required"`
}

// TelemetryUpdate - частичное обновление телеметрии одного устройства.
type TelemetryUpdate map[string]int64

// DiscoveryResult описывает итог обработки события обнаружения.
type DiscoveryResult struct {
	Added        []DeviceID `json:"added"`
	Missing      []DeviceID `json:"missing"`
	SweepStarted bool       `json:"sweep_started"`
}

// SchedulerStatus - состояние планировщика одного устройства.
type SchedulerStatus struct {
	DeviceID        DeviceID   `json:"device_id"`
	PositionIndex   int        `json:"position_index"`
	Initialized     bool       `json:"initialized"`
	LastCommanded   *int       `json:"last_commanded"`
	LastCommandedAt *time.Time `json:"last_commanded_at,omitempty"`
	NextFireAt      *time.Time `json:"next_fire_at,omitempty"`
	Pending         bool       `json:"pending"`
}

// SweepStatus - общее состояние прогона.
type SweepStatus struct {
	Started    bool              `json:"started"`
	Configured []DeviceID        `json:"configured"`
	Schedulers []SchedulerStatus `json:"schedulers"`
}

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    int    `json:"code" example:"404"`
		Message string `json:"message" example:"device not found"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"telemetry accepted"`
}
