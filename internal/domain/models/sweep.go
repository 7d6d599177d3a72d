package models

import (
	"math"
	"time"
)

// DeviceID идентифицирует один сервопривод на шине.
type DeviceID int

// Имена регистров, которые участвуют в командах позиционирования.
const (
	RegTorqueSwitch   = "torque_switch"
	RegRunningSpeed   = "running_speed"
	RegAcceleration   = "acceleration"
	RegTargetPosition = "target_position"
)

// SweepPlan - полный план прогона, загружаемый из YAML.
type SweepPlan struct {
	Devices []SweepConfig `yaml:"devices"`
}

// IDs возвращает идентификаторы устройств в порядке плана.
func (p *SweepPlan) IDs() []DeviceID {
	ids := make([]DeviceID, 0, len(p.Devices))
	for _, d := range p.Devices {
		ids = append(ids, d.DeviceID)
	}
	return ids
}

// SweepConfig описывает последовательность позиций для одного устройства.
// Интервалы задаются в миллисекундах и проверяются при каждом шаге.
type SweepConfig struct {
	DeviceID     DeviceID       `yaml:"id" json:"id"`
	Positions    []int          `yaml:"positions" json:"positions"`
	IntervalsMs  []float64      `yaml:"intervals_ms" json:"intervals_ms,omitempty"`
	IntervalMs   *float64       `yaml:"interval_ms" json:"interval_ms,omitempty"`
	StartDelayMs *float64       `yaml:"start_delay_ms" json:"start_delay_ms,omitempty"`
	Speed        *int           `yaml:"speed" json:"speed,omitempty"`
	Accel        *int           `yaml:"accel" json:"accel,omitempty"`
	InitParams   map[string]int `yaml:"init_params" json:"init_params,omitempty"`
}

// InitRegisters собирает одноразовый набор регистров, отправляемый с первой командой.
func (c *SweepConfig) InitRegisters() map[string]int {
	regs := map[string]int{RegTorqueSwitch: 1}
	if c.Speed != nil {
		regs[RegRunningSpeed] = *c.Speed
	}
	if c.Accel != nil {
		regs[RegAcceleration] = *c.Accel
	}
	for k, v := range c.InitParams {
		regs[k] = v
	}
	return regs
}

// MillisToDuration переводит миллисекунды в time.Duration.
// Значения NaN, бесконечность и отрицательные считаются невалидными.
func MillisToDuration(ms float64) (time.Duration, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}

// Command - одна команда позиционирования для устройства.
type Command struct {
	DeviceID  DeviceID       `json:"device_id"`
	Registers map[string]int `json:"registers"`
	Init      bool           `json:"init"`
	IssuedAt  time.Time      `json:"issued_at"`
}

// Target возвращает целевую позицию команды.
func (c Command) Target() int {
	return c.Registers[RegTargetPosition]
}
