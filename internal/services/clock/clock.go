// Package clock отделяет планировщики от реального времени.
package clock

import "time"

// Timer - отложенный вызов, который можно отменить.
type Timer interface {
	// Stop отменяет вызов. Возвращает false, если вызов уже произошёл или был отменён.
	Stop() bool
}

// Clock выдаёт текущее время и планирует отложенные вызовы.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real возвращает часы на основе пакета time. Каждый вызов AfterFunc
// выполняется в собственной горутине.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
