package observability

import (
	"strconv"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - счётчики сервиса, зарегистрированные в переданном реестре.
type Metrics struct {
	commandsSent     *prometheus.CounterVec
	commandsFailed   *prometheus.CounterVec
	rowsWritten      prometheus.Counter
	rowsSuppressed   prometheus.Counter
	rowsFailed       prometheus.Counter
	rowsDropped      prometheus.Counter
	telemetryUpdates prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servo_commands_sent_total",
			Help: "Positioning commands accepted by the command channel.",
		}, []string{"device"}),
		commandsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servo_commands_failed_total",
			Help: "Positioning commands rejected by the command channel.",
		}, []string{"device"}),
		rowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servo_rows_written_total",
			Help: "Telemetry rows persisted by the row sink.",
		}),
		rowsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servo_rows_suppressed_total",
			Help: "Aggregator ticks without any observed field.",
		}),
		rowsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servo_rows_failed_total",
			Help: "Telemetry rows the row sink failed to persist.",
		}),
		rowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servo_rows_dropped_total",
			Help: "Telemetry rows dropped because the write queue was full.",
		}),
		telemetryUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servo_telemetry_updates_total",
			Help: "Telemetry updates accepted from feeds.",
		}),
	}

	reg.MustRegister(
		m.commandsSent,
		m.commandsFailed,
		m.rowsWritten,
		m.rowsSuppressed,
		m.rowsFailed,
		m.rowsDropped,
		m.telemetryUpdates,
	)
	return m
}

func deviceLabel(id models.DeviceID) string {
	return strconv.Itoa(int(id))
}

func (m *Metrics) CommandSent(id models.DeviceID) {
	m.commandsSent.WithLabelValues(deviceLabel(id)).Inc()
}

func (m *Metrics) CommandFailed(id models.DeviceID) {
	m.commandsFailed.WithLabelValues(deviceLabel(id)).Inc()
}

func (m *Metrics) RowWritten()      { m.rowsWritten.Inc() }
func (m *Metrics) RowSuppressed()   { m.rowsSuppressed.Inc() }
func (m *Metrics) RowFailed()       { m.rowsFailed.Inc() }
func (m *Metrics) RowDropped()      { m.rowsDropped.Inc() }
func (m *Metrics) TelemetryUpdate() { m.telemetryUpdates.Inc() }
