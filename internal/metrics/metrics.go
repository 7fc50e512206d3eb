// Package metrics holds the Prometheus collectors of the fan controller service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// serial session
	SessionConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dtfan_session_connected",
		Help: "1 while a serial session is connected",
	})

	SessionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtfan_session_failures_total",
		Help: "Serial sessions that ended with an error",
	}, []string{"kind"})

	PortOpenFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtfan_port_open_failures_total",
		Help: "Failed attempts to open the serial port",
	}, []string{"kind"})

	TelemetryLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dtfan_telemetry_lines_total",
		Help: "Telemetry lines parsed successfully",
	})

	MalformedLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dtfan_malformed_lines_total",
		Help: "Telemetry lines that could not be parsed",
	})

	CommandsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dtfan_commands_sent_total",
		Help: "Curve commands written to the controller",
	})

	// latest sample
	WaterTemperature = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dtfan_water_temperature_celsius",
		Help: "Coolant temperature of the latest sample",
	})

	AmbientTemperature = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dtfan_ambient_temperature_celsius",
		Help: "Ambient temperature of the latest sample",
	})

	FanDuty = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dtfan_fan_duty_percent",
		Help: "Fan duty reported by the controller",
	})

	// publisher
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dtfan_publish_failures_total",
		Help: "Samples that could not be published to MQTT",
	})

	PublishDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dtfan_publish_dropped_total",
		Help: "Samples dropped because the publish queue was full",
	})
)
