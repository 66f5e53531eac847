package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsGenerated сгенерированные записи
	RecordsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_records_generated_total",
			Help: "Total number of telemetry records generated",
		},
		[]string{"device_id"},
	)

	// SpikesInjected выбросы, добавленные генератором
	SpikesInjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_spikes_injected_total",
			Help: "Total number of device temperature spikes injected",
		},
		[]string{"device_id"},
	)

	// AnomaliesDetected аномалии, найденные по z-score
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_anomalies_detected_total",
			Help: "Total number of anomalies detected in the generated series",
		},
		[]string{"type", "device_id"},
	)

	// SinkWrites операции записи в sink
	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_sink_writes_total",
			Help: "Total number of sink write operations",
		},
		[]string{"sink", "status"},
	)

	// LastTemperature последнее значение температуры
	LastTemperature = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telemetry_last_temperature_celsius",
			Help: "Last generated temperature",
		},
		[]string{"device_id", "kind"},
	)

	// RollingAverage текущее скользящее среднее температуры устройства
	RollingAverage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telemetry_rolling_average_celsius",
			Help: "Current rolling average of device temperature",
		},
		[]string{"device_id"},
	)

	// GenerationDuration длительность полного прогона
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_generation_duration_seconds",
			Help:    "Wall time of a full generation run",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// WriteTextfile сохраняет метрики в формате textfile collector
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
