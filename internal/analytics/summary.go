package analytics

import (
	"time"

	"telemetry-gen/internal/metrics"
	"telemetry-gen/internal/models"
)

// RunSummary sink, который считает итоги прогона и обновляет метрики
type RunSummary struct {
	analyzer   *Analyzer
	aggregator *Aggregator

	Records      int
	Spikes       int
	Anomalies    int
	DetectedHits int
	First        time.Time
	Last         time.Time
}

// NewRunSummary создает сводку с окном z-score и разрешением агрегации
func NewRunSummary(windowSize int, threshold float64, resolution time.Duration) *RunSummary {
	return &RunSummary{
		analyzer:   NewAnalyzer(windowSize, threshold),
		aggregator: NewAggregator(resolution),
	}
}

// Write учитывает запись
func (s *RunSummary) Write(rec models.TelemetryRecord) error {
	if s.Records == 0 {
		s.First = rec.Timestamp
	}
	s.Last = rec.Timestamp
	s.Records++

	metrics.RecordsGenerated.WithLabelValues(rec.DeviceID).Inc()
	metrics.LastTemperature.WithLabelValues(rec.DeviceID, "ambient").Set(rec.AmbientTemperature)
	metrics.LastTemperature.WithLabelValues(rec.DeviceID, "device").Set(rec.DeviceTemperature)

	if rec.Spike {
		s.Spikes++
		metrics.SpikesInjected.WithLabelValues(rec.DeviceID).Inc()
	}

	result := s.analyzer.Analyze(rec)
	metrics.RollingAverage.WithLabelValues(rec.DeviceID).Set(result.RollingAvg)
	if result.IsAnomaly {
		s.Anomalies++
		if result.InjectedSpike {
			s.DetectedHits++
		}
		metrics.AnomaliesDetected.WithLabelValues(result.AnomalyType, rec.DeviceID).Inc()
	}

	s.aggregator.Add(rec)
	return nil
}

// Close ничего не освобождает, нужен для интерфейса sink
func (s *RunSummary) Close() error {
	return nil
}

// Buckets агрегаты по интервалам
func (s *RunSummary) Buckets() []models.AggregatedTelemetry {
	return s.aggregator.Results()
}

// Hottest интервал с максимальной средней температурой устройства
func (s *RunSummary) Hottest() (models.AggregatedTelemetry, bool) {
	buckets := s.Buckets()
	if len(buckets) == 0 {
		return models.AggregatedTelemetry{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.AvgDeviceTemperature > best.AvgDeviceTemperature {
			best = b
		}
	}
	return best, true
}

// Stats статистика анализатора
func (s *RunSummary) Stats() map[string]interface{} {
	return s.analyzer.GetStats()
}
