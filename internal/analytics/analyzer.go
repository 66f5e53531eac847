package analytics

import (
	"math"
	"time"

	"telemetry-gen/internal/models"
)

// MetricWindow хранит скользящее окно температуры устройства
type MetricWindow struct {
	values  []float64
	maxSize int
}

// Analyzer анализатор ряда с rolling average и z-score
type Analyzer struct {
	windows          map[string]*MetricWindow
	windowSize       int
	anomalyThreshold float64
	processed        int
	anomalies        int
}

// AnalysisResult результат анализа одной записи
type AnalysisResult struct {
	DeviceID      string
	Timestamp     time.Time
	RollingAvg    float64
	StandardDev   float64
	ZScore        float64
	IsAnomaly     bool
	AnomalyType   string
	InjectedSpike bool
}

// NewAnalyzer создает новый анализатор
func NewAnalyzer(windowSize int, anomalyThreshold float64) *Analyzer {
	if windowSize < 2 {
		windowSize = 2
	}
	return &Analyzer{
		windows:          make(map[string]*MetricWindow),
		windowSize:       windowSize,
		anomalyThreshold: anomalyThreshold,
	}
}

// Analyze добавляет запись в окно устройства и считает z-score
func (a *Analyzer) Analyze(rec models.TelemetryRecord) AnalysisResult {
	window, exists := a.windows[rec.DeviceID]
	if !exists {
		window = &MetricWindow{
			values:  make([]float64, 0, a.windowSize+1),
			maxSize: a.windowSize,
		}
		a.windows[rec.DeviceID] = window
	}

	// Добавляем новое значение
	window.values = append(window.values, rec.DeviceTemperature)

	// Ограничиваем размер окна
	if len(window.values) > window.maxSize {
		window.values = window.values[1:]
	}

	avg := calculateAverage(window.values)
	stdDev := calculateStdDev(window.values, avg)

	var zScore float64
	if stdDev > 0 {
		zScore = (rec.DeviceTemperature - avg) / stdDev
	}

	result := AnalysisResult{
		DeviceID:      rec.DeviceID,
		Timestamp:     rec.Timestamp,
		RollingAvg:    avg,
		StandardDev:   stdDev,
		ZScore:        zScore,
		InjectedSpike: rec.Spike,
	}

	if math.Abs(zScore) > a.anomalyThreshold {
		result.IsAnomaly = true
		if zScore > 0 {
			result.AnomalyType = "DEVICE_TEMP_SPIKE"
		} else {
			result.AnomalyType = "DEVICE_TEMP_DROP"
		}
		a.anomalies++
	}
	a.processed++

	return result
}

// calculateAverage вычисляет среднее значение
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStdDev вычисляет стандартное отклонение
func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

// GetStats возвращает статистику анализатора
func (a *Analyzer) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"devices_tracked": len(a.windows),
		"window_size":     a.windowSize,
		"threshold":       a.anomalyThreshold,
		"processed":       a.processed,
		"anomalies":       a.anomalies,
	}
}
