package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout формат времени в выгрузке (суффикс Z литеральный)
const TimestampLayout = "2006-01-02T15:04:05Z"

// TelemetryRecord одна секунда телеметрии устройства
type TelemetryRecord struct {
	DeviceID           string    `json:"device_id"`
	Timestamp          time.Time `json:"timestamp"`
	AmbientTemperature float64   `json:"ambient_temperature"`
	DeviceTemperature  float64   `json:"device_temperature"`
	Spike              bool      `json:"spike,omitempty"`
}

// TimestampString возвращает время записи в формате выгрузки
func (r TelemetryRecord) TimestampString() string {
	return r.Timestamp.Format(TimestampLayout)
}

// AmbientString температура среды с двумя знаками после запятой
func (r TelemetryRecord) AmbientString() string {
	return decimal.NewFromFloat(r.AmbientTemperature).StringFixedBank(2)
}

// DeviceString температура устройства с двумя знаками после запятой
func (r TelemetryRecord) DeviceString() string {
	return decimal.NewFromFloat(r.DeviceTemperature).StringFixedBank(2)
}

// AmbientCycleParams параметры суточного цикла температуры среды
type AmbientCycleParams struct {
	Mean         float64
	Amplitude    float64
	PhaseHour    float64
	EffectFactor float64
}

// NoiseParams амплитуды равномерного шума
type NoiseParams struct {
	AmbientJitter float64
	DeviceJitter  float64
}

// SpikeParams параметры редких выбросов температуры устройства
type SpikeParams struct {
	Probability float64
	Min         float64
	Max         float64
}

// SimulationConfig конфигурация одного прогона симуляции
type SimulationConfig struct {
	DeviceID              string
	StartTime             time.Time
	Duration              time.Duration
	BaseDeviceTemperature float64
	Ambient               AmbientCycleParams
	Noise                 NoiseParams
	Spike                 SpikeParams
}

// EndTime граница интервала (не включается)
func (c SimulationConfig) EndTime() time.Time {
	return c.StartTime.Add(c.Duration)
}

// DefaultSimulationConfig двое суток с 2024-02-02 для DEVICE_001
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		DeviceID:              "DEVICE_001",
		StartTime:             time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		Duration:              48 * time.Hour,
		BaseDeviceTemperature: 50.0,
		Ambient: AmbientCycleParams{
			Mean:         22,
			Amplitude:    4,
			PhaseHour:    4,
			EffectFactor: 1.5,
		},
		Noise: NoiseParams{
			AmbientJitter: 0.5,
			DeviceJitter:  0.5,
		},
		Spike: SpikeParams{
			Probability: 0.001,
			Min:         5,
			Max:         15,
		},
	}
}

// AggregatedTelemetry статистика по временному интервалу
type AggregatedTelemetry struct {
	DeviceID              string    `json:"device_id"`
	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time"`
	AvgAmbientTemperature float64   `json:"avg_ambient_temperature"`
	MinAmbientTemperature float64   `json:"min_ambient_temperature"`
	MaxAmbientTemperature float64   `json:"max_ambient_temperature"`
	AvgDeviceTemperature  float64   `json:"avg_device_temperature"`
	MinDeviceTemperature  float64   `json:"min_device_temperature"`
	MaxDeviceTemperature  float64   `json:"max_device_temperature"`
	RecordCount           int64     `json:"record_count"`
}
