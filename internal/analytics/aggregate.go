package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"telemetry-gen/internal/models"
)

// ErrInvalidResolution неподдерживаемое разрешение агрегации
var ErrInvalidResolution = errors.New("invalid resolution")

var resolutions = map[string]time.Duration{
	"10s": 10 * time.Second,
	"30s": 30 * time.Second,
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseResolution разбирает разрешение вида 10s, 1m, 1h, 1d
func ParseResolution(s string) (time.Duration, error) {
	d, ok := resolutions[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w %q: supported values are 10s, 30s, 1m, 5m, 15m, 30m, 1h, 6h, 12h, 1d",
			ErrInvalidResolution, s)
	}
	return d, nil
}

type bucket struct {
	start      time.Time
	count      int64
	ambientSum float64
	ambientMin float64
	ambientMax float64
	deviceSum  float64
	deviceMin  float64
	deviceMax  float64
}

func (b *bucket) add(rec models.TelemetryRecord) {
	if b.count == 0 {
		b.ambientMin, b.ambientMax = rec.AmbientTemperature, rec.AmbientTemperature
		b.deviceMin, b.deviceMax = rec.DeviceTemperature, rec.DeviceTemperature
	}
	b.count++
	b.ambientSum += rec.AmbientTemperature
	b.deviceSum += rec.DeviceTemperature
	b.ambientMin = math.Min(b.ambientMin, rec.AmbientTemperature)
	b.ambientMax = math.Max(b.ambientMax, rec.AmbientTemperature)
	b.deviceMin = math.Min(b.deviceMin, rec.DeviceTemperature)
	b.deviceMax = math.Max(b.deviceMax, rec.DeviceTemperature)
}

// Aggregator собирает статистику по интервалам [start, start+resolution).
// Интервалы выравниваются по первой записи устройства.
type Aggregator struct {
	resolution time.Duration
	origins    map[string]time.Time
	buckets    map[string]map[int64]*bucket
}

// NewAggregator создает агрегатор с заданным разрешением
func NewAggregator(resolution time.Duration) *Aggregator {
	return &Aggregator{
		resolution: resolution,
		origins:    make(map[string]time.Time),
		buckets:    make(map[string]map[int64]*bucket),
	}
}

// Add учитывает запись
func (g *Aggregator) Add(rec models.TelemetryRecord) {
	origin, ok := g.origins[rec.DeviceID]
	if !ok {
		origin = rec.Timestamp
		g.origins[rec.DeviceID] = origin
		g.buckets[rec.DeviceID] = make(map[int64]*bucket)
	}

	offset := rec.Timestamp.Sub(origin)
	idx := int64(offset / g.resolution)
	if offset < 0 && offset%g.resolution != 0 {
		idx--
	}

	b, ok := g.buckets[rec.DeviceID][idx]
	if !ok {
		b = &bucket{start: origin.Add(time.Duration(idx) * g.resolution)}
		g.buckets[rec.DeviceID][idx] = b
	}
	b.add(rec)
}

// Results возвращает интервалы, отсортированные по устройству и времени
func (g *Aggregator) Results() []models.AggregatedTelemetry {
	var out []models.AggregatedTelemetry
	for deviceID, byIdx := range g.buckets {
		for _, b := range byIdx {
			n := float64(b.count)
			out = append(out, models.AggregatedTelemetry{
				DeviceID:              deviceID,
				StartTime:             b.start,
				EndTime:               b.start.Add(g.resolution),
				AvgAmbientTemperature: b.ambientSum / n,
				MinAmbientTemperature: b.ambientMin,
				MaxAmbientTemperature: b.ambientMax,
				AvgDeviceTemperature:  b.deviceSum / n,
				MinDeviceTemperature:  b.deviceMin,
				MaxDeviceTemperature:  b.deviceMax,
				RecordCount:           b.count,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DeviceID != out[j].DeviceID {
			return out[i].DeviceID < out[j].DeviceID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Aggregate агрегирует готовый набор записей
func Aggregate(records []models.TelemetryRecord, resolution time.Duration) []models.AggregatedTelemetry {
	if resolution <= 0 || len(records) == 0 {
		return nil
	}

	sorted := make([]models.TelemetryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	agg := NewAggregator(resolution)
	for _, rec := range sorted {
		agg.Add(rec)
	}
	return agg.Results()
}
