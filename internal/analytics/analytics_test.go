package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"telemetry-gen/internal/models"
	"telemetry-gen/internal/simulation"
)

var t0 = time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

func rec(device string, sec int, ambient, temp float64) models.TelemetryRecord {
	return models.TelemetryRecord{
		DeviceID:           device,
		Timestamp:          t0.Add(time.Duration(sec) * time.Second),
		AmbientTemperature: ambient,
		DeviceTemperature:  temp,
	}
}

func TestAnalyzerFlagsSpikeAndDrop(t *testing.T) {
	tests := []struct {
		name     string
		outlier  float64
		wantType string
	}{
		{"spike", 60, "DEVICE_TEMP_SPIKE"},
		{"drop", 40, "DEVICE_TEMP_DROP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(50, 4.0)
			for i := 0; i < 60; i++ {
				v := 49.9
				if i%2 == 0 {
					v = 50.1
				}
				if res := a.Analyze(rec("D1", i, 22, v)); res.IsAnomaly {
					t.Fatalf("steady value %d flagged: z=%.2f", i, res.ZScore)
				}
			}

			res := a.Analyze(rec("D1", 60, 22, tt.outlier))
			if !res.IsAnomaly {
				t.Fatalf("outlier not flagged: z=%.2f", res.ZScore)
			}
			if res.AnomalyType != tt.wantType {
				t.Errorf("type = %s, want %s", res.AnomalyType, tt.wantType)
			}

			stats := a.GetStats()
			if stats["anomalies"] != 1 || stats["processed"] != 61 {
				t.Errorf("stats = %v", stats)
			}
		})
	}
}

func TestAnalyzerFirstValueHasZeroScore(t *testing.T) {
	a := NewAnalyzer(10, 1.0)
	res := a.Analyze(rec("D1", 0, 22, 80))
	if res.ZScore != 0 || res.IsAnomaly || res.RollingAvg != 80 {
		t.Errorf("result = %+v", res)
	}
}

func TestAnalyzerKeepsWindowsPerDevice(t *testing.T) {
	a := NewAnalyzer(3, 10)
	a.Analyze(rec("A", 0, 22, 10))
	a.Analyze(rec("B", 0, 22, 100))
	res := a.Analyze(rec("A", 1, 22, 20))
	if res.RollingAvg != 15 {
		t.Errorf("avg = %v, want 15", res.RollingAvg)
	}
	for i := 2; i < 10; i++ {
		res = a.Analyze(rec("A", i, 22, 30))
	}
	if res.RollingAvg != 30 {
		t.Errorf("window not trimmed: avg = %v", res.RollingAvg)
	}
	if a.GetStats()["devices_tracked"] != 2 {
		t.Errorf("stats = %v", a.GetStats())
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"10s", 10 * time.Second, false},
		{"1M", time.Minute, false},
		{"1h", time.Hour, false},
		{" 12h ", 12 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"2h", 0, true},
		{"", 0, true},
		{"1w", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseResolution(tt.in)
		if tt.err {
			if !errors.Is(err, ErrInvalidResolution) {
				t.Errorf("%q: expected ErrInvalidResolution, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: got %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestAggregateBuckets(t *testing.T) {
	records := []models.TelemetryRecord{
		rec("D1", 25, 21, 52),
		rec("D1", 0, 20, 50),
		rec("D1", 5, 22, 54),
		rec("D1", 10, 23, 60),
		rec("D2", 3, 18, 45),
	}

	got := Aggregate(records, 10*time.Second)
	if len(got) != 4 {
		t.Fatalf("expected 4 buckets, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.DeviceID != "D1" || !first.StartTime.Equal(t0) || !first.EndTime.Equal(t0.Add(10*time.Second)) {
		t.Errorf("first bucket = %+v", first)
	}
	if first.RecordCount != 2 || first.AvgDeviceTemperature != 52 ||
		first.MinAmbientTemperature != 20 || first.MaxAmbientTemperature != 22 ||
		first.MinDeviceTemperature != 50 || first.MaxDeviceTemperature != 54 {
		t.Errorf("first bucket stats = %+v", first)
	}

	// интервал [10s, 20s) содержит только 10s, [20s, 30s) только 25s
	if !got[2].StartTime.Equal(t0.Add(20 * time.Second)) || got[2].RecordCount != 1 {
		t.Errorf("third bucket = %+v", got[2])
	}
	if got[3].DeviceID != "D2" || !got[3].StartTime.Equal(t0.Add(3*time.Second)) {
		t.Errorf("D2 bucket = %+v", got[3])
	}

	if Aggregate(nil, time.Minute) != nil || Aggregate(records, 0) != nil {
		t.Error("expected nil for empty input or zero resolution")
	}
}

func TestRunSummaryOverGeneratedSeries(t *testing.T) {
	cfg := models.DefaultSimulationConfig()
	cfg.Duration = 6 * time.Hour
	g := simulation.NewGenerator(cfg, simulation.NewSource(11))

	s := NewRunSummary(50, 4.0, time.Hour)
	for r := range g.Records() {
		if err := s.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if s.Records != 6*3600 {
		t.Fatalf("records = %d", s.Records)
	}
	if !s.First.Equal(cfg.StartTime) || !s.Last.Equal(cfg.EndTime().Add(-time.Second)) {
		t.Errorf("range = %v .. %v", s.First, s.Last)
	}
	if s.DetectedHits > s.Spikes || s.DetectedHits > s.Anomalies {
		t.Errorf("hits=%d spikes=%d anomalies=%d", s.DetectedHits, s.Spikes, s.Anomalies)
	}

	buckets := s.Buckets()
	if len(buckets) != 6 {
		t.Fatalf("buckets = %d", len(buckets))
	}
	for i, b := range buckets {
		if b.RecordCount != 3600 {
			t.Errorf("bucket %d count = %d", i, b.RecordCount)
		}
		base := simulation.BaseAmbient(cfg.Ambient, i)
		if math.Abs(b.AvgAmbientTemperature-base) > 0.05 {
			t.Errorf("bucket %d avg ambient %.3f far from %.3f", i, b.AvgAmbientTemperature, base)
		}
	}

	hottest, ok := s.Hottest()
	if !ok {
		t.Fatal("no hottest bucket")
	}
	for _, b := range buckets {
		if b.AvgDeviceTemperature > hottest.AvgDeviceTemperature {
			t.Errorf("bucket %v hotter than reported hottest", b.StartTime)
		}
	}
}
