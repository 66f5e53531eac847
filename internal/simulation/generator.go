package simulation

import (
	"iter"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"telemetry-gen/internal/models"
)

// RandomSource источник равномерно распределенных чисел
type RandomSource interface {
	Uniform(a, b float64) float64
}

// pcgSource RandomSource поверх math/rand/v2
type pcgSource struct {
	rng *rand.Rand
}

// NewSource создает источник с заданным seed (0 - случайный seed)
func NewSource(seed int64) RandomSource {
	s := uint64(seed)
	if seed == 0 {
		s = rand.Uint64()
	}
	return &pcgSource{rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// Uniform возвращает число из [a, b)
func (p *pcgSource) Uniform(a, b float64) float64 {
	return a + (b-a)*p.rng.Float64()
}

// Generator генератор временного ряда телеметрии
type Generator struct {
	cfg models.SimulationConfig
	src RandomSource
}

// NewGenerator создает генератор для конфигурации
func NewGenerator(cfg models.SimulationConfig, src RandomSource) *Generator {
	return &Generator{
		cfg: cfg,
		src: src,
	}
}

// Config возвращает конфигурацию прогона
func (g *Generator) Config() models.SimulationConfig {
	return g.cfg
}

// Count количество тиков, которые выдаст Records
func (g *Generator) Count() int {
	if g.cfg.Duration <= 0 {
		return 0
	}
	n := g.cfg.Duration / time.Second
	if g.cfg.Duration%time.Second != 0 {
		n++
	}
	return int(n)
}

// Records возвращает ленивую последовательность записей.
// Каждый проход начинается заново со StartTime.
func (g *Generator) Records() iter.Seq[models.TelemetryRecord] {
	return func(yield func(models.TelemetryRecord) bool) {
		end := g.cfg.EndTime()
		for t := g.cfg.StartTime; t.Before(end); t = t.Add(time.Second) {
			if !yield(g.Next(t)) {
				return
			}
		}
	}
}

// Next вычисляет запись для момента t.
// Порядок выборок фиксирован: шум среды, выброс, шум устройства.
func (g *Generator) Next(t time.Time) models.TelemetryRecord {
	ambientCfg := g.cfg.Ambient

	base := BaseAmbient(ambientCfg, t.Hour())
	ambient := round2(base + g.src.Uniform(-g.cfg.Noise.AmbientJitter, g.cfg.Noise.AmbientJitter))

	effect := (ambient - ambientCfg.Mean) * ambientCfg.EffectFactor

	spike := 0.0
	hit := g.src.Uniform(0, 1) < g.cfg.Spike.Probability
	if hit {
		spike = g.src.Uniform(g.cfg.Spike.Min, g.cfg.Spike.Max)
	}

	device := round2(g.cfg.BaseDeviceTemperature + effect + spike +
		g.src.Uniform(-g.cfg.Noise.DeviceJitter, g.cfg.Noise.DeviceJitter))

	return models.TelemetryRecord{
		DeviceID:           g.cfg.DeviceID,
		Timestamp:          t,
		AmbientTemperature: ambient,
		DeviceTemperature:  device,
		Spike:              hit,
	}
}

// BaseAmbient суточная синусоида без шума для часа hour
func BaseAmbient(p models.AmbientCycleParams, hour int) float64 {
	return p.Mean + p.Amplitude*math.Sin(((float64(hour)-p.PhaseHour)/24)*2*math.Pi)
}

// round2 округление до сотых, половины к четному
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(2).InexactFloat64()
}
