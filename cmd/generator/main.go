package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"telemetry-gen/internal/analytics"
	"telemetry-gen/internal/cache"
	"telemetry-gen/internal/export"
	"telemetry-gen/internal/metrics"
	"telemetry-gen/internal/models"
	"telemetry-gen/internal/simulation"
	"telemetry-gen/internal/upload"
)

func main() {
	config := loadConfig()
	setupLogging(config.LogFile)

	log.Println("Generating telemetry data...")

	count, err := run(context.Background(), config)
	if err != nil {
		log.Fatalf("Telemetry generation failed: %v", err)
	}

	log.Printf("Done! Generated %s with %s records\n", config.OutputPath, groupThousands(count))
}

// Config конфигурация генератора
type Config struct {
	OutputPath string
	Simulation models.SimulationConfig
	Seed       int64

	Sink          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	RedisBatch    int
	WindowSize    int
	AnomalyThresh float64
	Resolution    string
	MetricsFile   string
	S3            upload.Config
	LogFile       string
}

// loadConfig загружает конфигурацию из .env.local и environment.
// Значения по умолчанию дают фиксированный двухдневный прогон.
func loadConfig() Config {
	if err := godotenv.Load(".env.local"); err == nil {
		log.Println("Loaded .env.local")
	}

	sim := models.DefaultSimulationConfig()
	sim.DeviceID = getEnv("DEVICE_ID", sim.DeviceID)
	sim.StartTime = getEnvAsTime("START_TIME", sim.StartTime)
	sim.Duration = time.Duration(getEnvAsFloat("DURATION_HOURS", sim.Duration.Hours()) * float64(time.Hour))
	sim.BaseDeviceTemperature = getEnvAsFloat("BASE_DEVICE_TEMP", sim.BaseDeviceTemperature)
	sim.Spike.Probability = getEnvAsFloat("SPIKE_PROBABILITY", sim.Spike.Probability)

	return Config{
		OutputPath: getEnv("OUTPUT_PATH", "telemetry.csv"),
		Simulation: sim,
		Seed:       int64(getEnvAsInt("SEED", 0)),

		Sink:          strings.ToLower(getEnv("SINK", "csv")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisTTL:      time.Duration(getEnvAsInt("REDIS_TTL_HOURS", 24)) * time.Hour,
		RedisBatch:    getEnvAsInt("REDIS_BATCH", 500),
		WindowSize:    getEnvAsInt("WINDOW_SIZE", 50),
		AnomalyThresh: getEnvAsFloat("ANOMALY_THRESHOLD", 4.0),
		Resolution:    getEnv("RESOLUTION", "1h"),
		MetricsFile:   getEnv("METRICS_TEXTFILE", ""),
		S3: upload.Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "telemetry"),
			Prefix:    getEnv("S3_PREFIX", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Secure:    getEnvAsBool("S3_SECURE", false),
		},
		LogFile: getEnv("LOG_FILE", ""),
	}
}

// getEnv получает environment variable или возвращает default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt получает environment variable как int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d\n", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsFloat получает environment variable как float64
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %g\n", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsTime RFC3339 или "2006-01-02T15:04:05" без зоны
func getEnvAsTime(key string, defaultValue time.Time) time.Time {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if value, err := time.Parse(layout, valueStr); err == nil {
			return value
		}
	}
	log.Printf("Invalid %s=%q, using %s\n", key, valueStr, defaultValue.Format(models.TimestampLayout))
	return defaultValue
}

// setupLogging помечает строки лога id прогона и при необходимости пишет в файл
func setupLogging(logFile string) {
	log.SetPrefix(fmt.Sprintf("[%s] ", uuid.NewString()[:8]))
	if logFile == "" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}))
}

// run генерирует ряд, пишет его во все sinks и возвращает число записей
func run(ctx context.Context, config Config) (int, error) {
	start := time.Now()

	resolution, err := analytics.ParseResolution(config.Resolution)
	if err != nil {
		return 0, err
	}

	generator := simulation.NewGenerator(config.Simulation, simulation.NewSource(config.Seed))

	csvSink, err := export.CreateCSVFile(config.OutputPath)
	if err != nil {
		metrics.SinkWrites.WithLabelValues("csv", "error").Inc()
		return 0, err
	}
	sinks := []export.Sink{csvSink}

	if config.Sink == "redis" {
		redisSink, err := cache.NewRedisSink(ctx, config.RedisAddr, config.RedisPassword,
			config.RedisDB, config.RedisTTL, config.RedisBatch)
		if err != nil {
			csvSink.Close()
			return 0, err
		}
		log.Printf("Mirroring records to Redis at %s\n", config.RedisAddr)
		sinks = append(sinks, redisSink)
	}

	summary := analytics.NewRunSummary(config.WindowSize, config.AnomalyThresh, resolution)
	sinks = append(sinks, summary)

	count, err := export.Drain(generator.Records(), sinks...)
	for _, s := range sinks {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		metrics.SinkWrites.WithLabelValues(config.Sink, "error").Inc()
		return count, err
	}
	metrics.SinkWrites.WithLabelValues(config.Sink, "success").Add(float64(count))

	elapsed := time.Since(start)
	metrics.GenerationDuration.Observe(elapsed.Seconds())
	logSummary(summary, elapsed)

	if config.S3.Endpoint != "" {
		uploader, err := upload.NewUploader(config.S3)
		if err != nil {
			return count, err
		}
		key, err := uploader.UploadFile(ctx, config.OutputPath)
		if err != nil {
			return count, err
		}
		log.Printf("Uploaded %s to s3://%s/%s\n", config.OutputPath, config.S3.Bucket, key)
	}

	if config.MetricsFile != "" {
		if err := metrics.WriteTextfile(config.MetricsFile, nil); err != nil {
			return count, err
		}
	}

	return count, nil
}

func logSummary(summary *analytics.RunSummary, elapsed time.Duration) {
	if summary.Records == 0 {
		log.Println("No records generated")
		return
	}

	log.Printf("Series %s .. %s, %d spikes injected, %d anomalies detected (%d on spikes) in %s\n",
		summary.First.Format(models.TimestampLayout), summary.Last.Format(models.TimestampLayout),
		summary.Spikes, summary.Anomalies, summary.DetectedHits, elapsed.Round(time.Millisecond))

	if hottest, ok := summary.Hottest(); ok {
		log.Printf("%d intervals aggregated, hottest %s: avg device %.2f°C, max %.2f°C, %d records\n",
			len(summary.Buckets()), hottest.StartTime.Format(models.TimestampLayout),
			hottest.AvgDeviceTemperature, hottest.MaxDeviceTemperature, hottest.RecordCount)
	}
}

// groupThousands форматирует 172800 как 172,800
func groupThousands(n int) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
