package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"telemetry-gen/internal/models"
)

// RedisSink дублирует выгрузку телеметрии в Redis
type RedisSink struct {
	client  *redis.Client
	ctx     context.Context
	ttl     time.Duration
	batch   int
	pipe    redis.Pipeliner
	pending int
	devices map[string]struct{}
}

// NewRedisSink создает sink и проверяет подключение
func NewRedisSink(ctx context.Context, addr, password string, db int, ttl time.Duration, batch int) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     4,
		MinIdleConns: 1,
		MaxRetries:   3,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisSink(ctx, client, ttl, batch), nil
}

func newRedisSink(ctx context.Context, client *redis.Client, ttl time.Duration, batch int) *RedisSink {
	if batch <= 0 {
		batch = 500
	}
	return &RedisSink{
		client:  client,
		ctx:     ctx,
		ttl:     ttl,
		batch:   batch,
		pipe:    client.Pipeline(),
		devices: make(map[string]struct{}),
	}
}

// RecordKey ключ отдельной записи
func RecordKey(deviceID string, ts time.Time) string {
	return fmt.Sprintf("telemetry:%s:%d", deviceID, ts.Unix())
}

// IndexKey sorted set всех записей устройства
func IndexKey(deviceID string) string {
	return fmt.Sprintf("telemetry_index:%s", deviceID)
}

// SpikeKey sorted set записей с выбросами
func SpikeKey(deviceID string) string {
	return fmt.Sprintf("spike_list:%s", deviceID)
}

// Write ставит запись в текущий pipeline
func (r *RedisSink) Write(rec models.TelemetryRecord) error {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := RecordKey(rec.DeviceID, rec.Timestamp)
	score := float64(rec.Timestamp.Unix())

	r.pipe.Set(r.ctx, key, jsonData, r.ttl)
	r.pipe.ZAdd(r.ctx, IndexKey(rec.DeviceID), redis.Z{Score: score, Member: key})
	if rec.Spike {
		r.pipe.ZAdd(r.ctx, SpikeKey(rec.DeviceID), redis.Z{Score: score, Member: key})
	}

	r.devices[rec.DeviceID] = struct{}{}
	r.pending++
	if r.pending >= r.batch {
		return r.flush()
	}
	return nil
}

func (r *RedisSink) flush() error {
	if r.pending == 0 {
		return nil
	}
	r.pending = 0
	if _, err := r.pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to flush redis pipeline: %w", err)
	}
	return nil
}

// Close отправляет остаток pipeline и закрывает соединение
func (r *RedisSink) Close() error {
	if r.ttl > 0 {
		// TTL индексов ставим один раз, вместе с последним пакетом
		for deviceID := range r.devices {
			r.pipe.Expire(r.ctx, IndexKey(deviceID), r.ttl)
			r.pipe.Expire(r.ctx, SpikeKey(deviceID), r.ttl)
		}
		if len(r.devices) > 0 {
			r.pending++
		}
	}
	err := r.flush()
	if cerr := r.client.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close redis client: %w", cerr)
	}
	return err
}

// CountRecords количество записей устройства в индексе
func (r *RedisSink) CountRecords(deviceID string) (int64, error) {
	return r.client.ZCard(r.ctx, IndexKey(deviceID)).Result()
}

// GetRecentSpikes последние выбросы устройства
func (r *RedisSink) GetRecentSpikes(deviceID string, limit int) ([]string, error) {
	results, err := r.client.ZRevRange(r.ctx, SpikeKey(deviceID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get spikes: %w", err)
	}
	return results, nil
}
