package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis persists each kind as a hash of id to JSON payload.
type Redis struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedis connects a client from a redis URL.
func NewRedis(ctx context.Context, redisURL string, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Redis connected")
	return &Redis{rdb: rdb, logger: logger}, nil
}

func kindKey(kind string) string {
	return "cogito:records:" + kind
}

func (r *Redis) LoadAll(ctx context.Context, kind string) ([]Record, error) {
	entries, err := r.rdb.HGetAll(ctx, kindKey(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}

	records := make([]Record, 0, len(entries))
	for id, data := range entries {
		records = append(records, Record{ID: id, Data: json.RawMessage(data)})
	}
	return records, nil
}

// SaveAll replaces the kind's hash atomically via a pipeline.
func (r *Redis) SaveAll(ctx context.Context, kind string, records []Record) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, kindKey(kind))
	if len(records) > 0 {
		fields := make(map[string]interface{}, len(records))
		for _, rec := range records {
			fields[rec.ID] = string(rec.Data)
		}
		pipe.HSet(ctx, kindKey(kind), fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	return nil
}

func (r *Redis) Close() {
	_ = r.rdb.Close()
}
