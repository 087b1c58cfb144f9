package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/raaihank/llm-shield/internal/logger"
	"go.uber.org/zap"
)

// ExportConfig configures audit event export to Redis.
type ExportConfig struct {
	RedisURL  string        `yaml:"redis_url" mapstructure:"redis_url"`
	Key       string        `yaml:"key" mapstructure:"key"`
	MaxEvents int64         `yaml:"max_events" mapstructure:"max_events"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RedisSink exports audit events to a Redis list for the consuming log
// pipeline. Events carry only metadata, so the export path handles no PII.
// Delivery is best-effort: export failures are logged, never propagated
// into the vault operation that produced the event.
type RedisSink struct {
	client *redis.Client
	config *ExportConfig
	logger *logger.Logger
}

// NewRedisSink creates a Redis-backed audit sink and verifies connectivity.
func NewRedisSink(config *ExportConfig, log *logger.Logger) (*RedisSink, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	sink := &RedisSink{
		client: client,
		config: config,
		logger: log.WithComponent("audit-export"),
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Audit export sink initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.String("key", config.Key),
		zap.Int64("max_events", config.MaxEvents),
	)

	return sink, nil
}

// Record pushes the event onto the export list, trimming it to the
// configured cap.
func (s *RedisSink) Record(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal audit event", zap.Error(err))
		return
	}

	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.config.Key, data)
	if s.config.MaxEvents > 0 {
		pipe.LTrim(ctx, s.config.Key, -s.config.MaxEvents, -1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to export audit event",
			zap.String("event_kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}

// Close releases the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// maskRedisURL hides credentials embedded in a Redis URL before logging.
func maskRedisURL(redisURL string) string {
	u, err := url.Parse(redisURL)
	if err != nil {
		return "redis://***"
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	return u.String()
}
