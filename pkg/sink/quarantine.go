package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/javierturcios2607/ingestor/pkg/logging"
	"github.com/javierturcios2607/ingestor/pkg/validate"
)

// DefaultQuarantineKey is the redis list rejections are pushed to.
const DefaultQuarantineKey = "ingestor:quarantine"

// RedisQuarantine is a dead-letter store backed by a redis list. Each
// rejection is pushed as one JSON element, original payload and
// reasons included, so operators can inspect and replay it.
type RedisQuarantine struct {
	redis  *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisQuarantine creates a quarantine store on the given list key.
// An empty key uses DefaultQuarantineKey.
func NewRedisQuarantine(redisClient *redis.Client, key string) (*RedisQuarantine, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = DefaultQuarantineKey
	}
	return &RedisQuarantine{
		redis:  redisClient,
		key:    key,
		logger: logging.NewLogger("quarantine"),
	}, nil
}

// Add pushes one rejection onto the quarantine list.
func (q *RedisQuarantine) Add(ctx context.Context, rejection validate.Rejection) error {
	data, err := json.Marshal(rejection)
	if err != nil {
		return fmt.Errorf("marshal rejection: %w", err)
	}

	if err := q.redis.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}

	quarantinedTotal.Inc()
	q.logger.Warn().
		Str("key", q.key).
		Int("reasons", len(rejection.Reasons)).
		Msg("Record quarantined")

	return nil
}

// Len returns the current quarantine list length.
func (q *RedisQuarantine) Len(ctx context.Context) (int64, error) {
	n, err := q.redis.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen: %w", err)
	}
	return n, nil
}

// Memory is an in-process quarantine used when no redis is configured
// and by tests. Safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	items []validate.Rejection
}

// NewMemory creates an in-process quarantine.
func NewMemory() *Memory {
	return &Memory{}
}

// Add records one rejection.
func (q *Memory) Add(ctx context.Context, rejection validate.Rejection) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, rejection)
	quarantinedTotal.Inc()
	return nil
}

// Items returns a copy of all quarantined rejections.
func (q *Memory) Items() []validate.Rejection {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]validate.Rejection, len(q.items))
	copy(items, q.items)
	return items
}
