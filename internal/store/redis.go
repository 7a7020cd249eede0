package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lifeos/internal/models"
)

// RedisStore is the shared-cache KeyedStore for multi-instance deploys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying connection so the usage log can share it.
func (s *RedisStore) Client() *redis.Client { return s.client }

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// RedisUsageLog stores usage records in per-day lists keyed
// ailog:{user}:{feature}:{yyyy-mm-dd}, plus a per-user recency list for
// the audit endpoint. Day keys expire after the retention window, so the
// quota count only ever touches today's key.
type RedisUsageLog struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisUsageLog(client *redis.Client, retention time.Duration) *RedisUsageLog {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &RedisUsageLog{client: client, retention: retention}
}

func dayKey(userID, feature string, t time.Time) string {
	return fmt.Sprintf("ailog:%s:%s:%s", userID, feature, t.UTC().Format("2006-01-02"))
}

func recentKey(userID string) string {
	return fmt.Sprintf("ailog_recent:%s", userID)
}

func (l *RedisUsageLog) Append(ctx context.Context, rec models.UsageLogRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := dayKey(rec.UserID, rec.FeatureName, rec.CreatedAt)
	pipe := l.client.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, l.retention)
	pipe.LPush(ctx, recentKey(rec.UserID), payload)
	pipe.LTrim(ctx, recentKey(rec.UserID), 0, 199)
	pipe.Expire(ctx, recentKey(rec.UserID), l.retention)
	_, err = pipe.Exec(ctx)
	return err
}

func (l *RedisUsageLog) CountSince(ctx context.Context, userID, feature string, since time.Time) (int, error) {
	total := 0
	for day := since.UTC().Truncate(24 * time.Hour); !day.After(time.Now().UTC()); day = day.AddDate(0, 0, 1) {
		n, err := l.client.LLen(ctx, dayKey(userID, feature, day)).Result()
		if err != nil && err != redis.Nil {
			return 0, err
		}
		total += int(n)
	}
	return total, nil
}

func (l *RedisUsageLog) List(ctx context.Context, userID string, limit int) ([]models.UsageLogRecord, error) {
	raw, err := l.client.LRange(ctx, recentKey(userID), 0, int64(limit-1)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	records := make([]models.UsageLogRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.UsageLogRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// DeleteOlderThan is a no-op for Redis: day keys expire on their own TTL.
func (l *RedisUsageLog) DeleteOlderThan(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
