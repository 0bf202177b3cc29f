package alertstate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisTTL is the safety-net expiry applied to every key, well beyond its
// logical window, so that a missed sweep never leaks storage forever.
const redisTTL = 24 * time.Hour

// RedisStore is a Store backed by Redis through a go-redis client.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IsDuplicate(ctx context.Context, tenantID, ruleName, user string, eventTime time.Time) (bool, error) {
	var entry DedupEntry
	found, err := s.get(ctx, dedupKey(tenantID, ruleName, user), &entry)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	diff := eventTime.Sub(entry.Timestamp)
	if diff < 0 {
		diff = -diff
	}
	return diff < DedupWindow*time.Second, nil
}

func (s *RedisStore) Record(ctx context.Context, tenantID, ruleName, user string, eventTime time.Time) error {
	return s.set(ctx, dedupKey(tenantID, ruleName, user), DedupEntry{Timestamp: eventTime})
}

func (s *RedisStore) WasNotifiedRecently(ctx context.Context, tenantID, ruleName, user string, now time.Time) (bool, error) {
	var entry ThrottleEntry
	found, err := s.get(ctx, throttleKey(tenantID, ruleName, user), &entry)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return now.Sub(entry.LastNotified) < ThrottleWindow*time.Second, nil
}

func (s *RedisStore) RecordNotification(ctx context.Context, tenantID, ruleName, user string, now time.Time) error {
	key := throttleKey(tenantID, ruleName, user)

	var entry ThrottleEntry
	found, err := s.get(ctx, key, &entry)
	if err != nil {
		return err
	}
	if !found {
		entry = ThrottleEntry{}
	}
	entry.LastNotified = now
	entry.AlertCount++

	return s.set(ctx, key, entry)
}

// Sweep scans both tables and deletes entries whose window has fully
// elapsed as of now. Redis already expires every key via redisTTL, so this
// is a bound-tightening pass rather than the only backstop.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) error {
	if err := s.sweepPrefix(ctx, "dedup:", now, DedupWindow*time.Second, func(raw []byte) time.Time {
		var e DedupEntry
		_ = json.Unmarshal(raw, &e)
		return e.Timestamp
	}); err != nil {
		return err
	}
	return s.sweepPrefix(ctx, "throttle:", now, ThrottleWindow*time.Second, func(raw []byte) time.Time {
		var e ThrottleEntry
		_ = json.Unmarshal(raw, &e)
		return e.LastNotified
	})
}

func (s *RedisStore) sweepPrefix(ctx context.Context, prefix string, now time.Time, window time.Duration, extract func([]byte) time.Time) error {
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return err
		}
		if now.Sub(extract(raw)) >= window {
			s.client.Del(ctx, key)
		}
	}
	return iter.Err()
}

func (s *RedisStore) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, redisTTL).Err()
}
