package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "catalog_bot:pending:"

// takeScript deletes the key only when the stored kind is one of ARGV.
// An empty ARGV accepts any kind.
const takeScript = `
local raw = redis.call('GET', KEYS[1])
if not raw then
  return false
end
if #ARGV == 0 then
  redis.call('DEL', KEYS[1])
  return raw
end
local kind = cjson.decode(raw).kind
for _, accepted in ipairs(ARGV) do
  if kind == accepted then
    redis.call('DEL', KEYS[1])
    return raw
  end
end
return false
`

// redisClient is the subset of *redis.Client the table uses.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisTable keeps pending actions in Redis so several bot replicas share them.
type RedisTable struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisTable wraps a Redis client. A zero ttl stores entries without expiry.
func NewRedisTable(client redisClient, ttl time.Duration) *RedisTable {
	return &RedisTable{client: client, ttl: ttl}
}

// Arm stores pending for userID, replacing any previous entry.
func (t *RedisTable) Arm(ctx context.Context, userID int64, pending Pending) error {
	if pending.ArmedAt.IsZero() {
		pending.ArmedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encode pending action: %w", err)
	}

	if err := t.client.Set(ctx, redisKey(userID), raw, t.ttl).Err(); err != nil {
		return fmt.Errorf("arm pending action: %w", err)
	}
	return nil
}

// Take atomically removes the entry when its kind is accepted.
func (t *RedisTable) Take(ctx context.Context, userID int64, accept ...Kind) (Pending, bool, error) {
	args := make([]interface{}, len(accept))
	for i, kind := range accept {
		args[i] = string(kind)
	}

	raw, err := t.client.Eval(ctx, takeScript, []string{redisKey(userID)}, args...).Text()
	if errors.Is(err, redis.Nil) {
		return Pending{}, false, nil
	}
	if err != nil {
		return Pending{}, false, fmt.Errorf("take pending action: %w", err)
	}

	pending, err := decodePending(raw)
	if err != nil {
		return Pending{}, false, err
	}
	return pending, true, nil
}

// Peek reads the entry without consuming it.
func (t *RedisTable) Peek(ctx context.Context, userID int64) (Pending, bool, error) {
	raw, err := t.client.Get(ctx, redisKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Pending{}, false, nil
	}
	if err != nil {
		return Pending{}, false, fmt.Errorf("peek pending action: %w", err)
	}

	pending, err := decodePending(raw)
	if err != nil {
		return Pending{}, false, err
	}
	return pending, true, nil
}

// Cancel deletes the entry and reports whether one existed.
func (t *RedisTable) Cancel(ctx context.Context, userID int64) (bool, error) {
	deleted, err := t.client.Del(ctx, redisKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("cancel pending action: %w", err)
	}
	return deleted > 0, nil
}

// Ping checks the Redis connection for the health endpoint.
func (t *RedisTable) Ping(ctx context.Context) error {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func decodePending(raw string) (Pending, error) {
	var pending Pending
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return Pending{}, fmt.Errorf("decode pending action: %w", err)
	}
	return pending, nil
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}
