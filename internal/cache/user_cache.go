// Package cache provides a Redis-backed read cache for users.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"
	"github.com/zhirschtritt/orderly/internal/domain"
)

const (
	userKeyPrefix = "user:"

	// generationTTL bounds how long an idle id's generation counter lives.
	// It only has to outlast a single in-flight read.
	generationTTL = 24 * time.Hour
)

// fillScript sets KEYS[1] only when the generation at KEYS[2] still equals
// ARGV[1].
var fillScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

var _ domain.UserCache = new(UserCache)

type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*UserCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{
		client: client,
		ttl:    ttl,
	}
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func generationKey(id string) string {
	return userKeyPrefix + id + ":gen"
}

func (c *UserCache) Get(ctx context.Context, id string) (mo.Option[*domain.User], error) {
	data, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return mo.None[*domain.User](), nil
		}
		return mo.None[*domain.User](), fmt.Errorf("redis get failed: %w", err)
	}

	user, err := decodeUser(data)
	if err != nil {
		return mo.None[*domain.User](), err
	}
	return mo.Some(user), nil
}

// Generation returns the invalidation counter for id, 0 if it was never
// invalidated.
func (c *UserCache) Generation(ctx context.Context, id string) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return generation, nil
}

// Fill caches user unless id was invalidated after generation was read.
// A rejected fill is not an error.
func (c *UserCache) Fill(ctx context.Context, user *domain.User, generation int64) error {
	data, err := encodeUser(user)
	if err != nil {
		return err
	}

	keys := []string{userKey(user.ID), generationKey(user.ID)}
	args := []any{strconv.FormatInt(generation, 10), data, c.ttl.Milliseconds()}
	if err := fillScript.Run(ctx, c.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// Invalidate bumps the generation and drops the cached entry atomically.
func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), generationTTL)
		pipe.Del(ctx, userKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached user: %w", err)
	}
	return nil
}

func (c *UserCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *UserCache) Close() error {
	return c.client.Close()
}

func encodeUser(user *domain.User) ([]byte, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cached user: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*domain.User, error) {
	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}
	return &user, nil
}
