// cache - кэш refresh-токенов в Redis поверх основного хранилища.
//
// Отзыв записывается как «надгробие» (rev=1), которое не перетирается
// последующим Set: поля пишутся через HSETNX.
package cache

//go:generate mockgen -source=cache.go -destination=../../mocks/cache_mock.go -package=mocks

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "auth:rt:"

// RefreshEntry описывает данные, которые хранятся в Redis по хэшу refresh-токена.
type RefreshEntry struct {
	AccountID int64
	Revoked   bool
	ExpiresAt time.Time
}

// RefreshCache - минимальный контракт кэша refresh-токенов.
type RefreshCache interface {
	// Get возвращает запись и признак её наличия в кэше.
	// Надгробие без остальных полей возвращается как отозванная запись.
	Get(ctx context.Context, hash string) (*RefreshEntry, bool, error)
	// Set сохраняет запись с TTL, не снимая ранее записанный отзыв.
	Set(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error
	// MarkRevoked записывает rev=1 с указанным TTL.
	MarkRevoked(ctx context.Context, hash string, ttl time.Duration) error
	// Ping проверяет доступность Redis.
	Ping(ctx context.Context) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой - используется "auth:rt:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (RefreshCache, error) {
	const op = "cache.NewRedisCache"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return newRedisCache(rdb, prefix), nil
}

func newRedisCache(rdb *redis.Client, prefix string) *redisCache {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &redisCache{rdb: rdb, prefix: prefix}
}

func (c *redisCache) key(hash string) string { return c.prefix + hash }

// Get читает Redis Hash с полями: uid, rev (0/1), exp (unix).
func (c *redisCache) Get(ctx context.Context, hash string) (*RefreshEntry, bool, error) {
	const op = "cache.Get"

	m, err := c.rdb.HGetAll(ctx, c.key(hash)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if m["rev"] == "1" {
		e := &RefreshEntry{Revoked: true}
		e.AccountID, _ = strconv.ParseInt(m["uid"], 10, 64)
		if exp, err := strconv.ParseInt(m["exp"], 10, 64); err == nil {
			e.ExpiresAt = time.Unix(exp, 0).UTC()
		}

		return e, true, nil
	}

	uidStr, hasUID := m["uid"]
	expStr, hasExp := m["exp"]
	if _, hasRev := m["rev"]; !hasRev || !hasUID || !hasExp {
		// пусто или запись записана не полностью.
		return nil, false, nil
	}

	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("%s: uid: %w", op, err)
	}

	expUnix, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("%s: exp: %w", op, err)
	}

	return &RefreshEntry{
		AccountID: uid,
		Revoked:   false,
		ExpiresAt: time.Unix(expUnix, 0).UTC(),
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error {
	const op = "cache.Set"

	if ttl <= 0 {
		return nil
	}

	k := c.key(hash)

	pipe := c.rdb.TxPipeline()
	pipe.HSetNX(ctx, k, "uid", strconv.FormatInt(e.AccountID, 10))
	pipe.HSetNX(ctx, k, "exp", strconv.FormatInt(e.ExpiresAt.Unix(), 10))
	pipe.HSetNX(ctx, k, "rev", boolTo01(e.Revoked))
	pipe.Expire(ctx, k, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *redisCache) MarkRevoked(ctx context.Context, hash string, ttl time.Duration) error {
	const op = "cache.MarkRevoked"

	k := c.key(hash)

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, k, "rev", "1")
	if ttl > 0 {
		pipe.Expire(ctx, k, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache.Ping: %w", err)
	}

	return nil
}

func (c *redisCache) Close() error { return c.rdb.Close() }

func boolTo01(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
