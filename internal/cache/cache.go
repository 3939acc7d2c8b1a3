// Package cache хранит соответствие короткий код → целевой URL в Redis,
// чтобы переход по ссылке не обращался к базе данных.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// DefaultTTL задаёт время жизни записи в кэше
	DefaultTTL = 24 * time.Hour
	// TombstoneTTL задаёт время жизни метки удаления. Должно превышать
	// время обработки запроса, иначе опоздавшее чтение вернёт удалённую ссылку в кэш.
	TombstoneTTL = time.Minute
	keyPrefix    = "link:"
	// tombstone хранится вместо URL удалённой ссылки
	tombstone = ""
)

// Cache определяет операции кэша переходов
type Cache interface {
	// Get возвращает URL; метка удаления считается промахом
	Get(ctx context.Context, shortCode string) (string, bool, error)
	// Add сохраняет URL, только если ключ свободен; false означает, что ключ занят
	Add(ctx context.Context, shortCode, targetURL string) (bool, error)
	// Invalidate заменяет запись меткой удаления на TombstoneTTL
	Invalidate(ctx context.Context, shortCode string) error
}

// RedisCache реализует Cache поверх go-redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// NewRedisCache создаёт кэш; ttl <= 0 заменяется на DefaultTTL
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get возвращает целевой URL; промах кэша не является ошибкой
func (c *RedisCache) Get(ctx context.Context, shortCode string) (string, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+shortCode).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if val == tombstone {
		return "", false, nil
	}
	return val, true, nil
}

// Add сохраняет целевой URL на время ttl через SETNX.
// Метка удаления не перезаписывается, пока не истечёт.
func (c *RedisCache) Add(ctx context.Context, shortCode, targetURL string) (bool, error) {
	return c.client.SetNX(ctx, keyPrefix+shortCode, targetURL, c.ttl).Result()
}

// Invalidate записывает метку удаления вместо URL
func (c *RedisCache) Invalidate(ctx context.Context, shortCode string) error {
	return c.client.Set(ctx, keyPrefix+shortCode, tombstone, TombstoneTTL).Err()
}

// Ping проверяет соединение с Redis
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
